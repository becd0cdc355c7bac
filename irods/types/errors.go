package types

import (
	"errors"
	"fmt"
)

// WireFormatError is returned when a protocol frame is truncated, carries an
// impossible length, or a required tag is missing.
type WireFormatError struct {
	Message string
}

// NewWireFormatError creates a WireFormatError
func NewWireFormatError(message string) *WireFormatError {
	return &WireFormatError{
		Message: message,
	}
}

// NewWireFormatErrorf creates a WireFormatError
func NewWireFormatErrorf(format string, v ...interface{}) *WireFormatError {
	return &WireFormatError{
		Message: fmt.Sprintf(format, v...),
	}
}

func (err *WireFormatError) Error() string {
	return fmt.Sprintf("wire format error: %s", err.Message)
}

// IsWireFormatError checks if the given error is a WireFormatError
func IsWireFormatError(err error) bool {
	return errors.Is(err, &WireFormatError{})
}

func (err *WireFormatError) Is(other error) bool {
	_, ok := other.(*WireFormatError)
	return ok
}

// NetworkTimeoutError is returned when a socket deadline expires.
type NetworkTimeoutError struct {
	Message string
}

// NewNetworkTimeoutError creates a NetworkTimeoutError
func NewNetworkTimeoutError(message string) *NetworkTimeoutError {
	return &NetworkTimeoutError{
		Message: message,
	}
}

func (err *NetworkTimeoutError) Error() string {
	return fmt.Sprintf("network timeout error: %s", err.Message)
}

// IsNetworkTimeoutError checks if the given error is a NetworkTimeoutError
func IsNetworkTimeoutError(err error) bool {
	return errors.Is(err, &NetworkTimeoutError{})
}

func (err *NetworkTimeoutError) Is(other error) bool {
	_, ok := other.(*NetworkTimeoutError)
	return ok
}

// NetworkFailureError is returned when the socket closes unexpectedly.
type NetworkFailureError struct {
	Message string
}

// NewNetworkFailureError creates a NetworkFailureError
func NewNetworkFailureError(message string) *NetworkFailureError {
	return &NetworkFailureError{
		Message: message,
	}
}

func (err *NetworkFailureError) Error() string {
	return fmt.Sprintf("network failure error: %s", err.Message)
}

// IsNetworkFailureError checks if the given error is a NetworkFailureError
func IsNetworkFailureError(err error) bool {
	return errors.Is(err, &NetworkFailureError{})
}

func (err *NetworkFailureError) Is(other error) bool {
	_, ok := other.(*NetworkFailureError)
	return ok
}

// NegotiationError is returned when the client and server SSL stances are
// incompatible, or the cipher setup fails.
type NegotiationError struct {
	Message string
}

// NewNegotiationError creates a NegotiationError
func NewNegotiationError(message string) *NegotiationError {
	return &NegotiationError{
		Message: message,
	}
}

// NewNegotiationErrorf creates a NegotiationError
func NewNegotiationErrorf(format string, v ...interface{}) *NegotiationError {
	return &NegotiationError{
		Message: fmt.Sprintf(format, v...),
	}
}

func (err *NegotiationError) Error() string {
	return fmt.Sprintf("client-server negotiation error: %s", err.Message)
}

// IsNegotiationError checks if the given error is a NegotiationError
func IsNegotiationError(err error) bool {
	return errors.Is(err, &NegotiationError{})
}

func (err *NegotiationError) Is(other error) bool {
	_, ok := other.(*NegotiationError)
	return ok
}

// AuthError is returned for invalid credentials or a bad challenge response.
type AuthError struct {
	Message string
}

// NewAuthError creates an AuthError
func NewAuthError(message string) *AuthError {
	return &AuthError{
		Message: message,
	}
}

// NewAuthErrorf creates an AuthError
func NewAuthErrorf(format string, v ...interface{}) *AuthError {
	return &AuthError{
		Message: fmt.Sprintf(format, v...),
	}
}

func (err *AuthError) Error() string {
	return fmt.Sprintf("authentication error: %s", err.Message)
}

// IsAuthError checks if the given error is an AuthError
func IsAuthError(err error) bool {
	return errors.Is(err, &AuthError{})
}

func (err *AuthError) Is(other error) bool {
	_, ok := other.(*AuthError)
	return ok
}

// FileNotFoundError is returned when a path or object is absent on the server.
type FileNotFoundError struct {
	Path string
}

// NewFileNotFoundError creates a FileNotFoundError
func NewFileNotFoundError(path string) *FileNotFoundError {
	return &FileNotFoundError{
		Path: path,
	}
}

func (err *FileNotFoundError) Error() string {
	return fmt.Sprintf("data object or collection not found for path %q", err.Path)
}

// IsFileNotFoundError checks if the given error is a FileNotFoundError
func IsFileNotFoundError(err error) bool {
	return errors.Is(err, &FileNotFoundError{})
}

func (err *FileNotFoundError) Is(other error) bool {
	_, ok := other.(*FileNotFoundError)
	return ok
}

// AlreadyExistsError is returned on a create collision (server code -809000
// and family).
type AlreadyExistsError struct {
	Path string
}

// NewAlreadyExistsError creates an AlreadyExistsError
func NewAlreadyExistsError(path string) *AlreadyExistsError {
	return &AlreadyExistsError{
		Path: path,
	}
}

func (err *AlreadyExistsError) Error() string {
	return fmt.Sprintf("data object or collection already exists for path %q", err.Path)
}

// IsAlreadyExistsError checks if the given error is an AlreadyExistsError
func IsAlreadyExistsError(err error) bool {
	return errors.Is(err, &AlreadyExistsError{})
}

func (err *AlreadyExistsError) Is(other error) bool {
	_, ok := other.(*AlreadyExistsError)
	return ok
}

// CollectionNotEmptyError is returned when removing a non-empty collection
// without recursion.
type CollectionNotEmptyError struct {
	Path string
}

// NewCollectionNotEmptyError creates a CollectionNotEmptyError
func NewCollectionNotEmptyError(path string) *CollectionNotEmptyError {
	return &CollectionNotEmptyError{
		Path: path,
	}
}

func (err *CollectionNotEmptyError) Error() string {
	return fmt.Sprintf("collection %q is not empty", err.Path)
}

// IsCollectionNotEmptyError checks if the given error is a CollectionNotEmptyError
func IsCollectionNotEmptyError(err error) bool {
	return errors.Is(err, &CollectionNotEmptyError{})
}

func (err *CollectionNotEmptyError) Is(other error) bool {
	_, ok := other.(*CollectionNotEmptyError)
	return ok
}

// PermissionDeniedError is returned on an ACL or policy reject.
type PermissionDeniedError struct {
	Path string
}

// NewPermissionDeniedError creates a PermissionDeniedError
func NewPermissionDeniedError(path string) *PermissionDeniedError {
	return &PermissionDeniedError{
		Path: path,
	}
}

func (err *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for path %q", err.Path)
}

// IsPermissionDeniedError checks if the given error is a PermissionDeniedError
func IsPermissionDeniedError(err error) bool {
	return errors.Is(err, &PermissionDeniedError{})
}

func (err *PermissionDeniedError) Is(other error) bool {
	_, ok := other.(*PermissionDeniedError)
	return ok
}

// DuplicateDataError is a caller-side logical collision, such as copying a
// collection into its own parent under the same name.
type DuplicateDataError struct {
	Message string
}

// NewDuplicateDataError creates a DuplicateDataError
func NewDuplicateDataError(message string) *DuplicateDataError {
	return &DuplicateDataError{
		Message: message,
	}
}

func (err *DuplicateDataError) Error() string {
	return fmt.Sprintf("duplicate data error: %s", err.Message)
}

// IsDuplicateDataError checks if the given error is a DuplicateDataError
func IsDuplicateDataError(err error) bool {
	return errors.Is(err, &DuplicateDataError{})
}

func (err *DuplicateDataError) Is(other error) bool {
	_, ok := other.(*DuplicateDataError)
	return ok
}

// NotSupportedError is returned for operations that are not representable on
// iRODS paths.
type NotSupportedError struct {
	Operation string
}

// NewNotSupportedError creates a NotSupportedError
func NewNotSupportedError(operation string) *NotSupportedError {
	return &NotSupportedError{
		Operation: operation,
	}
}

func (err *NotSupportedError) Error() string {
	return fmt.Sprintf("operation %q is not supported", err.Operation)
}

// IsNotSupportedError checks if the given error is a NotSupportedError
func IsNotSupportedError(err error) bool {
	return errors.Is(err, &NotSupportedError{})
}

func (err *NotSupportedError) Is(other error) bool {
	_, ok := other.(*NotSupportedError)
	return ok
}

// CancelledError is returned when cooperative cancellation is observed.
type CancelledError struct {
	Message string
}

// NewCancelledError creates a CancelledError
func NewCancelledError(message string) *CancelledError {
	return &CancelledError{
		Message: message,
	}
}

func (err *CancelledError) Error() string {
	return fmt.Sprintf("cancelled: %s", err.Message)
}

// IsCancelledError checks if the given error is a CancelledError
func IsCancelledError(err error) bool {
	return errors.Is(err, &CancelledError{})
}

func (err *CancelledError) Is(other error) bool {
	_, ok := other.(*CancelledError)
	return ok
}

// ProtocolError is returned for a well-formed but semantically invalid server
// response.
type ProtocolError struct {
	Message string
}

// NewProtocolError creates a ProtocolError
func NewProtocolError(message string) *ProtocolError {
	return &ProtocolError{
		Message: message,
	}
}

// NewProtocolErrorf creates a ProtocolError
func NewProtocolErrorf(format string, v ...interface{}) *ProtocolError {
	return &ProtocolError{
		Message: fmt.Sprintf(format, v...),
	}
}

func (err *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", err.Message)
}

// IsProtocolError checks if the given error is a ProtocolError
func IsProtocolError(err error) bool {
	return errors.Is(err, &ProtocolError{})
}

func (err *ProtocolError) Is(other error) bool {
	_, ok := other.(*ProtocolError)
	return ok
}

// InternalError is the single variant for true bugs and unexpected states.
type InternalError struct {
	Message string
}

// NewInternalError creates an InternalError
func NewInternalError(message string) *InternalError {
	return &InternalError{
		Message: message,
	}
}

func (err *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s", err.Message)
}

// IsInternalError checks if the given error is an InternalError
func IsInternalError(err error) bool {
	return errors.Is(err, &InternalError{})
}

func (err *InternalError) Is(other error) bool {
	_, ok := other.(*InternalError)
	return ok
}

// IsRecoverableError returns true for error classes worth one reconnect-and-retry.
func IsRecoverableError(err error) bool {
	return IsNetworkTimeoutError(err) || IsNetworkFailureError(err)
}
