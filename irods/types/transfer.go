package types

import (
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// TransferType is a kind of bulk data movement operation
type TransferType string

const (
	// TransferTypePut uploads local files to iRODS
	TransferTypePut TransferType = "put"
	// TransferTypeGet downloads iRODS data objects to local files
	TransferTypeGet TransferType = "get"
	// TransferTypeCopy copies between iRODS paths
	TransferTypeCopy TransferType = "copy"
	// TransferTypeReplicate replicates a data object to another resource
	TransferTypeReplicate TransferType = "replicate"
	// TransferTypeMove renames or moves within iRODS
	TransferTypeMove TransferType = "move"
)

// TransferState is the state carried by a transfer status event
type TransferState string

const (
	// TransferStateOverallInitiation starts a whole transfer
	TransferStateOverallInitiation TransferState = "OVERALL_INITIATION"
	// TransferStateInProgress reports byte progress within a file
	TransferStateInProgress TransferState = "IN_PROGRESS"
	// TransferStateOverallCompletion ends a whole transfer
	TransferStateOverallCompletion TransferState = "OVERALL_COMPLETION"
	// TransferStateFailure reports a per-file failure
	TransferStateFailure TransferState = "FAILURE"
	// TransferStateSuccess reports a per-file completion
	TransferStateSuccess TransferState = "SUCCESS"
	// TransferStateRestarting reports a retry after a recoverable failure
	TransferStateRestarting TransferState = "RESTARTING"
	// TransferStateCancelled is the terminal state of a cancelled transfer
	TransferStateCancelled TransferState = "CANCELLED"
)

// IsTerminal returns true for states that end a whole transfer
func (state TransferState) IsTerminal() bool {
	switch state {
	case TransferStateOverallCompletion, TransferStateCancelled:
		return true
	default:
		return false
	}
}

// TransferStatus is an immutable snapshot handed to a status callback
type TransferStatus struct {
	Type           TransferType
	State          TransferState
	SourcePath     string
	TargetPath     string
	TargetResource string

	BytesTransferred int64
	BytesTotal       int64
	FilesTransferred int64
	FilesTotal       int64

	Host string
	Zone string

	Error error
}

// TransferStatusCallback receives transfer status events. Implementations
// must be safe for invocation from multiple goroutines.
type TransferStatusCallback func(status *TransferStatus)

// TransferOptions holds per-transfer tuning captured into a control block
type TransferOptions struct {
	Force            bool
	ComputeChecksum  bool
	VerifyChecksum   bool
	MaxThreads       int
	AllowRedirect    bool
	FailFast         bool
	SingleBufferSize int64
}

// TransferControlBlock is the shared mutable state of one transfer. The
// initiator and the orchestrator both hold it; byte and file counters are
// atomic, state transitions are guarded by the mutex.
type TransferControlBlock struct {
	id string

	cancelled atomic.Bool

	totalFiles       atomic.Int64
	transferredFiles atomic.Int64
	totalBytes       atomic.Int64
	transferredBytes atomic.Int64
	errorCount       atomic.Int64

	mutex   sync.Mutex
	options TransferOptions
}

// NewTransferControlBlock creates a TransferControlBlock with the given
// options
func NewTransferControlBlock(options TransferOptions) *TransferControlBlock {
	return &TransferControlBlock{
		id:      xid.New().String(),
		options: options,
	}
}

// GetID returns the transfer id
func (tcb *TransferControlBlock) GetID() string {
	return tcb.id
}

// GetOptions returns a copy of the transfer options
func (tcb *TransferControlBlock) GetOptions() TransferOptions {
	tcb.mutex.Lock()
	defer tcb.mutex.Unlock()

	return tcb.options
}

// SetOptions replaces the transfer options
func (tcb *TransferControlBlock) SetOptions(options TransferOptions) {
	tcb.mutex.Lock()
	defer tcb.mutex.Unlock()

	tcb.options = options
}

// Cancel requests cooperative cancellation
func (tcb *TransferControlBlock) Cancel() {
	tcb.cancelled.Store(true)
}

// Cancelled returns true once cancellation has been requested
func (tcb *TransferControlBlock) Cancelled() bool {
	return tcb.cancelled.Load()
}

// SetTotalFiles sets the expected file count
func (tcb *TransferControlBlock) SetTotalFiles(n int64) {
	tcb.totalFiles.Store(n)
}

// AddTotalFiles adds to the expected file count
func (tcb *TransferControlBlock) AddTotalFiles(n int64) {
	tcb.totalFiles.Add(n)
}

// GetTotalFiles returns the expected file count
func (tcb *TransferControlBlock) GetTotalFiles() int64 {
	return tcb.totalFiles.Load()
}

// IncrementTransferredFiles counts one completed file
func (tcb *TransferControlBlock) IncrementTransferredFiles() int64 {
	return tcb.transferredFiles.Add(1)
}

// GetTransferredFiles returns the completed file count
func (tcb *TransferControlBlock) GetTransferredFiles() int64 {
	return tcb.transferredFiles.Load()
}

// SetTotalBytes sets the expected byte count
func (tcb *TransferControlBlock) SetTotalBytes(n int64) {
	tcb.totalBytes.Store(n)
}

// AddTotalBytes adds to the expected byte count
func (tcb *TransferControlBlock) AddTotalBytes(n int64) {
	tcb.totalBytes.Add(n)
}

// GetTotalBytes returns the expected byte count
func (tcb *TransferControlBlock) GetTotalBytes() int64 {
	return tcb.totalBytes.Load()
}

// AddTransferredBytes counts transferred bytes
func (tcb *TransferControlBlock) AddTransferredBytes(n int64) int64 {
	return tcb.transferredBytes.Add(n)
}

// GetTransferredBytes returns the transferred byte count
func (tcb *TransferControlBlock) GetTransferredBytes() int64 {
	return tcb.transferredBytes.Load()
}

// IncrementErrorCount counts one per-file failure
func (tcb *TransferControlBlock) IncrementErrorCount() int64 {
	return tcb.errorCount.Add(1)
}

// GetErrorCount returns the per-file failure count
func (tcb *TransferControlBlock) GetErrorCount() int64 {
	return tcb.errorCount.Load()
}
