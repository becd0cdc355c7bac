package fs

import (
	"fmt"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cyverse/go-irodsgrid/irods/connection"
	"github.com/cyverse/go-irodsgrid/irods/message"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSFile is a path-centric entity over one data object or collection.
// A file entity is exclusively owned by the thread that created it and the
// connection it references. A descriptor greater than zero means the
// server-side stream is open and must be closed exactly once.
type IRODSFile struct {
	filesystem *FileSystem
	path       *IRODSPath

	// caller-set resource override. GetResource returns only this value;
	// the resource a replica actually lives on needs a catalogue query.
	resource string

	// lazily-populated stat cache, dropped by Reset and by mutations
	entry *types.IRODSEntry

	fd       int
	conn     *connection.IRODSConnection
	openMode types.FileOpenMode
	offset   int64
}

// NewIRODSFile creates an IRODSFile. A relative path is resolved against
// the account's home directory.
func NewIRODSFile(filesystem *FileSystem, path string) *IRODSFile {
	return &IRODSFile{
		filesystem: filesystem,
		path:       filesystem.canonicalize(path),

		fd: -1,
	}
}

// GetPath returns the canonical absolute path
func (file *IRODSFile) GetPath() string {
	return file.path.String()
}

// GetName returns the leaf name
func (file *IRODSFile) GetName() string {
	return file.path.Name()
}

// GetParent returns the parent entity
func (file *IRODSFile) GetParent() *IRODSFile {
	return NewIRODSFile(file.filesystem, file.path.Parent().String())
}

// ToURL renders the entity as an irods:// URL
func (file *IRODSFile) ToURL() string {
	account := file.filesystem.GetAccount()

	u := url.URL{
		Scheme: "irods",
		User:   url.User(account.ClientUser),
		Host:   fmt.Sprintf("%s:%d", account.Host, account.Port),
		Path:   file.path.String(),
	}

	return u.String()
}

// Reset drops the cached stat state
func (file *IRODSFile) Reset() {
	file.entry = nil
	file.filesystem.invalidateCachePath(file.path.String())
}

// stat populates the entity cache lazily
func (file *IRODSFile) stat() (*types.IRODSEntry, error) {
	if file.entry != nil {
		return file.entry, nil
	}

	entry, err := file.filesystem.Stat(file.path.String())
	if err != nil {
		return nil, err
	}

	file.entry = entry
	return entry, nil
}

// Exists returns true when the path resolves. Not-found is false, never an
// error.
func (file *IRODSFile) Exists() bool {
	entry, err := file.stat()
	return err == nil && entry != nil
}

// IsFile returns true for a data object
func (file *IRODSFile) IsFile() bool {
	entry, err := file.stat()
	return err == nil && entry != nil && entry.Type == types.ObjectTypeDataObject
}

// IsDir returns true for a collection
func (file *IRODSFile) IsDir() bool {
	entry, err := file.stat()
	return err == nil && entry != nil && entry.Type == types.ObjectTypeCollection
}

// Length returns the data object size, 0 when the path does not resolve
func (file *IRODSFile) Length() int64 {
	entry, err := file.stat()
	if err != nil || entry == nil {
		return 0
	}

	return entry.Size
}

// LastModified returns the modify time, the zero time when the path does
// not resolve
func (file *IRODSFile) LastModified() time.Time {
	entry, err := file.stat()
	if err != nil || entry == nil {
		return time.Time{}
	}

	return entry.ModifyTime
}

// ListChildren lists the entries under a collection
func (file *IRODSFile) ListChildren() ([]*types.IRODSEntry, error) {
	return file.filesystem.List(file.path.String())
}

// MakeDir creates the collection. Returns false when it already exists;
// with recurse, missing parents are created.
func (file *IRODSFile) MakeDir(recurse bool) (bool, error) {
	created, err := file.filesystem.MakeDir(file.path.String(), recurse)
	file.entry = nil
	return created, err
}

// Delete removes the entity, recursing into collections
func (file *IRODSFile) Delete(force bool) error {
	entry, err := file.stat()
	if err != nil {
		return err
	}

	if entry.Type == types.ObjectTypeCollection {
		err = file.filesystem.RemoveDir(file.path.String(), true, force)
	} else {
		err = file.filesystem.RemoveFile(file.path.String(), force)
	}

	file.entry = nil
	return err
}

// Rename renames the entity to the target path. Renaming to the identical
// path is a no-op and succeeds.
func (file *IRODSFile) Rename(targetPath string) error {
	target := file.filesystem.canonicalize(targetPath)
	if file.path.Equals(target) {
		return nil
	}

	entry, err := file.stat()
	if err != nil {
		return err
	}

	if entry.Type == types.ObjectTypeCollection {
		err = file.filesystem.RenameDir(file.path.String(), target.String())
	} else {
		err = file.filesystem.RenameFile(file.path.String(), target.String())
	}
	if err != nil {
		return err
	}

	file.path = target
	file.entry = nil
	return nil
}

// PhysicalMove moves the data object replicas to another resource
func (file *IRODSFile) PhysicalMove(resource string) error {
	err := file.filesystem.PhysicalMove(file.path.String(), resource)
	file.entry = nil
	return err
}

// GetResource returns the caller-set resource override. The server-side
// resolved resource is never queried here.
func (file *IRODSFile) GetResource() string {
	return file.resource
}

// SetResource sets the resource override used by open and create
func (file *IRODSFile) SetResource(resource string) {
	file.resource = resource
}

// IsOpen returns true while a server-side descriptor is held
func (file *IRODSFile) IsOpen() bool {
	return file.fd > 0
}

// GetFileDescriptor returns the server-side descriptor, -1 when closed
func (file *IRODSFile) GetFileDescriptor() int {
	return file.fd
}

// Open opens the data object, binding a connection exclusively to the
// entity until Close
func (file *IRODSFile) Open(mode types.FileOpenMode) error {
	logger := log.WithFields(log.Fields{
		"package":  "fs",
		"struct":   "IRODSFile",
		"function": "Open",
	})

	if file.IsOpen() {
		return types.NewInternalError(fmt.Sprintf("data object %q is already open", file.path.String()))
	}

	conn, err := file.filesystem.acquireConnection()
	if err != nil {
		return err
	}

	resource := file.resource
	if len(resource) == 0 {
		resource = file.filesystem.GetAccount().DefaultResource
	}

	request := message.NewIRODSMessageOpenDataObjRequest(file.path.String(), resource, mode)
	response := message.IRODSMessageFileDescriptorResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		file.filesystem.returnConnection(conn)
		return err
	}

	logger.Debugf("opened data object %q with descriptor %d", file.path.String(), response.FileDescriptor)

	file.fd = response.FileDescriptor
	file.conn = conn
	file.openMode = mode
	file.offset = 0

	if mode.IsWrite() {
		file.entry = nil
		file.filesystem.invalidateCachePath(file.path.String())
	}

	return nil
}

// Create creates the data object and opens it for write
func (file *IRODSFile) Create(force bool) error {
	if file.IsOpen() {
		return types.NewInternalError(fmt.Sprintf("data object %q is already open", file.path.String()))
	}

	conn, err := file.filesystem.acquireConnection()
	if err != nil {
		return err
	}

	resource := file.resource
	if len(resource) == 0 {
		resource = file.filesystem.GetAccount().DefaultResource
	}

	request := message.NewIRODSMessageCreateDataObjRequest(file.path.String(), resource, force)
	response := message.IRODSMessageFileDescriptorResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		file.filesystem.returnConnection(conn)
		return err
	}

	file.fd = response.FileDescriptor
	file.conn = conn
	file.openMode = types.FileOpenModeWriteOnly
	file.offset = 0

	file.entry = nil
	file.filesystem.invalidateCachePath(file.path.String())

	return nil
}

// Read reads up to length bytes from the current offset
func (file *IRODSFile) Read(length int64) ([]byte, error) {
	if !file.IsOpen() {
		return nil, types.NewInternalError("read on a closed data object")
	}

	request := message.NewIRODSMessageReadDataObjRequest(file.fd, length)
	response := message.IRODSMessageReadDataObjResponse{}
	err := file.conn.Request(request, &response)
	if err != nil {
		return nil, err
	}

	file.offset += int64(response.ReadLength)

	if int64(len(response.Data)) > int64(response.ReadLength) {
		return response.Data[:response.ReadLength], nil
	}

	return response.Data, nil
}

// Write writes the bytes at the current offset
func (file *IRODSFile) Write(data []byte) error {
	if !file.IsOpen() {
		return types.NewInternalError("write on a closed data object")
	}

	request := message.NewIRODSMessageWriteDataObjRequest(file.fd, data)
	response := message.IRODSMessageEmptyResponse{}
	err := file.conn.Request(request, &response)
	if err != nil {
		return err
	}

	file.offset += int64(len(data))
	file.entry = nil
	return nil
}

// Seek moves the stream offset
func (file *IRODSFile) Seek(offset int64, whence types.Whence) (int64, error) {
	if !file.IsOpen() {
		return 0, types.NewInternalError("seek on a closed data object")
	}

	request := message.NewIRODSMessageSeekDataObjRequest(file.fd, offset, whence)
	response := message.IRODSMessageSeekDataObjResponse{}
	err := file.conn.Request(request, &response)
	if err != nil {
		return 0, err
	}

	file.offset = response.Offset
	return response.Offset, nil
}

// Close closes the server-side stream and returns the connection. The
// descriptor is closed at most once on the wire; closing a closed entity is
// a no-op.
func (file *IRODSFile) Close() error {
	if !file.IsOpen() {
		return nil
	}

	request := message.NewIRODSMessageCloseDataObjRequest(file.fd)
	response := message.IRODSMessageEmptyResponse{}
	err := file.conn.Request(request, &response)

	file.filesystem.returnConnection(file.conn)
	file.conn = nil
	file.fd = -1

	if file.openMode.IsWrite() {
		file.entry = nil
		file.filesystem.invalidateCachePath(file.path.String())
	}

	return err
}

// operations inherited from a host filesystem abstraction that iRODS paths
// cannot represent

// SetExecutable is not representable on iRODS paths
func (file *IRODSFile) SetExecutable(executable bool) error {
	return types.NewNotSupportedError("SetExecutable")
}

// SetReadable is not representable on iRODS paths
func (file *IRODSFile) SetReadable(readable bool) error {
	return types.NewNotSupportedError("SetReadable")
}

// SetWritable is not representable on iRODS paths
func (file *IRODSFile) SetWritable(writable bool) error {
	return types.NewNotSupportedError("SetWritable")
}

// SetLastModified is not representable on iRODS paths
func (file *IRODSFile) SetLastModified(t time.Time) error {
	return types.NewNotSupportedError("SetLastModified")
}

// DeleteOnExit is not representable on iRODS paths
func (file *IRODSFile) DeleteOnExit() error {
	return types.NewNotSupportedError("DeleteOnExit")
}

// GetFreeSpace is not representable on iRODS paths
func (file *IRODSFile) GetFreeSpace() (int64, error) {
	return 0, types.NewNotSupportedError("GetFreeSpace")
}

// GetTotalSpace is not representable on iRODS paths
func (file *IRODSFile) GetTotalSpace() (int64, error) {
	return 0, types.NewNotSupportedError("GetTotalSpace")
}

// GetUsableSpace is not representable on iRODS paths
func (file *IRODSFile) GetUsableSpace() (int64, error) {
	return 0, types.NewNotSupportedError("GetUsableSpace")
}
