package types

import (
	"fmt"
	"net/url"
	"time"
)

// ObjectType is a type of an entry in the iRODS namespace
type ObjectType string

const (
	// ObjectTypeDataObject is a data object (file)
	ObjectTypeDataObject ObjectType = "dataobject"
	// ObjectTypeCollection is a collection (directory)
	ObjectTypeCollection ObjectType = "collection"
	// ObjectTypeUnknown is an entry whose type has not been resolved yet
	ObjectTypeUnknown ObjectType = "unknown"
)

// IRODSEntry is a file or collection entry with its catalogue attributes
type IRODSEntry struct {
	Type       ObjectType
	ID         int64
	Path       string
	Name       string
	Size       int64
	Owner      string
	Resource   string
	Checksum   string
	CreateTime time.Time
	ModifyTime time.Time
}

// IsDir returns true if the entry is a collection
func (entry *IRODSEntry) IsDir() bool {
	return entry.Type == ObjectTypeCollection
}

// ToURL renders the entry as an irods:// URL for the given account
func (entry *IRODSEntry) ToURL(account *IRODSAccount) string {
	u := url.URL{
		Scheme: "irods",
		User:   url.User(account.ClientUser),
		Host:   fmt.Sprintf("%s:%d", account.Host, account.Port),
		Path:   entry.Path,
	}

	return u.String()
}

// FileOpenMode is the mode of a data object open
type FileOpenMode string

const (
	// FileOpenModeReadOnly opens for read
	FileOpenModeReadOnly FileOpenMode = "r"
	// FileOpenModeReadWrite opens for read and write
	FileOpenModeReadWrite FileOpenMode = "r+"
	// FileOpenModeWriteOnly opens for write, truncating
	FileOpenModeWriteOnly FileOpenMode = "w"
	// FileOpenModeWriteTruncate opens for read and write, truncating
	FileOpenModeWriteTruncate FileOpenMode = "w+"
	// FileOpenModeAppend opens for append
	FileOpenModeAppend FileOpenMode = "a"
	// FileOpenModeReadAppend opens for read and append
	FileOpenModeReadAppend FileOpenMode = "a+"
)

// open flags, matching POSIX values the server expects
const (
	flagReadOnly  int = 0
	flagWriteOnly int = 1
	flagReadWrite int = 2
	flagCreate    int = 0x200
	flagTruncate  int = 0x400
	flagAppend    int = 0x8
)

// GetFlag returns the open flag bits for the mode
func (mode FileOpenMode) GetFlag() int {
	switch mode {
	case FileOpenModeReadOnly:
		return flagReadOnly
	case FileOpenModeReadWrite:
		return flagReadWrite
	case FileOpenModeWriteOnly:
		return flagWriteOnly | flagCreate | flagTruncate
	case FileOpenModeWriteTruncate:
		return flagReadWrite | flagCreate | flagTruncate
	case FileOpenModeAppend:
		return flagWriteOnly | flagCreate | flagAppend
	case FileOpenModeReadAppend:
		return flagReadWrite | flagCreate | flagAppend
	default:
		return flagReadOnly
	}
}

// IsRead returns true if the mode allows read
func (mode FileOpenMode) IsRead() bool {
	switch mode {
	case FileOpenModeReadOnly, FileOpenModeReadWrite, FileOpenModeWriteTruncate, FileOpenModeReadAppend:
		return true
	default:
		return false
	}
}

// IsWrite returns true if the mode allows write
func (mode FileOpenMode) IsWrite() bool {
	return mode != FileOpenModeReadOnly
}

// Whence is the origin of a seek
type Whence int

const (
	// SeekSet seeks from the beginning of the data object
	SeekSet Whence = 0
	// SeekCur seeks from the current offset
	SeekCur Whence = 1
	// SeekEnd seeks from the end of the data object
	SeekEnd Whence = 2
)
