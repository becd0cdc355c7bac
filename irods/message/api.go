package message

import (
	"sort"

	"golang.org/x/xerrors"
)

// APINumber identifies a server API endpoint
type APINumber int32

const (
	// DATA_OBJ_OPEN_AN opens a data object
	DATA_OBJ_OPEN_AN APINumber = 602
	// DATA_OBJ_READ_AN reads from an opened data object
	DATA_OBJ_READ_AN APINumber = 603
	// DATA_OBJ_CREATE_AN creates a data object
	DATA_OBJ_CREATE_AN APINumber = 604
	// DATA_OBJ_LSEEK_AN seeks in an opened data object
	DATA_OBJ_LSEEK_AN APINumber = 674
	// DATA_OBJ_PUT_AN uploads a data object
	DATA_OBJ_PUT_AN APINumber = 606
	// DATA_OBJ_GET_AN downloads a data object
	DATA_OBJ_GET_AN APINumber = 608
	// DATA_OBJ_REPL_AN replicates a data object
	DATA_OBJ_REPL_AN APINumber = 610
	// DATA_OBJ_UNLINK_AN removes a data object
	DATA_OBJ_UNLINK_AN APINumber = 615
	// DATA_OBJ_CLOSE_AN closes an opened data object
	DATA_OBJ_CLOSE_AN APINumber = 673
	// DATA_OBJ_WRITE_AN writes to an opened data object
	DATA_OBJ_WRITE_AN APINumber = 676
	// DATA_OBJ_COPY_AN copies a data object
	DATA_OBJ_COPY_AN APINumber = 696
	// DATA_OBJ_RENAME_AN renames a data object or collection
	DATA_OBJ_RENAME_AN APINumber = 627
	// DATA_OBJ_PHYMV_AN physically moves a data object to another resource
	DATA_OBJ_PHYMV_AN APINumber = 697
	// COLL_CREATE_AN creates a collection
	COLL_CREATE_AN APINumber = 681
	// RM_COLL_AN removes a collection
	RM_COLL_AN APINumber = 679
	// OPR_COMPLETE_AN finishes a parallel data phase
	OPR_COMPLETE_AN APINumber = 626
	// END_TRANSACTION_AN ends a transaction
	END_TRANSACTION_AN APINumber = 698
	// AUTH_REQUEST_AN requests a native auth challenge
	AUTH_REQUEST_AN APINumber = 703
	// AUTH_RESPONSE_AN answers a native auth challenge
	AUTH_RESPONSE_AN APINumber = 704
	// GEN_QUERY_AN runs a general catalogue query
	GEN_QUERY_AN APINumber = 702
	// PAM_AUTH_REQUEST_AN requests a short-lived native password via PAM
	PAM_AUTH_REQUEST_AN APINumber = 725
	// SSL_START_AN restarts TLS on a connection
	SSL_START_AN APINumber = 1100
	// SSL_END_AN stops TLS on a connection
	SSL_END_AN APINumber = 1101
)

// IRODSMessageRequest is a pack-instruction that can be framed into a request
type IRODSMessageRequest interface {
	GetMessage() (*IRODSMessage, error)
}

// IRODSMessageResponse is a pack-instruction parsed from a response frame
type IRODSMessageResponse interface {
	FromMessage(message *IRODSMessage) error
}

// IRODSMessageXML is a pack-instruction payload that round-trips through its
// tag/value XML representation
type IRODSMessageXML interface {
	GetBytes() ([]byte, error)
	FromBytes(bytes []byte) error
}

// packInstructionRegistry maps pack-instruction names to factories. The
// registry drives decode: a payload is parsed by instantiating the schema
// registered under its name.
var packInstructionRegistry = map[string]func() IRODSMessageXML{}

// registerPackInstruction adds a pack-instruction schema factory to the
// registry. Called from init() of each schema file.
func registerPackInstruction(name string, factory func() IRODSMessageXML) {
	packInstructionRegistry[name] = factory
}

// NewPackInstruction instantiates the schema registered under the given name
func NewPackInstruction(name string) (IRODSMessageXML, error) {
	factory, ok := packInstructionRegistry[name]
	if !ok {
		return nil, xerrors.Errorf("unknown pack instruction %q", name)
	}

	return factory(), nil
}

// ListPackInstructionNames returns the registered pack-instruction names
func ListPackInstructionNames() []string {
	names := make([]string, 0, len(packInstructionRegistry))
	for name := range packInstructionRegistry {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
