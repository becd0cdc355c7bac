package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageOprComplete is the INT_PI payload of the OprComplete
// handshake. It carries the descriptor of the portal operation and releases
// the server-side put/get after a parallel data phase. Skipping it leaves
// the originating operation stuck on the server.
type IRODSMessageOprComplete struct {
	XMLName xml.Name `xml:"INT_PI"`
	Value   int      `xml:"myInt"`
}

// NewIRODSMessageOprComplete creates an IRODSMessageOprComplete for the
// given portal descriptor
func NewIRODSMessageOprComplete(fd int) *IRODSMessageOprComplete {
	return &IRODSMessageOprComplete{
		Value: fd,
	}
}

// GetBytes returns XML bytes
func (msg *IRODSMessageOprComplete) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal INT_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageOprComplete) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse INT_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageOprComplete) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(OPR_COMPLETE_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageEndTransactionRequest ends a transaction
type IRODSMessageEndTransactionRequest struct {
	XMLName xml.Name `xml:"endTransactionInp_PI"`
	Action  string   `xml:"arg0"`
	Arg1    string   `xml:"arg1"`
}

// NewIRODSMessageEndTransactionRequest creates an end-transaction request.
// commit selects commit over rollback.
func NewIRODSMessageEndTransactionRequest(commit bool) *IRODSMessageEndTransactionRequest {
	action := "rollback"
	if commit {
		action = "commit"
	}

	return &IRODSMessageEndTransactionRequest{
		Action: action,
	}
}

// GetBytes returns XML bytes
func (msg *IRODSMessageEndTransactionRequest) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal endTransactionInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageEndTransactionRequest) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse endTransactionInp_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageEndTransactionRequest) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(END_TRANSACTION_AN),
	}

	return MakeIRODSMessage(&body), nil
}

func init() {
	registerPackInstruction("INT_PI", func() IRODSMessageXML {
		return &IRODSMessageOprComplete{}
	})
	registerPackInstruction("endTransactionInp_PI", func() IRODSMessageXML {
		return &IRODSMessageEndTransactionRequest{}
	})
}
