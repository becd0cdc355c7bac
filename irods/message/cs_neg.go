package message

import (
	"encoding/xml"
	"fmt"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

const (
	// CSNegotiationUseSSL is the negotiation result selecting an encrypted channel
	CSNegotiationUseSSL string = "CS_NEG_USE_SSL"
	// CSNegotiationUseTCP is the negotiation result selecting plaintext
	CSNegotiationUseTCP string = "CS_NEG_USE_TCP"

	// negotiation status values
	csNegStatusSuccess int = 1
	csNegStatusFailure int = 0
)

// IRODSMessageCSNegotiation is the CS_NEG_PI payload exchanged after the
// startup pack. The server sends its stance; the client answers with the
// result of the policy matrix.
type IRODSMessageCSNegotiation struct {
	XMLName xml.Name `xml:"CS_NEG_PI"`
	Status  int      `xml:"status"`
	Result  string   `xml:"result"`
}

// NewIRODSMessageCSNegotiationResult creates the client reply carrying the
// matrix outcome
func NewIRODSMessageCSNegotiationResult(useSSL bool, failed bool) *IRODSMessageCSNegotiation {
	result := CSNegotiationUseTCP
	if useSSL {
		result = CSNegotiationUseSSL
	}

	status := csNegStatusSuccess
	if failed {
		status = csNegStatusFailure
	}

	return &IRODSMessageCSNegotiation{
		Status: status,
		Result: fmt.Sprintf("%s=%s;", CS_NEG_RESULT_KW, result),
	}
}

// GetServerPolicy parses the server stance out of the result field
func (neg *IRODSMessageCSNegotiation) GetServerPolicy() (types.CSNegotiationPolicy, error) {
	return types.GetCSNegotiationPolicy(neg.Result)
}

// GetBytes returns XML bytes
func (neg *IRODSMessageCSNegotiation) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(neg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal CS_NEG_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (neg *IRODSMessageCSNegotiation) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, neg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse CS_NEG_PI: %v", err)
	}
	return nil
}

// GetMessage frames the negotiation payload
func (neg *IRODSMessageCSNegotiation) GetMessage() (*IRODSMessage, error) {
	bytes, err := neg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_CS_NEG_T,
		Message: bytes,
		IntInfo: 0,
	}

	return MakeIRODSMessage(&body), nil
}

// FromMessage parses a negotiation frame
func (neg *IRODSMessageCSNegotiation) FromMessage(message *IRODSMessage) error {
	if message.Body == nil || len(message.Body.Message) == 0 {
		return types.NewWireFormatError("empty negotiation message")
	}

	return neg.FromBytes(message.Body.Message)
}

func init() {
	registerPackInstruction("CS_NEG_PI", func() IRODSMessageXML {
		return &IRODSMessageCSNegotiation{}
	})
}
