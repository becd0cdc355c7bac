package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessagePamAuthRequest is the pamAuthRequestInp_PI payload. Sent only
// over an encrypted channel.
type IRODSMessagePamAuthRequest struct {
	XMLName    xml.Name `xml:"pamAuthRequestInp_PI"`
	PamUser    string   `xml:"pamUser"`
	PamPassword string  `xml:"pamPassword"`
	TimeToLive int      `xml:"timeToLive"`
}

// NewIRODSMessagePamAuthRequest creates an IRODSMessagePamAuthRequest. TTL
// is in hours.
func NewIRODSMessagePamAuthRequest(user string, password string, ttl int) *IRODSMessagePamAuthRequest {
	return &IRODSMessagePamAuthRequest{
		PamUser:    user,
		PamPassword: password,
		TimeToLive: ttl,
	}
}

// GetBytes returns XML bytes
func (msg *IRODSMessagePamAuthRequest) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal pamAuthRequestInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessagePamAuthRequest) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse pamAuthRequestInp_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessagePamAuthRequest) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(PAM_AUTH_REQUEST_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessagePamAuthResponse is the pamAuthRequestOut_PI payload carrying
// the short-lived native password
type IRODSMessagePamAuthResponse struct {
	XMLName            xml.Name `xml:"pamAuthRequestOut_PI"`
	GeneratedPassword  string   `xml:"irodsPamPassword"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessagePamAuthResponse) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal pamAuthRequestOut_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessagePamAuthResponse) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse pamAuthRequestOut_PI: %v", err)
	}
	return nil
}

// FromMessage parses a response frame
func (msg *IRODSMessagePamAuthResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty pam auth response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "pam authentication failed")
	}

	if len(message.Body.Message) == 0 {
		return types.NewWireFormatError("pam auth response without password")
	}

	return msg.FromBytes(message.Body.Message)
}

func init() {
	registerPackInstruction("pamAuthRequestInp_PI", func() IRODSMessageXML {
		return &IRODSMessagePamAuthRequest{}
	})
	registerPackInstruction("pamAuthRequestOut_PI", func() IRODSMessageXML {
		return &IRODSMessagePamAuthResponse{}
	})
}
