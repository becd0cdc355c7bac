package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageAuthRequest asks the server for a native auth challenge. The
// request body is empty.
type IRODSMessageAuthRequest struct {
}

// NewIRODSMessageAuthRequest creates an IRODSMessageAuthRequest
func NewIRODSMessageAuthRequest() *IRODSMessageAuthRequest {
	return &IRODSMessageAuthRequest{}
}

// GetMessage frames the request
func (msg *IRODSMessageAuthRequest) GetMessage() (*IRODSMessage, error) {
	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		IntInfo: int32(AUTH_REQUEST_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageAuthChallengeResponse is the authRequestOut_PI payload
// carrying the server challenge
type IRODSMessageAuthChallengeResponse struct {
	XMLName   xml.Name `xml:"authRequestOut_PI"`
	Challenge string   `xml:"challenge"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageAuthChallengeResponse) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal authRequestOut_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageAuthChallengeResponse) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse authRequestOut_PI: %v", err)
	}
	return nil
}

// FromMessage parses a response frame
func (msg *IRODSMessageAuthChallengeResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty auth challenge response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "auth request rejected")
	}

	if len(message.Body.Message) == 0 {
		return types.NewWireFormatError("auth challenge response without challenge")
	}

	return msg.FromBytes(message.Body.Message)
}

// IRODSMessageAuthResponse is the authResponseInp_PI payload answering the
// challenge
type IRODSMessageAuthResponse struct {
	XMLName  xml.Name `xml:"authResponseInp_PI"`
	Response string   `xml:"response"`
	Username string   `xml:"username"`
}

// NewIRODSMessageAuthResponse creates an IRODSMessageAuthResponse. The
// username field carries user#zone.
func NewIRODSMessageAuthResponse(response string, username string) *IRODSMessageAuthResponse {
	return &IRODSMessageAuthResponse{
		Response: response,
		Username: username,
	}
}

// GetBytes returns XML bytes
func (msg *IRODSMessageAuthResponse) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal authResponseInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageAuthResponse) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse authResponseInp_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageAuthResponse) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(AUTH_RESPONSE_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageAuthResult is the (empty) reply to an auth response. A
// negative intInfo means the credentials were rejected.
type IRODSMessageAuthResult struct {
	Result int32
}

// FromMessage parses a response frame
func (msg *IRODSMessageAuthResult) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty auth result")
	}

	msg.Result = message.Body.IntInfo
	if msg.Result < 0 {
		return types.TranslateError(types.ErrorCode(msg.Result), "authentication failed")
	}

	return nil
}

func init() {
	registerPackInstruction("authRequestOut_PI", func() IRODSMessageXML {
		return &IRODSMessageAuthChallengeResponse{}
	})
	registerPackInstruction("authResponseInp_PI", func() IRODSMessageXML {
		return &IRODSMessageAuthResponse{}
	})
}
