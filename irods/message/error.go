package message

import (
	"encoding/xml"
	"strings"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageRErrMsg is one RErrMsg_PI entry of an error stack
type IRODSMessageRErrMsg struct {
	XMLName xml.Name `xml:"RErrMsg_PI"`
	Status  int      `xml:"status"`
	Message string   `xml:"msg"`
}

// IRODSMessageRError is the RError_PI error-info blob a response frame may
// carry alongside its body
type IRODSMessageRError struct {
	XMLName xml.Name              `xml:"RError_PI"`
	Count   int                   `xml:"count"`
	Errors  []IRODSMessageRErrMsg `xml:"RErrMsg_PI"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageRError) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal RError_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageRError) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse RError_PI: %v", err)
	}
	return nil
}

// String flattens the error stack to one line
func (msg *IRODSMessageRError) String() string {
	messages := make([]string, 0, len(msg.Errors))
	for _, errMsg := range msg.Errors {
		messages = append(messages, errMsg.Message)
	}

	return strings.Join(messages, "; ")
}

func init() {
	registerPackInstruction("RError_PI", func() IRODSMessageXML {
		return &IRODSMessageRError{}
	})
}
