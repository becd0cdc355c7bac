package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageVersion is the Version_PI payload the server answers connect
// and negotiation with
type IRODSMessageVersion struct {
	XMLName        xml.Name `xml:"Version_PI"`
	Status         int      `xml:"status"`
	ReleaseVersion string   `xml:"relVersion"`
	APIVersion     string   `xml:"apiVersion"`
	ReconnectPort  int      `xml:"reconnPort"`
	ReconnectAddr  string   `xml:"reconnAddr"`
	Cookie         int      `xml:"cookie"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageVersion) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal Version_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageVersion) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse Version_PI: %v", err)
	}
	return nil
}

// FromMessage parses a response frame
func (msg *IRODSMessageVersion) FromMessage(message *IRODSMessage) error {
	if message.Body == nil || len(message.Body.Message) == 0 {
		return types.NewWireFormatError("empty version response")
	}

	err := msg.FromBytes(message.Body.Message)
	if err != nil {
		return err
	}

	if msg.Status < 0 {
		return types.TranslateError(types.ErrorCode(msg.Status), "server rejected connection")
	}

	return nil
}

// GetVersion converts to types.IRODSVersion
func (msg *IRODSMessageVersion) GetVersion() *types.IRODSVersion {
	return &types.IRODSVersion{
		ReleaseVersion: msg.ReleaseVersion,
		APIVersion:     msg.APIVersion,
		ReconnectPort:  msg.ReconnectPort,
		ReconnectAddr:  msg.ReconnectAddr,
		Cookie:         msg.Cookie,
	}
}

func init() {
	registerPackInstruction("Version_PI", func() IRODSMessageXML {
		return &IRODSMessageVersion{}
	})
}
