package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessagePortList is the PortList_PI payload describing one parallel
// transfer endpoint
type IRODSMessagePortList struct {
	XMLName    xml.Name `xml:"PortList_PI"`
	Port       int      `xml:"portNum"`
	Cookie     int32    `xml:"cookie"`
	ServerSock int      `xml:"sock"`
	WindowSize int      `xml:"windowSize"`
	HostAddr   string   `xml:"hostAddr"`
}

// IRODSMessagePortalOprResponse is the PortalOprOut_PI reply of a put/get
// that requires a parallel data phase
type IRODSMessagePortalOprResponse struct {
	XMLName        xml.Name               `xml:"PortalOprOut_PI"`
	Status         int                    `xml:"status"`
	FileDescriptor int                    `xml:"l1descInx"`
	Threads        int                    `xml:"numThreads"`
	Checksum       string                 `xml:"chksum"`
	PortList       []IRODSMessagePortList `xml:"PortList_PI"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessagePortalOprResponse) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal PortalOprOut_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessagePortalOprResponse) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse PortalOprOut_PI: %v", err)
	}
	return nil
}

// FromMessage parses a response frame
func (msg *IRODSMessagePortalOprResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty portal operation response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "portal operation failed")
	}

	if len(message.Body.Message) == 0 {
		return types.NewWireFormatError("portal operation response without port list")
	}

	return msg.FromBytes(message.Body.Message)
}

// UsesParallelTransfer returns true when the server handed out a data-phase
// port list instead of finishing in-band
func (msg *IRODSMessagePortalOprResponse) UsesParallelTransfer() bool {
	return msg.Threads > 0 && len(msg.PortList) > 0
}

func init() {
	registerPackInstruction("PortList_PI", func() IRODSMessageXML {
		return &portListXML{}
	})
	registerPackInstruction("PortalOprOut_PI", func() IRODSMessageXML {
		return &IRODSMessagePortalOprResponse{}
	})
}

// portListXML adapts IRODSMessagePortList to the registry interface
type portListXML struct {
	IRODSMessagePortList
}

func (msg *portListXML) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(&msg.IRODSMessagePortList)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal PortList_PI: %v", err)
	}
	return xmlBytes, nil
}

func (msg *portListXML) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, &msg.IRODSMessagePortList)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse PortList_PI: %v", err)
	}
	return nil
}
