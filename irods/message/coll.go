package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageMakeCollRequest is the CollInpNew_PI payload creating a
// collection
type IRODSMessageMakeCollRequest struct {
	XMLName xml.Name             `xml:"CollInpNew_PI"`
	Name    string               `xml:"collName"`
	Flags   int                  `xml:"flags"`
	OprType OperationType        `xml:"oprType"`
	KeyVals IRODSMessageSSKeyVal `xml:"KeyValPair_PI"`
}

// NewIRODSMessageMakeCollRequest creates a mkdir request. When recurse is
// set the server creates missing intermediate collections.
func NewIRODSMessageMakeCollRequest(path string, recurse bool) *IRODSMessageMakeCollRequest {
	request := &IRODSMessageMakeCollRequest{
		Name:    path,
		KeyVals: *NewIRODSMessageSSKeyVal(),
	}

	if recurse {
		request.KeyVals.Add(RECURSIVE_OPR_KW, "")
	}

	return request
}

// GetBytes returns XML bytes
func (msg *IRODSMessageMakeCollRequest) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal CollInpNew_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageMakeCollRequest) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse CollInpNew_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageMakeCollRequest) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(COLL_CREATE_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageRmCollRequest is the CollInpNew_PI payload removing a
// collection
type IRODSMessageRmCollRequest struct {
	XMLName xml.Name             `xml:"CollInpNew_PI"`
	Name    string               `xml:"collName"`
	Flags   int                  `xml:"flags"`
	OprType OperationType        `xml:"oprType"`
	KeyVals IRODSMessageSSKeyVal `xml:"KeyValPair_PI"`
}

// NewIRODSMessageRmCollRequest creates a collection remove request
func NewIRODSMessageRmCollRequest(path string, recurse bool, force bool) *IRODSMessageRmCollRequest {
	request := &IRODSMessageRmCollRequest{
		Name:    path,
		KeyVals: *NewIRODSMessageSSKeyVal(),
	}

	if recurse {
		request.KeyVals.Add(RECURSIVE_OPR_KW, "")
	}

	if force {
		request.KeyVals.Add(FORCE_FLAG_KW, "")
	}

	return request
}

// GetBytes returns XML bytes
func (msg *IRODSMessageRmCollRequest) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal CollInpNew_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageRmCollRequest) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse CollInpNew_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageRmCollRequest) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(RM_COLL_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageCollOprStatResponse is the CollOprStat_PI reply some
// collection operations report progress with
type IRODSMessageCollOprStatResponse struct {
	XMLName       xml.Name `xml:"CollOprStat_PI"`
	FilesCount    int      `xml:"filesCnt"`
	TotalFiles    int      `xml:"totalFileCnt"`
	BytesWritten  int64    `xml:"bytesWritten"`
	LastObjisPath string   `xml:"lastObjPath"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageCollOprStatResponse) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal CollOprStat_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageCollOprStatResponse) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse CollOprStat_PI: %v", err)
	}
	return nil
}

// FromMessage parses a response frame. The reply may be empty when the
// server has nothing to report.
func (msg *IRODSMessageCollOprStatResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty collection operation response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "collection operation failed")
	}

	if len(message.Body.Message) > 0 {
		return msg.FromBytes(message.Body.Message)
	}

	return nil
}

func init() {
	registerPackInstruction("CollInpNew_PI", func() IRODSMessageXML {
		return &IRODSMessageMakeCollRequest{}
	})
	registerPackInstruction("CollOprStat_PI", func() IRODSMessageXML {
		return &IRODSMessageCollOprStatResponse{}
	})
}
