package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageOpenedDataObjInp is the OpenedDataObjInp_PI payload shared by
// the read, write, seek and close requests on an open descriptor
type IRODSMessageOpenedDataObjInp struct {
	XMLName        xml.Name             `xml:"OpenedDataObjInp_PI"`
	FileDescriptor int                  `xml:"l1descInx"`
	Size           int64                `xml:"len"`
	Whence         int                  `xml:"whence"`
	OperType       OperationType        `xml:"oprType"`
	Offset         int64                `xml:"offset"`
	BytesWritten   int64                `xml:"bytesWritten"`
	KeyVals        IRODSMessageSSKeyVal `xml:"KeyValPair_PI"`
}

func newIRODSMessageOpenedDataObjInp(fd int) *IRODSMessageOpenedDataObjInp {
	return &IRODSMessageOpenedDataObjInp{
		FileDescriptor: fd,
		KeyVals:        *NewIRODSMessageSSKeyVal(),
	}
}

// GetBytes returns XML bytes
func (msg *IRODSMessageOpenedDataObjInp) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal OpenedDataObjInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageOpenedDataObjInp) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse OpenedDataObjInp_PI: %v", err)
	}
	return nil
}

func (msg *IRODSMessageOpenedDataObjInp) apiRequest(apiNumber APINumber, bs []byte) (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		Bs:      bs,
		IntInfo: int32(apiNumber),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageReadDataObjRequest reads from an open descriptor. The reply
// carries the data in the bs part.
type IRODSMessageReadDataObjRequest struct {
	IRODSMessageOpenedDataObjInp
}

// NewIRODSMessageReadDataObjRequest creates a read request
func NewIRODSMessageReadDataObjRequest(fd int, length int64) *IRODSMessageReadDataObjRequest {
	request := &IRODSMessageReadDataObjRequest{
		IRODSMessageOpenedDataObjInp: *newIRODSMessageOpenedDataObjInp(fd),
	}
	request.Size = length

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageReadDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_READ_AN, nil)
}

// IRODSMessageReadDataObjResponse carries read bytes and count
type IRODSMessageReadDataObjResponse struct {
	ReadLength int
	Data       []byte
}

// FromMessage parses a response frame
func (msg *IRODSMessageReadDataObjResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty read response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "data object read failed")
	}

	msg.ReadLength = int(message.Body.IntInfo)
	msg.Data = message.Body.Bs
	return nil
}

// IRODSMessageWriteDataObjRequest writes the bs payload to an open descriptor
type IRODSMessageWriteDataObjRequest struct {
	IRODSMessageOpenedDataObjInp
	bs []byte
}

// NewIRODSMessageWriteDataObjRequest creates a write request
func NewIRODSMessageWriteDataObjRequest(fd int, data []byte) *IRODSMessageWriteDataObjRequest {
	request := &IRODSMessageWriteDataObjRequest{
		IRODSMessageOpenedDataObjInp: *newIRODSMessageOpenedDataObjInp(fd),
		bs:                           data,
	}
	request.Size = int64(len(data))

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageWriteDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_WRITE_AN, msg.bs)
}

// IRODSMessageSeekDataObjRequest seeks in an open descriptor
type IRODSMessageSeekDataObjRequest struct {
	IRODSMessageOpenedDataObjInp
}

// NewIRODSMessageSeekDataObjRequest creates a seek request
func NewIRODSMessageSeekDataObjRequest(fd int, offset int64, whence types.Whence) *IRODSMessageSeekDataObjRequest {
	request := &IRODSMessageSeekDataObjRequest{
		IRODSMessageOpenedDataObjInp: *newIRODSMessageOpenedDataObjInp(fd),
	}
	request.Offset = offset
	request.Whence = int(whence)

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageSeekDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_LSEEK_AN, nil)
}

// IRODSMessageSeekDataObjResponse is the fileLseekOut_PI reply carrying the
// new offset
type IRODSMessageSeekDataObjResponse struct {
	XMLName xml.Name `xml:"fileLseekOut_PI"`
	Offset  int64    `xml:"offset"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageSeekDataObjResponse) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal fileLseekOut_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageSeekDataObjResponse) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse fileLseekOut_PI: %v", err)
	}
	return nil
}

// FromMessage parses a response frame
func (msg *IRODSMessageSeekDataObjResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty seek response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "data object seek failed")
	}

	return msg.FromBytes(message.Body.Message)
}

// IRODSMessageCloseDataObjRequest closes an open descriptor
type IRODSMessageCloseDataObjRequest struct {
	IRODSMessageOpenedDataObjInp
}

// NewIRODSMessageCloseDataObjRequest creates a close request
func NewIRODSMessageCloseDataObjRequest(fd int) *IRODSMessageCloseDataObjRequest {
	return &IRODSMessageCloseDataObjRequest{
		IRODSMessageOpenedDataObjInp: *newIRODSMessageOpenedDataObjInp(fd),
	}
}

// GetMessage frames the request
func (msg *IRODSMessageCloseDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_CLOSE_AN, nil)
}

func init() {
	registerPackInstruction("OpenedDataObjInp_PI", func() IRODSMessageXML {
		return &IRODSMessageOpenedDataObjInp{}
	})
	registerPackInstruction("fileLseekOut_PI", func() IRODSMessageXML {
		return &IRODSMessageSeekDataObjResponse{}
	})
}
