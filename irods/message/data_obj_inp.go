package message

import (
	"encoding/xml"
	"strconv"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// OperationType is the oprType field of a data object request
type OperationType int

const (
	// OPR_TYPE_NONE is no operation
	OPR_TYPE_NONE OperationType = 0
	// OPR_TYPE_PUT is a put
	OPR_TYPE_PUT OperationType = 1
	// OPR_TYPE_GET is a get
	OPR_TYPE_GET OperationType = 2
	// OPR_TYPE_PHYMV is a physical move
	OPR_TYPE_PHYMV OperationType = 5
	// OPR_TYPE_REPLICATE is a replication
	OPR_TYPE_REPLICATE OperationType = 6
	// OPR_TYPE_COPY_DEST marks the destination of a copy
	OPR_TYPE_COPY_DEST OperationType = 9
	// OPR_TYPE_COPY_SRC marks the source of a copy
	OPR_TYPE_COPY_SRC OperationType = 10
	// OPR_TYPE_RENAME_DATA_OBJ renames a data object
	OPR_TYPE_RENAME_DATA_OBJ OperationType = 11
	// OPR_TYPE_RENAME_COLL renames a collection
	OPR_TYPE_RENAME_COLL OperationType = 12
)

// IRODSMessageDataObjInp is the DataObjInp_PI payload shared by the open,
// create, put, get, replicate, unlink and physical-move requests
type IRODSMessageDataObjInp struct {
	XMLName    xml.Name              `xml:"DataObjInp_PI"`
	Path       string                `xml:"objPath"`
	CreateMode int                   `xml:"createMode"`
	OpenFlags  int                   `xml:"openFlags"`
	Offset     int64                 `xml:"offset"`
	Size       int64                 `xml:"dataSize"`
	Threads    int                   `xml:"numThreads"`
	OperType   OperationType         `xml:"oprType"`
	KeyVals    IRODSMessageSSKeyVal  `xml:"KeyValPair_PI"`
}

// NewIRODSMessageDataObjInp creates an IRODSMessageDataObjInp
func NewIRODSMessageDataObjInp(path string, operType OperationType) *IRODSMessageDataObjInp {
	return &IRODSMessageDataObjInp{
		Path:     path,
		OperType: operType,
		KeyVals:  *NewIRODSMessageSSKeyVal(),
	}
}

// GetBytes returns XML bytes
func (msg *IRODSMessageDataObjInp) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal DataObjInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageDataObjInp) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse DataObjInp_PI: %v", err)
	}
	return nil
}

// apiRequest frames the payload for the given api number, with an optional
// outgoing bs blob
func (msg *IRODSMessageDataObjInp) apiRequest(apiNumber APINumber, bs []byte) (*IRODSMessage, error) {
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

// IRODSMessageOpenDataObjRequest opens a data object
type IRODSMessageOpenDataObjRequest struct {
	IRODSMessageDataObjInp
}

// NewIRODSMessageOpenDataObjRequest creates an open request
func NewIRODSMessageOpenDataObjRequest(path string, resource string, mode types.FileOpenMode) *IRODSMessageOpenDataObjRequest {
	request := &IRODSMessageOpenDataObjRequest{
		IRODSMessageDataObjInp: *NewIRODSMessageDataObjInp(path, OPR_TYPE_NONE),
	}
	request.OpenFlags = mode.GetFlag()

	if len(resource) > 0 {
		request.KeyVals.Add(RESC_NAME_KW, resource)
	}

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageOpenDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_OPEN_AN, nil)
}

// IRODSMessageCreateDataObjRequest creates a data object
type IRODSMessageCreateDataObjRequest struct {
	IRODSMessageDataObjInp
}

// NewIRODSMessageCreateDataObjRequest creates a create request
func NewIRODSMessageCreateDataObjRequest(path string, resource string, force bool) *IRODSMessageCreateDataObjRequest {
	request := &IRODSMessageCreateDataObjRequest{
		IRODSMessageDataObjInp: *NewIRODSMessageDataObjInp(path, OPR_TYPE_NONE),
	}
	request.CreateMode = 0644
	request.OpenFlags = types.FileOpenModeWriteOnly.GetFlag()
	request.KeyVals.Add(DATA_TYPE_KW, "generic")

	if len(resource) > 0 {
		request.KeyVals.Add(DEST_RESC_NAME_KW, resource)
	}

	if force {
		request.KeyVals.Add(FORCE_FLAG_KW, "")
	}

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageCreateDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_CREATE_AN, nil)
}

// IRODSMessageFileDescriptorResponse is the reply whose intInfo carries a
// server-side file descriptor
type IRODSMessageFileDescriptorResponse struct {
	FileDescriptor int
}

// FromMessage parses a response frame
func (msg *IRODSMessageFileDescriptorResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty file descriptor response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "data object open failed")
	}

	if message.Body.IntInfo == 0 {
		return types.NewProtocolError("server returned file descriptor 0")
	}

	msg.FileDescriptor = int(message.Body.IntInfo)
	return nil
}

// IRODSMessagePutDataObjRequest uploads a data object. When the whole
// payload fits a single buffer it rides in the bs part with the
// dataIncluded keyword; otherwise the server answers with a parallel port
// list.
type IRODSMessagePutDataObjRequest struct {
	IRODSMessageDataObjInp
	bs []byte
}

// NewIRODSMessagePutDataObjRequest creates a put request
func NewIRODSMessagePutDataObjRequest(path string, resource string, size int64, threads int, force bool, computeChecksum bool, verifyChecksum bool) *IRODSMessagePutDataObjRequest {
	request := &IRODSMessagePutDataObjRequest{
		IRODSMessageDataObjInp: *NewIRODSMessageDataObjInp(path, OPR_TYPE_PUT),
	}
	request.CreateMode = 0644
	request.OpenFlags = types.FileOpenModeWriteOnly.GetFlag()
	request.Size = size
	request.Threads = threads
	request.KeyVals.Add(DATA_TYPE_KW, "generic")

	if len(resource) > 0 {
		request.KeyVals.Add(DEST_RESC_NAME_KW, resource)
	}

	if force {
		request.KeyVals.Add(FORCE_FLAG_KW, "")
	}

	if computeChecksum {
		request.KeyVals.Add(REG_CHKSUM_KW, "")
	}

	if verifyChecksum {
		request.KeyVals.Add(VERIFY_CHKSUM_KW, "")
	}

	return request
}

// SetData attaches the in-band payload
func (msg *IRODSMessagePutDataObjRequest) SetData(data []byte) {
	msg.bs = data
	msg.KeyVals.Add(DATA_INCLUDED_KW, "")
}

// GetMessage frames the request
func (msg *IRODSMessagePutDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_PUT_AN, msg.bs)
}

// IRODSMessageGetDataObjRequest downloads a data object
type IRODSMessageGetDataObjRequest struct {
	IRODSMessageDataObjInp
}

// NewIRODSMessageGetDataObjRequest creates a get request
func NewIRODSMessageGetDataObjRequest(path string, resource string, threads int, verifyChecksum bool) *IRODSMessageGetDataObjRequest {
	request := &IRODSMessageGetDataObjRequest{
		IRODSMessageDataObjInp: *NewIRODSMessageDataObjInp(path, OPR_TYPE_GET),
	}
	request.Threads = threads

	if len(resource) > 0 {
		request.KeyVals.Add(RESC_NAME_KW, resource)
	}

	if verifyChecksum {
		request.KeyVals.Add(VERIFY_CHKSUM_KW, "")
	}

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageGetDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_GET_AN, nil)
}

// IRODSMessageReplicateDataObjRequest replicates a data object to a resource
type IRODSMessageReplicateDataObjRequest struct {
	IRODSMessageDataObjInp
}

// NewIRODSMessageReplicateDataObjRequest creates a replicate request
func NewIRODSMessageReplicateDataObjRequest(path string, resource string) *IRODSMessageReplicateDataObjRequest {
	request := &IRODSMessageReplicateDataObjRequest{
		IRODSMessageDataObjInp: *NewIRODSMessageDataObjInp(path, OPR_TYPE_REPLICATE),
	}
	request.KeyVals.Add(DEST_RESC_NAME_KW, resource)

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageReplicateDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_REPL_AN, nil)
}

// IRODSMessageRmDataObjRequest removes a data object
type IRODSMessageRmDataObjRequest struct {
	IRODSMessageDataObjInp
}

// NewIRODSMessageRmDataObjRequest creates an unlink request
func NewIRODSMessageRmDataObjRequest(path string, force bool) *IRODSMessageRmDataObjRequest {
	request := &IRODSMessageRmDataObjRequest{
		IRODSMessageDataObjInp: *NewIRODSMessageDataObjInp(path, OPR_TYPE_NONE),
	}

	if force {
		request.KeyVals.Add(FORCE_FLAG_KW, "")
	}

	return request
}

// GetMessage frames the request
func (msg *IRODSMessageRmDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_UNLINK_AN, nil)
}

// IRODSMessagePhymvDataObjRequest physically moves a data object to a resource
type IRODSMessagePhymvDataObjRequest struct {
	IRODSMessageDataObjInp
}

// NewIRODSMessagePhymvDataObjRequest creates a physical move request
func NewIRODSMessagePhymvDataObjRequest(path string, resource string) *IRODSMessagePhymvDataObjRequest {
	request := &IRODSMessagePhymvDataObjRequest{
		IRODSMessageDataObjInp: *NewIRODSMessageDataObjInp(path, OPR_TYPE_PHYMV),
	}
	request.KeyVals.Add(DEST_RESC_NAME_KW, resource)

	return request
}

// GetMessage frames the request
func (msg *IRODSMessagePhymvDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_PHYMV_AN, nil)
}

// IRODSMessageEmptyResponse is the reply of requests that only report status
type IRODSMessageEmptyResponse struct {
	Result int32
}

// FromMessage parses a response frame
func (msg *IRODSMessageEmptyResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty response frame")
	}

	msg.Result = message.Body.IntInfo
	if msg.Result < 0 {
		return types.TranslateError(types.ErrorCode(msg.Result), strconv.Itoa(int(msg.Result)))
	}

	return nil
}

func init() {
	registerPackInstruction("DataObjInp_PI", func() IRODSMessageXML {
		return &IRODSMessageDataObjInp{}
	})
}
