package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageDataObjCopyInp is the DataObjCopyInp_PI payload carrying a
// source and destination DataObjInp_PI pair
type IRODSMessageDataObjCopyInp struct {
	XMLName xml.Name               `xml:"DataObjCopyInp_PI"`
	Paths   []IRODSMessageDataObjInp `xml:"DataObjInp_PI"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageDataObjCopyInp) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal DataObjCopyInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageDataObjCopyInp) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse DataObjCopyInp_PI: %v", err)
	}
	return nil
}

func (msg *IRODSMessageDataObjCopyInp) apiRequest(apiNumber APINumber) (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(apiNumber),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageRenameDataObjRequest renames a data object
type IRODSMessageRenameDataObjRequest struct {
	IRODSMessageDataObjCopyInp
}

// NewIRODSMessageRenameDataObjRequest creates a data object rename request
func NewIRODSMessageRenameDataObjRequest(srcPath string, destPath string) *IRODSMessageRenameDataObjRequest {
	return &IRODSMessageRenameDataObjRequest{
		IRODSMessageDataObjCopyInp: IRODSMessageDataObjCopyInp{
			Paths: []IRODSMessageDataObjInp{
				*NewIRODSMessageDataObjInp(srcPath, OPR_TYPE_RENAME_DATA_OBJ),
				*NewIRODSMessageDataObjInp(destPath, OPR_TYPE_RENAME_DATA_OBJ),
			},
		},
	}
}

// GetMessage frames the request
func (msg *IRODSMessageRenameDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_RENAME_AN)
}

// IRODSMessageRenameCollRequest renames a collection
type IRODSMessageRenameCollRequest struct {
	IRODSMessageDataObjCopyInp
}

// NewIRODSMessageRenameCollRequest creates a collection rename request
func NewIRODSMessageRenameCollRequest(srcPath string, destPath string) *IRODSMessageRenameCollRequest {
	return &IRODSMessageRenameCollRequest{
		IRODSMessageDataObjCopyInp: IRODSMessageDataObjCopyInp{
			Paths: []IRODSMessageDataObjInp{
				*NewIRODSMessageDataObjInp(srcPath, OPR_TYPE_RENAME_COLL),
				*NewIRODSMessageDataObjInp(destPath, OPR_TYPE_RENAME_COLL),
			},
		},
	}
}

// GetMessage frames the request
func (msg *IRODSMessageRenameCollRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_RENAME_AN)
}

// IRODSMessageCopyDataObjRequest copies a data object within iRODS
type IRODSMessageCopyDataObjRequest struct {
	IRODSMessageDataObjCopyInp
}

// NewIRODSMessageCopyDataObjRequest creates a copy request
func NewIRODSMessageCopyDataObjRequest(srcPath string, destPath string, destResource string, force bool) *IRODSMessageCopyDataObjRequest {
	src := NewIRODSMessageDataObjInp(srcPath, OPR_TYPE_COPY_SRC)
	dest := NewIRODSMessageDataObjInp(destPath, OPR_TYPE_COPY_DEST)

	if len(destResource) > 0 {
		dest.KeyVals.Add(DEST_RESC_NAME_KW, destResource)
	}

	if force {
		dest.KeyVals.Add(FORCE_FLAG_KW, "")
	}

	return &IRODSMessageCopyDataObjRequest{
		IRODSMessageDataObjCopyInp: IRODSMessageDataObjCopyInp{
			Paths: []IRODSMessageDataObjInp{*src, *dest},
		},
	}
}

// GetMessage frames the request
func (msg *IRODSMessageCopyDataObjRequest) GetMessage() (*IRODSMessage, error) {
	return msg.apiRequest(DATA_OBJ_COPY_AN)
}

func init() {
	registerPackInstruction("DataObjCopyInp_PI", func() IRODSMessageXML {
		return &IRODSMessageDataObjCopyInp{}
	})
}
