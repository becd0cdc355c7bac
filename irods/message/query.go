package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// icat column ids used by the stat and listing queries
const (
	// ICAT_COLUMN_COLL_ID is the collection id column
	ICAT_COLUMN_COLL_ID int = 500
	// ICAT_COLUMN_COLL_NAME is the collection path column
	ICAT_COLUMN_COLL_NAME int = 501
	// ICAT_COLUMN_COLL_PARENT_NAME is the parent collection path column
	ICAT_COLUMN_COLL_PARENT_NAME int = 502
	// ICAT_COLUMN_COLL_OWNER_NAME is the collection owner column
	ICAT_COLUMN_COLL_OWNER_NAME int = 503
	// ICAT_COLUMN_COLL_CREATE_TIME is the collection create time column
	ICAT_COLUMN_COLL_CREATE_TIME int = 504
	// ICAT_COLUMN_COLL_MODIFY_TIME is the collection modify time column
	ICAT_COLUMN_COLL_MODIFY_TIME int = 505
	// ICAT_COLUMN_D_DATA_ID is the data object id column
	ICAT_COLUMN_D_DATA_ID int = 401
	// ICAT_COLUMN_DATA_NAME is the data object name column
	ICAT_COLUMN_DATA_NAME int = 403
	// ICAT_COLUMN_DATA_SIZE is the data object size column
	ICAT_COLUMN_DATA_SIZE int = 407
	// ICAT_COLUMN_D_RESC_NAME is the data object resource column
	ICAT_COLUMN_D_RESC_NAME int = 409
	// ICAT_COLUMN_D_OWNER_NAME is the data object owner column
	ICAT_COLUMN_D_OWNER_NAME int = 411
	// ICAT_COLUMN_D_DATA_CHECKSUM is the data object checksum column
	ICAT_COLUMN_D_DATA_CHECKSUM int = 415
	// ICAT_COLUMN_D_CREATE_TIME is the data object create time column
	ICAT_COLUMN_D_CREATE_TIME int = 419
	// ICAT_COLUMN_D_MODIFY_TIME is the data object modify time column
	ICAT_COLUMN_D_MODIFY_TIME int = 420
)

// IRODSMessageInxIvalPair is the InxIvalPair_PI select-column set
type IRODSMessageInxIvalPair struct {
	XMLName xml.Name `xml:"InxIvalPair_PI"`
	Length  int      `xml:"iiLen"`
	Inx     []int    `xml:"inx"`
	Ivalue  []int    `xml:"ivalue"`
}

// Add appends a select column
func (pair *IRODSMessageInxIvalPair) Add(inx int, value int) {
	pair.Inx = append(pair.Inx, inx)
	pair.Ivalue = append(pair.Ivalue, value)
	pair.Length = len(pair.Inx)
}

// IRODSMessageInxValPair is the InxValPair_PI condition set
type IRODSMessageInxValPair struct {
	XMLName xml.Name `xml:"InxValPair_PI"`
	Length  int      `xml:"isLen"`
	Inx     []int    `xml:"inx"`
	Svalue  []string `xml:"svalue"`
}

// Add appends a condition on a column
func (pair *IRODSMessageInxValPair) Add(inx int, value string) {
	pair.Inx = append(pair.Inx, inx)
	pair.Svalue = append(pair.Svalue, value)
	pair.Length = len(pair.Inx)
}

// IRODSMessageQueryRequest is the GenQueryInp_PI payload of a catalogue
// query
type IRODSMessageQueryRequest struct {
	XMLName           xml.Name                `xml:"GenQueryInp_PI"`
	MaxRows           int                     `xml:"maxRows"`
	ContinueIndex     int                     `xml:"continueInx"`
	PartialStartIndex int                     `xml:"partialStartIndex"`
	Options           int                     `xml:"options"`
	KeyVals           IRODSMessageSSKeyVal    `xml:"KeyValPair_PI"`
	Selects           IRODSMessageInxIvalPair `xml:"InxIvalPair_PI"`
	Conditions        IRODSMessageInxValPair  `xml:"InxValPair_PI"`
}

// NewIRODSMessageQueryRequest creates a query request
func NewIRODSMessageQueryRequest(maxRows int, continueIndex int) *IRODSMessageQueryRequest {
	return &IRODSMessageQueryRequest{
		MaxRows:       maxRows,
		ContinueIndex: continueIndex,
		KeyVals:       *NewIRODSMessageSSKeyVal(),
	}
}

// AddSelect adds a select column
func (msg *IRODSMessageQueryRequest) AddSelect(inx int) {
	msg.Selects.Add(inx, 1)
}

// AddCondition adds a condition string for a column, e.g. "= '/zone/home'"
func (msg *IRODSMessageQueryRequest) AddCondition(inx int, condition string) {
	msg.Conditions.Add(inx, condition)
}

// GetBytes returns XML bytes
func (msg *IRODSMessageQueryRequest) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal GenQueryInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageQueryRequest) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse GenQueryInp_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageQueryRequest) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(GEN_QUERY_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageSQLResult is one SqlResult_PI column of a query reply. Values
// are row-major within the column.
type IRODSMessageSQLResult struct {
	XMLName      xml.Name `xml:"SqlResult_PI"`
	AttributeIndex int    `xml:"attriInx"`
	ResultLen    int      `xml:"reslen"`
	Values       []string `xml:"value"`
}

// IRODSMessageQueryResponse is the GenQueryOut_PI reply
type IRODSMessageQueryResponse struct {
	XMLName       xml.Name                `xml:"GenQueryOut_PI"`
	RowCount      int                     `xml:"rowCnt"`
	AttributeCount int                    `xml:"attriCnt"`
	ContinueIndex int                     `xml:"continueInx"`
	TotalRowCount int                     `xml:"totalRowCount"`
	SQLResult     []IRODSMessageSQLResult `xml:"SqlResult_PI"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageQueryResponse) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal GenQueryOut_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageQueryResponse) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse GenQueryOut_PI: %v", err)
	}
	return nil
}

// FromMessage parses a response frame. CAT_NO_ROWS_FOUND surfaces as
// FileNotFoundError through the code table; callers treating empty results
// as normal must check for it.
func (msg *IRODSMessageQueryResponse) FromMessage(message *IRODSMessage) error {
	if message.Body == nil {
		return types.NewWireFormatError("empty query response")
	}

	if message.Body.IntInfo < 0 {
		return types.TranslateError(types.ErrorCode(message.Body.IntInfo), "query failed")
	}

	if len(message.Body.Message) == 0 {
		return types.NewWireFormatError("query response without rows")
	}

	err := msg.FromBytes(message.Body.Message)
	if err != nil {
		return err
	}

	for _, result := range msg.SQLResult {
		if len(result.Values) > msg.RowCount {
			return types.NewWireFormatErrorf("query column %d carries %d values for %d rows", result.AttributeIndex, len(result.Values), msg.RowCount)
		}
	}

	return nil
}

// GetValue returns the value at (column attribute, row)
func (msg *IRODSMessageQueryResponse) GetValue(attributeIndex int, row int) (string, bool) {
	for _, result := range msg.SQLResult {
		if result.AttributeIndex == attributeIndex {
			if row < len(result.Values) {
				return result.Values[row], true
			}
			return "", false
		}
	}

	return "", false
}

func init() {
	registerPackInstruction("GenQueryInp_PI", func() IRODSMessageXML {
		return &IRODSMessageQueryRequest{}
	})
	registerPackInstruction("GenQueryOut_PI", func() IRODSMessageXML {
		return &IRODSMessageQueryResponse{}
	})
}
