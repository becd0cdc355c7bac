package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// condInput keywords used by the core. The pair codec itself carries any
// keyword, known or not.
const (
	FORCE_FLAG_KW     string = "forceFlag"
	DEST_RESC_NAME_KW string = "destRescName"
	RESC_NAME_KW      string = "rescName"
	DATA_TYPE_KW      string = "dataType"
	DATA_INCLUDED_KW  string = "dataIncluded"
	RECURSIVE_OPR_KW  string = "recursiveOpr"
	VERIFY_CHKSUM_KW  string = "verifyChksum"
	REG_CHKSUM_KW     string = "regChksum"
	CS_NEG_RESULT_KW  string = "cs_neg_result_kw"
	ZONE_KW           string = "zone"
	TICKET_KW         string = "ticket"
)

// IRODSMessageSSKeyVal is the KeyValPair_PI condInput payload. Unknown keys
// survive a decode/encode round trip untouched.
type IRODSMessageSSKeyVal struct {
	XMLName xml.Name `xml:"KeyValPair_PI"`
	Length  int      `xml:"ssLen"`
	Keys    []string `xml:"keyWord"`
	Values  []string `xml:"svalue"`
}

// NewIRODSMessageSSKeyVal creates an empty pair set
func NewIRODSMessageSSKeyVal() *IRODSMessageSSKeyVal {
	return &IRODSMessageSSKeyVal{
		Length: 0,
	}
}

// Add appends a keyword/value pair
func (keyval *IRODSMessageSSKeyVal) Add(key string, value string) {
	keyval.Keys = append(keyval.Keys, key)
	keyval.Values = append(keyval.Values, value)
	keyval.Length = len(keyval.Keys)
}

// Get returns the value for the keyword
func (keyval *IRODSMessageSSKeyVal) Get(key string) (string, bool) {
	for i, k := range keyval.Keys {
		if k == key && i < len(keyval.Values) {
			return keyval.Values[i], true
		}
	}

	return "", false
}

// GetBytes returns XML bytes
func (keyval *IRODSMessageSSKeyVal) GetBytes() ([]byte, error) {
	keyval.Length = len(keyval.Keys)

	xmlBytes, err := xml.Marshal(keyval)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal KeyValPair_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (keyval *IRODSMessageSSKeyVal) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, keyval)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse KeyValPair_PI: %v", err)
	}

	if keyval.Length != len(keyval.Keys) || len(keyval.Keys) != len(keyval.Values) {
		return types.NewWireFormatErrorf("KeyValPair_PI length mismatch (ssLen %d, keys %d, values %d)", keyval.Length, len(keyval.Keys), len(keyval.Values))
	}

	return nil
}

func init() {
	registerPackInstruction("KeyValPair_PI", func() IRODSMessageXML {
		return NewIRODSMessageSSKeyVal()
	})
}
