package message

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

func TestMessageHeaderRoundTrip(t *testing.T) {
	header := MakeIRODSMessageHeader(RODS_API_REQ, 120, 0, 4096, 602)

	headerBytes, err := header.GetBytes()
	assert.NoError(t, err)

	parsed := IRODSMessageHeader{}
	err = parsed.FromBytes(headerBytes)
	assert.NoError(t, err)

	assert.Equal(t, header.Type, parsed.Type)
	assert.Equal(t, header.MessageLen, parsed.MessageLen)
	assert.Equal(t, header.ErrorLen, parsed.ErrorLen)
	assert.Equal(t, header.BsLen, parsed.BsLen)
	assert.Equal(t, header.IntInfo, parsed.IntInfo)
}

func TestMessageFrameRoundTrip(t *testing.T) {
	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: []byte("<DataObjInp_PI><objPath>/tempZone/home/rods/x</objPath></DataObjInp_PI>"),
		Bs:      []byte{0x01, 0x02, 0x03, 0x04},
		IntInfo: 606,
	}

	buffer := bytes.Buffer{}
	err := WriteIRODSMessage(&buffer, MakeIRODSMessage(&body))
	assert.NoError(t, err)

	parsed, err := ReadIRODSMessage(&buffer)
	assert.NoError(t, err)

	assert.Equal(t, body.Type, parsed.Header.Type)
	assert.Equal(t, body.Message, parsed.Body.Message)
	assert.Equal(t, body.Bs, parsed.Body.Bs)
	assert.Equal(t, body.IntInfo, parsed.Body.IntInfo)

	// a produced frame re-parses bit-identical
	rewritten := bytes.Buffer{}
	err = WriteIRODSMessage(&rewritten, parsed)
	assert.NoError(t, err)

	original := bytes.Buffer{}
	err = WriteIRODSMessage(&original, MakeIRODSMessage(&body))
	assert.NoError(t, err)
	assert.Equal(t, original.Bytes(), rewritten.Bytes())
}

func TestMessageTruncatedFrame(t *testing.T) {
	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: []byte("<INT_PI><myInt>3</myInt></INT_PI>"),
		IntInfo: 626,
	}

	buffer := bytes.Buffer{}
	err := WriteIRODSMessage(&buffer, MakeIRODSMessage(&body))
	assert.NoError(t, err)

	truncated := buffer.Bytes()[:buffer.Len()-10]
	_, err = ReadIRODSMessage(bytes.NewReader(truncated))
	assert.Error(t, err)
	assert.True(t, types.IsWireFormatError(err))
}

func TestMessageHeaderLengthOverflow(t *testing.T) {
	buffer := bytes.Buffer{}
	// declared header length far past the bound
	buffer.Write([]byte{0x7f, 0xff, 0xff, 0xff})
	buffer.WriteString("<MsgHeader_PI>")

	_, err := ReadIRODSMessage(&buffer)
	assert.Error(t, err)
	assert.True(t, types.IsWireFormatError(err))
}

func TestKeyValPairRoundTrip(t *testing.T) {
	keyval := NewIRODSMessageSSKeyVal()
	keyval.Add(FORCE_FLAG_KW, "")
	keyval.Add(DEST_RESC_NAME_KW, "demoResc")
	keyval.Add("someUnknownKeyword", "preserved")

	keyvalBytes, err := keyval.GetBytes()
	assert.NoError(t, err)

	parsed := IRODSMessageSSKeyVal{}
	err = parsed.FromBytes(keyvalBytes)
	assert.NoError(t, err)

	assert.Equal(t, 3, parsed.Length)
	assert.Equal(t, keyval.Keys, parsed.Keys)
	assert.Equal(t, keyval.Values, parsed.Values)

	// unknown keys round-trip untouched
	value, ok := parsed.Get("someUnknownKeyword")
	assert.True(t, ok)
	assert.Equal(t, "preserved", value)
}

func TestKeyValPairLengthMismatch(t *testing.T) {
	corrupt := []byte("<KeyValPair_PI><ssLen>2</ssLen><keyWord>only</keyWord><svalue>one</svalue></KeyValPair_PI>")

	parsed := IRODSMessageSSKeyVal{}
	err := parsed.FromBytes(corrupt)
	assert.Error(t, err)
	assert.True(t, types.IsWireFormatError(err))
}

func TestStartupPackRoundTrip(t *testing.T) {
	account, err := types.CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", types.AuthSchemeNative, "rods", "")
	assert.NoError(t, err)

	pack := NewIRODSMessageStartupPack(account, "go-irodsgrid", true)
	assert.Contains(t, pack.Option, RequestServerNegotiation)

	packBytes, err := pack.GetBytes()
	assert.NoError(t, err)

	parsed := IRODSMessageStartupPack{}
	err = parsed.FromBytes(packBytes)
	assert.NoError(t, err)

	assert.Equal(t, pack.ProxyUser, parsed.ProxyUser)
	assert.Equal(t, pack.ClientRcatZone, parsed.ClientRcatZone)
	assert.Equal(t, pack.ReleaseVersion, parsed.ReleaseVersion)
	assert.Equal(t, pack.Option, parsed.Option)
}

func TestDataObjInpRoundTrip(t *testing.T) {
	request := NewIRODSMessagePutDataObjRequest("/tempZone/home/rods/hello.txt", "demoResc", 12, 4, true, true, false)

	requestBytes, err := request.GetBytes()
	assert.NoError(t, err)

	parsed := IRODSMessageDataObjInp{}
	err = parsed.FromBytes(requestBytes)
	assert.NoError(t, err)

	assert.Equal(t, request.Path, parsed.Path)
	assert.Equal(t, request.Size, parsed.Size)
	assert.Equal(t, request.Threads, parsed.Threads)
	assert.Equal(t, request.OperType, parsed.OperType)

	_, ok := parsed.KeyVals.Get(FORCE_FLAG_KW)
	assert.True(t, ok)

	_, ok = parsed.KeyVals.Get(REG_CHKSUM_KW)
	assert.True(t, ok)

	resource, ok := parsed.KeyVals.Get(DEST_RESC_NAME_KW)
	assert.True(t, ok)
	assert.Equal(t, "demoResc", resource)
}

func TestPortalOprOutParse(t *testing.T) {
	payload := []byte(`<PortalOprOut_PI><status>0</status><l1descInx>3</l1descInx><numThreads>4</numThreads><chksum></chksum><PortList_PI><portNum>20199</portNum><cookie>680551</cookie><sock>0</sock><windowSize>0</windowSize><hostAddr>irods.example</hostAddr></PortList_PI></PortalOprOut_PI>`)

	portal := IRODSMessagePortalOprResponse{}
	err := portal.FromBytes(payload)
	assert.NoError(t, err)

	assert.Equal(t, 3, portal.FileDescriptor)
	assert.Equal(t, 4, portal.Threads)
	assert.True(t, portal.UsesParallelTransfer())
	assert.Len(t, portal.PortList, 1)
	assert.Equal(t, 20199, portal.PortList[0].Port)
	assert.Equal(t, int32(680551), portal.PortList[0].Cookie)
	assert.Equal(t, "irods.example", portal.PortList[0].HostAddr)
}

func TestQueryRequestRoundTrip(t *testing.T) {
	query := NewIRODSMessageQueryRequest(500, 0)
	query.AddSelect(ICAT_COLUMN_COLL_NAME)
	query.AddSelect(ICAT_COLUMN_DATA_SIZE)
	query.AddCondition(ICAT_COLUMN_COLL_NAME, "= '/tempZone/home/rods'")

	queryBytes, err := query.GetBytes()
	assert.NoError(t, err)

	parsed := IRODSMessageQueryRequest{}
	err = parsed.FromBytes(queryBytes)
	assert.NoError(t, err)

	assert.Equal(t, query.MaxRows, parsed.MaxRows)
	assert.Equal(t, query.Selects.Inx, parsed.Selects.Inx)
	assert.Equal(t, query.Conditions.Svalue, parsed.Conditions.Svalue)
}

func TestQueryResponseValues(t *testing.T) {
	payload := []byte(`<GenQueryOut_PI><rowCnt>2</rowCnt><attriCnt>2</attriCnt><continueInx>0</continueInx><totalRowCount>0</totalRowCount><SqlResult_PI><attriInx>403</attriInx><reslen>16</reslen><value>a.txt</value><value>b.txt</value></SqlResult_PI><SqlResult_PI><attriInx>407</attriInx><reslen>16</reslen><value>1</value><value>2</value></SqlResult_PI></GenQueryOut_PI>`)

	response := IRODSMessageQueryResponse{}
	err := response.FromBytes(payload)
	assert.NoError(t, err)

	name, ok := response.GetValue(ICAT_COLUMN_DATA_NAME, 1)
	assert.True(t, ok)
	assert.Equal(t, "b.txt", name)

	size, ok := response.GetValue(ICAT_COLUMN_DATA_SIZE, 0)
	assert.True(t, ok)
	assert.Equal(t, "1", size)

	_, ok = response.GetValue(ICAT_COLUMN_DATA_SIZE, 5)
	assert.False(t, ok)
}

func TestPackInstructionRegistry(t *testing.T) {
	names := ListPackInstructionNames()
	assert.Contains(t, names, "StartupPack_PI")
	assert.Contains(t, names, "DataObjInp_PI")
	assert.Contains(t, names, "PortalOprOut_PI")
	assert.Contains(t, names, "KeyValPair_PI")
	assert.Contains(t, names, "GenQueryInp_PI")

	// the registry drives decode by name
	instruction, err := NewPackInstruction("INT_PI")
	assert.NoError(t, err)

	err = instruction.FromBytes([]byte("<INT_PI><myInt>7</myInt></INT_PI>"))
	assert.NoError(t, err)

	oprComplete, ok := instruction.(*IRODSMessageOprComplete)
	assert.True(t, ok)
	assert.Equal(t, 7, oprComplete.Value)

	_, err = NewPackInstruction("NoSuchThing_PI")
	assert.Error(t, err)
}

func TestEveryRegisteredPackInstructionRoundTrips(t *testing.T) {
	for _, name := range ListPackInstructionNames() {
		instruction, err := NewPackInstruction(name)
		assert.NoError(t, err, name)

		encoded, err := instruction.GetBytes()
		assert.NoError(t, err, name)

		decoded, err := NewPackInstruction(name)
		assert.NoError(t, err, name)
		err = decoded.FromBytes(encoded)
		assert.NoError(t, err, name)

		reEncoded, err := decoded.GetBytes()
		assert.NoError(t, err, name)
		assert.Equal(t, encoded, reEncoded, name)
	}
}
