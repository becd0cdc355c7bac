package message

import (
	"encoding/binary"
	"encoding/xml"
	"io"
	"os"

	"github.com/cyverse/go-irodsgrid/irods/types"
	"golang.org/x/xerrors"
)

// MessageType is the type tag of a protocol frame
type MessageType string

const (
	// RODS_CONNECT is the startup pack frame
	RODS_CONNECT MessageType = "RODS_CONNECT"
	// RODS_DISCONNECT closes the connection
	RODS_DISCONNECT MessageType = "RODS_DISCONNECT"
	// RODS_VERSION carries the server version
	RODS_VERSION MessageType = "RODS_VERSION"
	// RODS_CS_NEG_T carries client-server negotiation
	RODS_CS_NEG_T MessageType = "RODS_CS_NEG_T"
	// RODS_API_REQ is an API request
	RODS_API_REQ MessageType = "RODS_API_REQ"
	// RODS_API_REPLY is an API response
	RODS_API_REPLY MessageType = "RODS_API_REPLY"
)

const (
	// MaxMessageHeaderLen bounds the declared header length
	MaxMessageHeaderLen int = 1024 * 1024
	// MaxMessageBodyLen bounds the declared message/error lengths
	MaxMessageBodyLen int = 32 * 1024 * 1024
)

// IRODSMessageHeader is the fixed frame header. It declares the lengths of
// the three parts that follow and carries the server status in IntInfo.
type IRODSMessageHeader struct {
	XMLName    xml.Name    `xml:"MsgHeader_PI"`
	Type       MessageType `xml:"type"`
	MessageLen uint32      `xml:"msgLen"`
	ErrorLen   uint32      `xml:"errorLen"`
	BsLen      uint32      `xml:"bsLen"`
	IntInfo    int32       `xml:"intInfo"`
}

// MakeIRODSMessageHeader creates an IRODSMessageHeader
func MakeIRODSMessageHeader(messageType MessageType, messageLen uint32, errorLen uint32, bsLen uint32, intInfo int32) *IRODSMessageHeader {
	return &IRODSMessageHeader{
		Type:       messageType,
		MessageLen: messageLen,
		ErrorLen:   errorLen,
		BsLen:      bsLen,
		IntInfo:    intInfo,
	}
}

// GetBytes returns XML bytes of the header
func (header *IRODSMessageHeader) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(header)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal message header to xml: %w", err)
	}
	return xmlBytes, nil
}

// FromBytes returns IRODSMessageHeader from XML bytes
func (header *IRODSMessageHeader) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, header)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse message header xml: %v", err)
	}
	return nil
}

// IRODSMessageBody is the variable part of a frame
type IRODSMessageBody struct {
	Type    MessageType
	Message []byte
	Error   []byte
	Bs      []byte
	IntInfo int32
}

// IRODSMessage is a whole request/response frame
type IRODSMessage struct {
	Header *IRODSMessageHeader
	Body   *IRODSMessageBody
}

// MakeIRODSMessage assembles a message and its header from a body
func MakeIRODSMessage(body *IRODSMessageBody) *IRODSMessage {
	header := MakeIRODSMessageHeader(body.Type,
		uint32(len(body.Message)), uint32(len(body.Error)), uint32(len(body.Bs)),
		body.IntInfo)

	return &IRODSMessage{
		Header: header,
		Body:   body,
	}
}

// WriteIRODSMessage writes a frame: the big-endian 4-byte header length, the
// header XML, then message, error and bs parts in that order.
func WriteIRODSMessage(writer io.Writer, message *IRODSMessage) error {
	if message.Header == nil {
		return types.NewWireFormatError("cannot write a message without header")
	}

	headerBytes, err := message.Header.GetBytes()
	if err != nil {
		return err
	}

	headerLenBuffer := make([]byte, 4)
	binary.BigEndian.PutUint32(headerLenBuffer, uint32(len(headerBytes)))

	_, err = writer.Write(headerLenBuffer)
	if err != nil {
		return xerrors.Errorf("failed to write header length: %w", err)
	}

	_, err = writer.Write(headerBytes)
	if err != nil {
		return xerrors.Errorf("failed to write header: %w", err)
	}

	if message.Body == nil {
		return nil
	}

	if len(message.Body.Message) > 0 {
		_, err = writer.Write(message.Body.Message)
		if err != nil {
			return xerrors.Errorf("failed to write message body: %w", err)
		}
	}

	if len(message.Body.Error) > 0 {
		_, err = writer.Write(message.Body.Error)
		if err != nil {
			return xerrors.Errorf("failed to write error part: %w", err)
		}
	}

	if len(message.Body.Bs) > 0 {
		_, err = writer.Write(message.Body.Bs)
		if err != nil {
			return xerrors.Errorf("failed to write bs part: %w", err)
		}
	}

	return nil
}

// ReadIRODSMessageHeader reads and parses the header of the next frame
func ReadIRODSMessageHeader(reader io.Reader) (*IRODSMessageHeader, error) {
	headerLenBuffer := make([]byte, 4)
	_, err := io.ReadFull(reader, headerLenBuffer)
	if err != nil {
		return nil, wrapReadError(err, "failed to read header length")
	}

	headerLen := int(binary.BigEndian.Uint32(headerLenBuffer))
	if headerLen <= 0 || headerLen > MaxMessageHeaderLen {
		return nil, types.NewWireFormatErrorf("header length %d is out of range", headerLen)
	}

	headerBuffer := make([]byte, headerLen)
	_, err = io.ReadFull(reader, headerBuffer)
	if err != nil {
		return nil, wrapReadError(err, "failed to read header")
	}

	header := IRODSMessageHeader{}
	err = header.FromBytes(headerBuffer)
	if err != nil {
		return nil, err
	}

	if int(header.MessageLen) > MaxMessageBodyLen || int(header.ErrorLen) > MaxMessageBodyLen {
		return nil, types.NewWireFormatErrorf("declared body length overflow (msg %d, error %d)", header.MessageLen, header.ErrorLen)
	}

	return &header, nil
}

// ReadIRODSMessageBody reads the body declared by the given header,
// excluding the bs part when readBs is false. The caller owns draining the
// bs part via a data-phase read in that case.
func ReadIRODSMessageBody(reader io.Reader, header *IRODSMessageHeader, readBs bool) (*IRODSMessageBody, error) {
	body := IRODSMessageBody{
		Type:    header.Type,
		IntInfo: header.IntInfo,
	}

	if header.MessageLen > 0 {
		body.Message = make([]byte, header.MessageLen)
		_, err := io.ReadFull(reader, body.Message)
		if err != nil {
			return nil, wrapReadError(err, "failed to read message body")
		}
	}

	if header.ErrorLen > 0 {
		body.Error = make([]byte, header.ErrorLen)
		_, err := io.ReadFull(reader, body.Error)
		if err != nil {
			return nil, wrapReadError(err, "failed to read error part")
		}
	}

	if readBs && header.BsLen > 0 {
		body.Bs = make([]byte, header.BsLen)
		_, err := io.ReadFull(reader, body.Bs)
		if err != nil {
			return nil, wrapReadError(err, "failed to read bs part")
		}
	}

	return &body, nil
}

// ReadIRODSMessage reads a whole frame including its bs part
func ReadIRODSMessage(reader io.Reader) (*IRODSMessage, error) {
	header, err := ReadIRODSMessageHeader(reader)
	if err != nil {
		return nil, err
	}

	body, err := ReadIRODSMessageBody(reader, header, true)
	if err != nil {
		return nil, err
	}

	return &IRODSMessage{
		Header: header,
		Body:   body,
	}, nil
}

func wrapReadError(err error, message string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return types.NewWireFormatErrorf("%s: truncated frame", message)
	}

	if os.IsTimeout(err) {
		return types.NewNetworkTimeoutError(message)
	}

	return xerrors.Errorf("%s: %w", message, err)
}
