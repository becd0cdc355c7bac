package message

import (
	"encoding/xml"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSMessageSSLStart is the sslStartInp_PI payload restarting TLS on a
// running connection
type IRODSMessageSSLStart struct {
	XMLName xml.Name `xml:"sslStartInp_PI"`
	Arg0    string   `xml:"arg0"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageSSLStart) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal sslStartInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageSSLStart) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse sslStartInp_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageSSLStart) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(SSL_START_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageSSLEnd is the sslEndInp_PI payload stopping TLS
type IRODSMessageSSLEnd struct {
	XMLName xml.Name `xml:"sslEndInp_PI"`
	Arg0    string   `xml:"arg0"`
}

// GetBytes returns XML bytes
func (msg *IRODSMessageSSLEnd) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(msg)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal sslEndInp_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (msg *IRODSMessageSSLEnd) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, msg)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse sslEndInp_PI: %v", err)
	}
	return nil
}

// GetMessage frames the request
func (msg *IRODSMessageSSLEnd) GetMessage() (*IRODSMessage, error) {
	bytes, err := msg.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_API_REQ,
		Message: bytes,
		IntInfo: int32(SSL_END_AN),
	}

	return MakeIRODSMessage(&body), nil
}

// IRODSMessageSSLSettings carries the parallel-stream encryption parameters
// after the TLS upgrade. The wire encoding reuses the frame header itself:
// the algorithm rides in the type tag and the three numeric parameters ride
// in the length fields.
type IRODSMessageSSLSettings struct {
	EncryptionAlgorithm string
	EncryptionKeySize   uint32
	SaltSize            uint32
	HashRounds          uint32
}

// NewIRODSMessageSSLSettings creates an IRODSMessageSSLSettings
func NewIRODSMessageSSLSettings(algorithm string, keySize int, saltSize int, hashRounds int) *IRODSMessageSSLSettings {
	return &IRODSMessageSSLSettings{
		EncryptionAlgorithm: algorithm,
		EncryptionKeySize:   uint32(keySize),
		SaltSize:            uint32(saltSize),
		HashRounds:          uint32(hashRounds),
	}
}

// GetMessage frames the settings
func (msg *IRODSMessageSSLSettings) GetMessage() (*IRODSMessage, error) {
	header := MakeIRODSMessageHeader(MessageType(msg.EncryptionAlgorithm),
		msg.EncryptionKeySize, msg.SaltSize, msg.HashRounds, 0)

	return &IRODSMessage{
		Header: header,
		Body:   nil,
	}, nil
}

// IRODSMessageSSLSharedSecret carries the shared secret used to derive the
// parallel-stream cipher key
type IRODSMessageSSLSharedSecret struct {
	SharedSecret []byte
}

// NewIRODSMessageSSLSharedSecret creates an IRODSMessageSSLSharedSecret
func NewIRODSMessageSSLSharedSecret(sharedSecret []byte) *IRODSMessageSSLSharedSecret {
	return &IRODSMessageSSLSharedSecret{
		SharedSecret: sharedSecret,
	}
}

// GetMessage frames the shared secret
func (msg *IRODSMessageSSLSharedSecret) GetMessage() (*IRODSMessage, error) {
	body := IRODSMessageBody{
		Type:    MessageType("SHARED_SECRET"),
		Message: msg.SharedSecret,
		IntInfo: 0,
	}

	return MakeIRODSMessage(&body), nil
}
