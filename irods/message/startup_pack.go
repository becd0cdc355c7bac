package message

import (
	"encoding/xml"
	"fmt"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

const (
	// protocol 1 is the XML protocol, the only one this client speaks
	irodsProtXML int = 1

	// ReleaseVersion is the client release version sent in the startup pack
	ReleaseVersion string = "rods4.3.0"
	// APIVersion is the client api version sent in the startup pack
	APIVersion string = "d"

	// RequestServerNegotiation asks the server to run capability negotiation
	RequestServerNegotiation string = "request_server_negotiation"
)

// IRODSMessageStartupPack is the StartupPack_PI payload of the first frame
type IRODSMessageStartupPack struct {
	XMLName         xml.Name `xml:"StartupPack_PI"`
	Protocol        int      `xml:"irodsProt"`
	ReconnectFlag   int      `xml:"reconnFlag"`
	ConnectionCount int      `xml:"connectCnt"`
	ProxyUser       string   `xml:"proxyUser"`
	ProxyRcatZone   string   `xml:"proxyRcatZone"`
	ClientUser      string   `xml:"clientUser"`
	ClientRcatZone  string   `xml:"clientRcatZone"`
	ReleaseVersion  string   `xml:"relVersion"`
	APIVersion      string   `xml:"apiVersion"`
	Option          string   `xml:"option"`
}

// NewIRODSMessageStartupPack creates an IRODSMessageStartupPack from an
// account. The option string carries the application name and, when the
// client wants negotiation, the negotiation request marker.
func NewIRODSMessageStartupPack(account *types.IRODSAccount, applicationName string, requestNegotiation bool) *IRODSMessageStartupPack {
	option := applicationName
	if requestNegotiation {
		option = fmt.Sprintf("%s;%s", option, RequestServerNegotiation)
	}

	return &IRODSMessageStartupPack{
		Protocol:        irodsProtXML,
		ReconnectFlag:   0,
		ConnectionCount: 0,
		ProxyUser:       account.ProxyUser,
		ProxyRcatZone:   account.ProxyZone,
		ClientUser:      account.ClientUser,
		ClientRcatZone:  account.ClientZone,
		ReleaseVersion:  ReleaseVersion,
		APIVersion:      APIVersion,
		Option:          option,
	}
}

// GetBytes returns XML bytes
func (pack *IRODSMessageStartupPack) GetBytes() ([]byte, error) {
	xmlBytes, err := xml.Marshal(pack)
	if err != nil {
		return nil, types.NewWireFormatErrorf("failed to marshal StartupPack_PI: %v", err)
	}
	return xmlBytes, nil
}

// FromBytes parses XML bytes
func (pack *IRODSMessageStartupPack) FromBytes(bytes []byte) error {
	err := xml.Unmarshal(bytes, pack)
	if err != nil {
		return types.NewWireFormatErrorf("failed to parse StartupPack_PI: %v", err)
	}
	return nil
}

// GetMessage frames the startup pack
func (pack *IRODSMessageStartupPack) GetMessage() (*IRODSMessage, error) {
	bytes, err := pack.GetBytes()
	if err != nil {
		return nil, err
	}

	body := IRODSMessageBody{
		Type:    RODS_CONNECT,
		Message: bytes,
		IntInfo: 0,
	}

	return MakeIRODSMessage(&body), nil
}

func init() {
	registerPackInstruction("StartupPack_PI", func() IRODSMessageXML {
		return &IRODSMessageStartupPack{}
	})
}
