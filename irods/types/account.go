package types

import (
	"fmt"
	"strings"

	"golang.org/x/xerrors"
)

// AuthScheme is an authentication scheme
type AuthScheme string

const (
	// AuthSchemeNative uses the iRODS native challenge-response
	AuthSchemeNative AuthScheme = "native"
	// AuthSchemePAM authenticates via PAM over an encrypted channel
	AuthSchemePAM AuthScheme = "pam"
	// AuthSchemeGSI uses a GSI credential context exchange
	AuthSchemeGSI AuthScheme = "gsi"
	// AuthSchemeKerberos uses a Kerberos credential context exchange
	AuthSchemeKerberos AuthScheme = "krb"
	// AuthSchemeAnonymous skips the challenge entirely
	AuthSchemeAnonymous AuthScheme = "anonymous"
)

// GetAuthScheme returns AuthScheme from string
func GetAuthScheme(authScheme string) (AuthScheme, error) {
	switch strings.ToLower(authScheme) {
	case string(AuthSchemeNative), "":
		return AuthSchemeNative, nil
	case string(AuthSchemePAM), "pam_password":
		return AuthSchemePAM, nil
	case string(AuthSchemeGSI):
		return AuthSchemeGSI, nil
	case string(AuthSchemeKerberos), "kerberos":
		return AuthSchemeKerberos, nil
	case string(AuthSchemeAnonymous):
		return AuthSchemeAnonymous, nil
	default:
		return AuthSchemeNative, xerrors.Errorf("unknown auth scheme %q", authScheme)
	}
}

// CSNegotiationPolicy is a client-server encryption stance
type CSNegotiationPolicy string

const (
	// CSNegotiationRequireSSL requires an encrypted channel
	CSNegotiationRequireSSL CSNegotiationPolicy = "CS_NEG_REQUIRE"
	// CSNegotiationDontCare accepts whatever the server prefers
	CSNegotiationDontCare CSNegotiationPolicy = "CS_NEG_DONT_CARE"
	// CSNegotiationRefuseSSL refuses an encrypted channel
	CSNegotiationRefuseSSL CSNegotiationPolicy = "CS_NEG_REFUSE"
)

// GetCSNegotiationPolicy returns CSNegotiationPolicy from string
func GetCSNegotiationPolicy(policy string) (CSNegotiationPolicy, error) {
	switch strings.ToUpper(policy) {
	case string(CSNegotiationRequireSSL):
		return CSNegotiationRequireSSL, nil
	case string(CSNegotiationDontCare), "":
		return CSNegotiationDontCare, nil
	case string(CSNegotiationRefuseSSL):
		return CSNegotiationRefuseSSL, nil
	default:
		return CSNegotiationRefuseSSL, xerrors.Errorf("unknown negotiation policy %q", policy)
	}
}

// IRODSAccount contains irods login information
type IRODSAccount struct {
	Host                string
	Port                int
	ClientUser          string
	ClientZone          string
	ProxyUser           string
	ProxyZone           string
	Password            string
	Ticket              string
	DefaultResource     string
	HomeDirectory       string
	AuthenticationScheme    AuthScheme
	ClientServerNegotiation CSNegotiationPolicy
	SSLConfiguration        *IRODSSSLConfig
}

// CreateIRODSAccount creates IRODSAccount
func CreateIRODSAccount(host string, port int, user string, zone string, authScheme AuthScheme, password string, defaultResource string) (*IRODSAccount, error) {
	account := &IRODSAccount{
		Host:                host,
		Port:                port,
		ClientUser:          user,
		ClientZone:          zone,
		ProxyUser:           user,
		ProxyZone:           zone,
		Password:            password,
		DefaultResource:     defaultResource,
		AuthenticationScheme:    authScheme,
		ClientServerNegotiation: CSNegotiationDontCare,
	}

	account.FixAuthConfiguration()

	err := account.Validate()
	if err != nil {
		return nil, err
	}

	return account, nil
}

// CreateIRODSProxyAccount creates IRODSAccount for proxy access
func CreateIRODSProxyAccount(host string, port int, clientUser string, clientZone string, proxyUser string, proxyZone string, authScheme AuthScheme, password string, defaultResource string) (*IRODSAccount, error) {
	account := &IRODSAccount{
		Host:                host,
		Port:                port,
		ClientUser:          clientUser,
		ClientZone:          clientZone,
		ProxyUser:           proxyUser,
		ProxyZone:           proxyZone,
		Password:            password,
		DefaultResource:     defaultResource,
		AuthenticationScheme:    authScheme,
		ClientServerNegotiation: CSNegotiationDontCare,
	}

	account.FixAuthConfiguration()

	err := account.Validate()
	if err != nil {
		return nil, err
	}

	return account, nil
}

// SetSSLConfiguration sets SSL configuration for PAM or SSL authentication
func (account *IRODSAccount) SetSSLConfiguration(sslConf *IRODSSSLConfig) {
	account.SSLConfiguration = sslConf
}

// SetCSNegotiation sets the client-server encryption stance
func (account *IRODSAccount) SetCSNegotiation(policy CSNegotiationPolicy) {
	account.ClientServerNegotiation = policy
	account.FixAuthConfiguration()
}

// UseProxyAccess returns whether the account uses proxy access
func (account *IRODSAccount) UseProxyAccess() bool {
	return len(account.ProxyUser) > 0 && account.ClientUser != account.ProxyUser
}

// UseTicket returns whether the account uses a ticket for access control
func (account *IRODSAccount) UseTicket() bool {
	return len(account.Ticket) > 0
}

// GetHomeDirPath returns the home directory path for the account
func (account *IRODSAccount) GetHomeDirPath() string {
	if len(account.HomeDirectory) > 0 {
		return account.HomeDirectory
	}

	return fmt.Sprintf("/%s/home/%s", account.ClientZone, account.ClientUser)
}

// GetSessionKey returns the key identifying the account in a session registry.
// Two accounts with the same key may share a live connection pool.
func (account *IRODSAccount) GetSessionKey() string {
	return fmt.Sprintf("%s:%d:%s:%s:%s", account.Host, account.Port, account.ClientZone, account.ClientUser, account.ProxyUser)
}

// FixAuthConfiguration fills out missing auth configuration fields
func (account *IRODSAccount) FixAuthConfiguration() {
	if len(account.AuthenticationScheme) == 0 {
		account.AuthenticationScheme = AuthSchemeNative
	}

	// PAM requires an encrypted control channel
	if account.AuthenticationScheme == AuthSchemePAM {
		account.ClientServerNegotiation = CSNegotiationRequireSSL
	}

	if len(account.ProxyUser) == 0 {
		account.ProxyUser = account.ClientUser
	}

	if len(account.ProxyZone) == 0 {
		account.ProxyZone = account.ClientZone
	}

	if len(account.ClientZone) == 0 {
		account.ClientZone = account.ProxyZone
	}

	if len(account.ClientUser) == 0 {
		account.ClientUser = account.ProxyUser
	}

	if len(account.HomeDirectory) == 0 && len(account.ClientZone) > 0 && len(account.ClientUser) > 0 {
		account.HomeDirectory = fmt.Sprintf("/%s/home/%s", account.ClientZone, account.ClientUser)
	}
}

// Validate validates the account
func (account *IRODSAccount) Validate() error {
	if len(account.Host) == 0 {
		return xerrors.Errorf("empty host")
	}

	if account.Port <= 0 {
		return xerrors.Errorf("invalid port %d", account.Port)
	}

	if len(account.ProxyUser) == 0 {
		return xerrors.Errorf("empty user")
	}

	if len(account.ProxyZone) == 0 {
		return xerrors.Errorf("empty zone")
	}

	if account.AuthenticationScheme == AuthSchemePAM && account.ClientServerNegotiation != CSNegotiationRequireSSL {
		return NewNegotiationError("PAM authentication requires SSL negotiation")
	}

	return nil
}

// GetRedacted returns a copy of the account with the password masked, for logging
func (account *IRODSAccount) GetRedacted() *IRODSAccount {
	redacted := *account
	if len(redacted.Password) > 0 {
		redacted.Password = "**REDACTED**"
	}

	return &redacted
}
