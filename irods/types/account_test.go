package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateIRODSAccount(t *testing.T) {
	account, err := CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", AuthSchemeNative, "rods", "demoResc")
	assert.NoError(t, err)

	assert.Equal(t, "rods", account.ProxyUser)
	assert.Equal(t, "tempZone", account.ProxyZone)
	assert.Equal(t, "/tempZone/home/rods", account.GetHomeDirPath())
	assert.False(t, account.UseProxyAccess())
}

func TestCreateIRODSProxyAccount(t *testing.T) {
	account, err := CreateIRODSProxyAccount("irods.example", 1247, "alice", "tempZone", "svc", "tempZone", AuthSchemeNative, "secret", "")
	assert.NoError(t, err)

	assert.True(t, account.UseProxyAccess())
	assert.Equal(t, "alice", account.ClientUser)
	assert.Equal(t, "svc", account.ProxyUser)
}

func TestAccountValidation(t *testing.T) {
	_, err := CreateIRODSAccount("", 1247, "rods", "tempZone", AuthSchemeNative, "rods", "")
	assert.Error(t, err)

	_, err = CreateIRODSAccount("irods.example", -1, "rods", "tempZone", AuthSchemeNative, "rods", "")
	assert.Error(t, err)

	_, err = CreateIRODSAccount("irods.example", 1247, "", "tempZone", AuthSchemeNative, "rods", "")
	assert.Error(t, err)
}

func TestAccountSessionKey(t *testing.T) {
	account1, err := CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", AuthSchemeNative, "rods", "")
	assert.NoError(t, err)

	account2, err := CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", AuthSchemeNative, "other-password", "otherResc")
	assert.NoError(t, err)

	account3, err := CreateIRODSAccount("irods.example", 1247, "alice", "tempZone", AuthSchemeNative, "x", "")
	assert.NoError(t, err)

	// equality over (host, port, zone, user, proxy user) only
	assert.Equal(t, account1.GetSessionKey(), account2.GetSessionKey())
	assert.NotEqual(t, account1.GetSessionKey(), account3.GetSessionKey())
}

func TestPAMAccountRequiresSSL(t *testing.T) {
	account, err := CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", AuthSchemePAM, "rods", "")
	assert.NoError(t, err)

	assert.Equal(t, CSNegotiationRequireSSL, account.ClientServerNegotiation)
}

func TestGetAuthScheme(t *testing.T) {
	scheme, err := GetAuthScheme("PAM")
	assert.NoError(t, err)
	assert.Equal(t, AuthSchemePAM, scheme)

	scheme, err = GetAuthScheme("")
	assert.NoError(t, err)
	assert.Equal(t, AuthSchemeNative, scheme)

	_, err = GetAuthScheme("telepathy")
	assert.Error(t, err)
}

func TestGetRedacted(t *testing.T) {
	account, err := CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", AuthSchemeNative, "topsecret", "")
	assert.NoError(t, err)

	redacted := account.GetRedacted()
	assert.NotEqual(t, "topsecret", redacted.Password)
	assert.Equal(t, "topsecret", account.Password)
}
