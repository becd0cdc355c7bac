package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyverse/go-irodsgrid/commons"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

func testAccount(t *testing.T, user string) *types.IRODSAccount {
	account, err := types.CreateIRODSAccount("irods.example", 1247, user, "tempZone", types.AuthSchemeNative, "secret", "")
	assert.NoError(t, err)
	return account
}

func TestSessionRegistryMapsAccounts(t *testing.T) {
	registry := NewIRODSSessionRegistry()
	config := commons.NewDefaultPipelineConfiguration()

	rods := testAccount(t, "rods")
	alice := testAccount(t, "alice")

	session1, err := registry.GetSession(rods, config, "test")
	assert.NoError(t, err)

	session2, err := registry.GetSession(rods, config, "test")
	assert.NoError(t, err)

	session3, err := registry.GetSession(alice, config, "test")
	assert.NoError(t, err)

	// one session per account key
	assert.Same(t, session1, session2)
	assert.NotSame(t, session1, session3)

	registry.Release()
}

func TestSessionRejectsUseAfterRelease(t *testing.T) {
	account := testAccount(t, "rods")
	session, err := NewIRODSSession(account, commons.NewDefaultPipelineConfiguration(), "test")
	assert.NoError(t, err)

	session.Release()

	_, err = session.AcquireConnection()
	assert.Error(t, err)
	assert.True(t, types.IsInternalError(err))

	// release is idempotent
	session.Release()
}
