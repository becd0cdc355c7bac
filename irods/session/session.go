package session

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	log "github.com/sirupsen/logrus"

	"github.com/cyverse/go-irodsgrid/commons"
	"github.com/cyverse/go-irodsgrid/irods/connection"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

// IRODSSession hands out exclusively-owned connections for one account. A
// connection returned to the session is parked in an LRU of idle handles;
// eviction disconnects the evicted handle.
type IRODSSession struct {
	account         *types.IRODSAccount
	config          *commons.PipelineConfiguration
	applicationName string

	mutex    sync.Mutex
	occupied map[*connection.IRODSConnection]bool
	idle     *lru.Cache

	released bool
}

// NewIRODSSession creates an IRODSSession
func NewIRODSSession(account *types.IRODSAccount, config *commons.PipelineConfiguration, applicationName string) (*IRODSSession, error) {
	session := &IRODSSession{
		account:         account,
		config:          config,
		applicationName: applicationName,

		occupied: map[*connection.IRODSConnection]bool{},
	}

	idleCache, err := lru.New(commons.IdleConnectionMaxDefault)
	if err != nil {
		return nil, err
	}

	session.idle = idleCache
	return session, nil
}

// GetAccount returns the account of the session
func (session *IRODSSession) GetAccount() *types.IRODSAccount {
	return session.account
}

// AcquireConnection hands out a live connection with exclusive ownership.
// The caller must return it via ReturnConnection or DiscardConnection on
// every exit path.
func (session *IRODSSession) AcquireConnection() (*connection.IRODSConnection, error) {
	logger := log.WithFields(log.Fields{
		"package":  "session",
		"struct":   "IRODSSession",
		"function": "AcquireConnection",
	})

	session.mutex.Lock()

	if session.released {
		session.mutex.Unlock()
		return nil, types.NewInternalError("session is already released")
	}

	// reuse an idle connection when there is one
	for {
		_, value, ok := session.idle.RemoveOldest()
		if !ok {
			break
		}

		conn, ok := value.(*connection.IRODSConnection)
		if !ok || !conn.IsConnected() {
			continue
		}

		session.occupied[conn] = true
		session.mutex.Unlock()
		return conn, nil
	}

	session.mutex.Unlock()

	logger.Debugf("establishing a new connection for user %s", session.account.ProxyUser)

	conn := connection.NewIRODSConnection(session.account, session.config, session.applicationName)
	err := conn.Connect()
	if err != nil {
		return nil, err
	}

	session.mutex.Lock()
	session.occupied[conn] = true
	session.mutex.Unlock()

	return conn, nil
}

// ReturnConnection parks a healthy connection for reuse, or disconnects a
// broken one
func (session *IRODSSession) ReturnConnection(conn *connection.IRODSConnection) {
	session.mutex.Lock()
	defer session.mutex.Unlock()

	delete(session.occupied, conn)

	if session.released || !conn.IsConnected() {
		conn.Disconnect() //nolint:errcheck
		return
	}

	// make room before parking; the evicted handle is disconnected here
	// because the cache itself never owns teardown
	for session.idle.Len() >= commons.IdleConnectionMaxDefault {
		_, value, ok := session.idle.RemoveOldest()
		if !ok {
			break
		}

		if evicted, ok := value.(*connection.IRODSConnection); ok {
			evicted.Disconnect() //nolint:errcheck
		}
	}

	session.idle.Add(conn, conn)
}

// DiscardConnection disconnects a connection without parking it
func (session *IRODSSession) DiscardConnection(conn *connection.IRODSConnection) {
	session.mutex.Lock()
	delete(session.occupied, conn)
	session.mutex.Unlock()

	conn.Disconnect() //nolint:errcheck
}

// Release disconnects all connections and ends the session
func (session *IRODSSession) Release() {
	logger := log.WithFields(log.Fields{
		"package":  "session",
		"struct":   "IRODSSession",
		"function": "Release",
	})

	session.mutex.Lock()
	defer session.mutex.Unlock()

	if session.released {
		return
	}

	session.released = true

	logger.Debugf("releasing %d occupied and %d idle connections", len(session.occupied), session.idle.Len())

	for conn := range session.occupied {
		conn.Disconnect() //nolint:errcheck
	}
	session.occupied = map[*connection.IRODSConnection]bool{}

	for {
		_, value, ok := session.idle.RemoveOldest()
		if !ok {
			break
		}

		if conn, ok := value.(*connection.IRODSConnection); ok {
			conn.Disconnect() //nolint:errcheck
		}
	}

	session.idle.Purge()
}

// IRODSSessionRegistry is the process-wide mapping from account to session
type IRODSSessionRegistry struct {
	mutex    sync.Mutex
	sessions map[string]*IRODSSession
}

// NewIRODSSessionRegistry creates an IRODSSessionRegistry
func NewIRODSSessionRegistry() *IRODSSessionRegistry {
	return &IRODSSessionRegistry{
		sessions: map[string]*IRODSSession{},
	}
}

// GetSession returns the session for the account, creating one if needed
func (registry *IRODSSessionRegistry) GetSession(account *types.IRODSAccount, config *commons.PipelineConfiguration, applicationName string) (*IRODSSession, error) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	key := account.GetSessionKey()
	if session, ok := registry.sessions[key]; ok {
		return session, nil
	}

	session, err := NewIRODSSession(account, config, applicationName)
	if err != nil {
		return nil, err
	}

	registry.sessions[key] = session
	return session, nil
}

// Release releases every session in the registry
func (registry *IRODSSessionRegistry) Release() {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()

	for _, session := range registry.sessions {
		session.Release()
	}

	registry.sessions = map[string]*IRODSSession{}
}
