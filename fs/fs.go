package fs

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/cyverse/go-irodsgrid/commons"
	"github.com/cyverse/go-irodsgrid/irods/connection"
	"github.com/cyverse/go-irodsgrid/irods/message"
	"github.com/cyverse/go-irodsgrid/irods/session"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

// FileSystem is the path-centric facade over one account. Stat and listing
// results are cached with a TTL; every mutating operation invalidates the
// touched paths.
type FileSystem struct {
	account  *types.IRODSAccount
	config   *commons.Config
	pipeline *commons.PipelineConfiguration
	session  *session.IRODSSession

	statCache *gocache.Cache
	listCache *gocache.Cache
}

// NewFileSystem creates a FileSystem for the account
func NewFileSystem(account *types.IRODSAccount, config *commons.Config) (*FileSystem, error) {
	logger := log.WithFields(log.Fields{
		"package":  "fs",
		"struct":   "FileSystem",
		"function": "NewFileSystem",
	})

	if config == nil {
		config = commons.NewDefaultConfig()
	}

	pipeline := commons.NewPipelineConfiguration(config)

	irodsSession, err := session.NewIRODSSession(account, pipeline, commons.ClientProgramName)
	if err != nil {
		return nil, err
	}

	cacheTimeout := time.Duration(config.StatCacheTimeout)
	if cacheTimeout <= 0 {
		cacheTimeout = commons.StatCacheTimeoutDefault
	}

	logger.Debugf("created a filesystem for user %s zone %s", account.ClientUser, account.ClientZone)

	return &FileSystem{
		account:  account,
		config:   config,
		pipeline: pipeline,
		session:  irodsSession,

		statCache: gocache.New(cacheTimeout, cacheTimeout*2),
		listCache: gocache.New(cacheTimeout, cacheTimeout*2),
	}, nil
}

// Release disconnects every connection and ends the filesystem
func (filesystem *FileSystem) Release() {
	filesystem.statCache.Flush()
	filesystem.listCache.Flush()
	filesystem.session.Release()
}

// GetAccount returns the account
func (filesystem *FileSystem) GetAccount() *types.IRODSAccount {
	return filesystem.account
}

// GetPipelineConfiguration returns the io tuning snapshot
func (filesystem *FileSystem) GetPipelineConfiguration() *commons.PipelineConfiguration {
	return filesystem.pipeline
}

// NewFile creates an IRODSFile entity for the path. A relative path is
// resolved against the account's home directory.
func (filesystem *FileSystem) NewFile(path string) *IRODSFile {
	return NewIRODSFile(filesystem, path)
}

// canonicalize resolves a path against the account home
func (filesystem *FileSystem) canonicalize(path string) *IRODSPath {
	return NewIRODSPath(path, filesystem.account.GetHomeDirPath())
}

func (filesystem *FileSystem) acquireConnection() (*connection.IRODSConnection, error) {
	return filesystem.session.AcquireConnection()
}

func (filesystem *FileSystem) returnConnection(conn *connection.IRODSConnection) {
	filesystem.session.ReturnConnection(conn)
}

func (filesystem *FileSystem) discardConnection(conn *connection.IRODSConnection) {
	filesystem.session.DiscardConnection(conn)
}

// Stat resolves a path to its catalogue entry, collection first
func (filesystem *FileSystem) Stat(path string) (*types.IRODSEntry, error) {
	irodsPath := filesystem.canonicalize(path).String()

	if cached, ok := filesystem.statCache.Get(irodsPath); ok {
		if entry, ok := cached.(*types.IRODSEntry); ok {
			if entry.Type == types.ObjectTypeUnknown {
				return nil, types.NewFileNotFoundError(irodsPath)
			}
			return entry, nil
		}
	}

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return nil, err
	}
	defer filesystem.returnConnection(conn)

	entry, err := statCollection(conn, irodsPath)
	if err != nil {
		if !types.IsFileNotFoundError(err) {
			return nil, err
		}

		entry, err = statDataObject(conn, irodsPath)
		if err != nil {
			if types.IsFileNotFoundError(err) {
				// negative entry, invalidated by any mutation of the path
				filesystem.statCache.SetDefault(irodsPath, &types.IRODSEntry{
					Type: types.ObjectTypeUnknown,
					Path: irodsPath,
				})
			}
			return nil, err
		}
	}

	filesystem.statCache.SetDefault(irodsPath, entry)
	return entry, nil
}

// Exists returns true when the path resolves to any entry. Not-found is
// reported as false, never as an error.
func (filesystem *FileSystem) Exists(path string) bool {
	entry, err := filesystem.Stat(path)
	return err == nil && entry != nil
}

// ExistsFile returns true when the path resolves to a data object
func (filesystem *FileSystem) ExistsFile(path string) bool {
	entry, err := filesystem.Stat(path)
	return err == nil && entry != nil && entry.Type == types.ObjectTypeDataObject
}

// ExistsDir returns true when the path resolves to a collection
func (filesystem *FileSystem) ExistsDir(path string) bool {
	entry, err := filesystem.Stat(path)
	return err == nil && entry != nil && entry.Type == types.ObjectTypeCollection
}

// List returns the entries directly under a collection
func (filesystem *FileSystem) List(path string) ([]*types.IRODSEntry, error) {
	irodsPath := filesystem.canonicalize(path).String()

	if cached, ok := filesystem.listCache.Get(irodsPath); ok {
		if entries, ok := cached.([]*types.IRODSEntry); ok {
			return entries, nil
		}
	}

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return nil, err
	}
	defer filesystem.returnConnection(conn)

	collections, err := listSubCollections(conn, irodsPath)
	if err != nil {
		return nil, err
	}

	dataObjects, err := listDataObjects(conn, irodsPath)
	if err != nil {
		return nil, err
	}

	entries := append(collections, dataObjects...)

	filesystem.listCache.SetDefault(irodsPath, entries)

	// entering entities from a listing refreshes their stat entries
	for _, entry := range entries {
		filesystem.statCache.SetDefault(entry.Path, entry)
	}

	return entries, nil
}

// MakeDir creates a collection. With recurse, missing intermediate
// collections are created too. Returns false without error when the
// collection already exists.
func (filesystem *FileSystem) MakeDir(path string, recurse bool) (bool, error) {
	irodsPath := filesystem.canonicalize(path).String()

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return false, err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessageMakeCollRequest(irodsPath, recurse)
	response := message.IRODSMessageEmptyResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		if types.IsAlreadyExistsError(err) {
			return false, nil
		}
		return false, err
	}

	filesystem.invalidateCachePath(irodsPath)
	return true, nil
}

// RemoveFile removes a data object
func (filesystem *FileSystem) RemoveFile(path string, force bool) error {
	irodsPath := filesystem.canonicalize(path).String()

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessageRmDataObjRequest(irodsPath, force)
	response := message.IRODSMessageEmptyResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		return err
	}

	filesystem.invalidateCachePath(irodsPath)
	return nil
}

// RemoveDir removes a collection
func (filesystem *FileSystem) RemoveDir(path string, recurse bool, force bool) error {
	irodsPath := filesystem.canonicalize(path).String()

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessageRmCollRequest(irodsPath, recurse, force)
	response := message.IRODSMessageCollOprStatResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		return err
	}

	filesystem.invalidateCachePath(irodsPath)
	return nil
}

// RenameFile renames a data object
func (filesystem *FileSystem) RenameFile(srcPath string, destPath string) error {
	irodsSrcPath := filesystem.canonicalize(srcPath).String()
	irodsDestPath := filesystem.canonicalize(destPath).String()

	if irodsSrcPath == irodsDestPath {
		// rename to the identical path is a no-op
		return nil
	}

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessageRenameDataObjRequest(irodsSrcPath, irodsDestPath)
	response := message.IRODSMessageEmptyResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		return err
	}

	filesystem.invalidateCachePath(irodsSrcPath)
	filesystem.invalidateCachePath(irodsDestPath)
	return nil
}

// RenameDir renames a collection
func (filesystem *FileSystem) RenameDir(srcPath string, destPath string) error {
	irodsSrcPath := filesystem.canonicalize(srcPath).String()
	irodsDestPath := filesystem.canonicalize(destPath).String()

	if irodsSrcPath == irodsDestPath {
		return nil
	}

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessageRenameCollRequest(irodsSrcPath, irodsDestPath)
	response := message.IRODSMessageEmptyResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		return err
	}

	filesystem.invalidateCachePath(irodsSrcPath)
	filesystem.invalidateCachePath(irodsDestPath)
	return nil
}

// PhysicalMove moves the replicas of a data object to another resource
func (filesystem *FileSystem) PhysicalMove(path string, resource string) error {
	irodsPath := filesystem.canonicalize(path).String()

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessagePhymvDataObjRequest(irodsPath, resource)
	response := message.IRODSMessageEmptyResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		return err
	}

	filesystem.invalidateCachePath(irodsPath)
	return nil
}

// invalidateCachePath drops the stat and listing entries of a path and its
// parent listing
func (filesystem *FileSystem) invalidateCachePath(path string) {
	filesystem.statCache.Delete(path)
	filesystem.listCache.Delete(path)

	parent := NewIRODSPath(path, "/").Parent().String()
	filesystem.listCache.Delete(parent)
}
