package fs

import (
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cyverse/go-irodsgrid/commons"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

func testFileSystem(t *testing.T) *FileSystem {
	account, err := types.CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", types.AuthSchemeNative, "rods", "")
	assert.NoError(t, err)

	filesystem, err := NewFileSystem(account, commons.NewDefaultConfig())
	assert.NoError(t, err)

	t.Cleanup(filesystem.Release)
	return filesystem
}

func TestEnsureControlBlockDefaults(t *testing.T) {
	filesystem := testFileSystem(t)

	tcb := filesystem.ensureControlBlock(nil)
	options := tcb.GetOptions()
	assert.Equal(t, commons.MaxParallelThreadsDefault, options.MaxThreads)
	assert.Equal(t, commons.SingleBufferThresholdDefault, options.SingleBufferSize)

	// a supplied block keeps its settings and only fills gaps
	supplied := types.NewTransferControlBlock(types.TransferOptions{
		MaxThreads: 2,
	})
	ensured := filesystem.ensureControlBlock(supplied)
	assert.Same(t, supplied, ensured)
	assert.Equal(t, 2, ensured.GetOptions().MaxThreads)
	assert.Equal(t, commons.SingleBufferThresholdDefault, ensured.GetOptions().SingleBufferSize)
}

func TestTransferReporterEmitsExactlyOneTerminal(t *testing.T) {
	account, err := types.CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", types.AuthSchemeNative, "rods", "")
	assert.NoError(t, err)

	tcb := types.NewTransferControlBlock(types.TransferOptions{})

	events := []*types.TransferStatus{}
	reporter := newTransferReporter(types.TransferTypePut, func(status *types.TransferStatus) {
		events = append(events, status)
	}, tcb, account)

	reporter.emit(types.TransferStateOverallInitiation, "/src", "/dst", nil)
	reporter.emit(types.TransferStateInProgress, "/src", "/dst", nil)
	assert.NoError(t, reporter.finish("/src", "/dst", nil))

	// a second finish does not emit another terminal
	assert.NoError(t, reporter.finish("/src", "/dst", nil))

	terminals := 0
	initiations := 0
	for _, event := range events {
		if event.State.IsTerminal() {
			terminals++
		}
		if event.State == types.TransferStateOverallInitiation {
			initiations++
		}
	}

	assert.Equal(t, 1, terminals)
	assert.Equal(t, 1, initiations)
}

func TestTransferReporterCancelledTerminal(t *testing.T) {
	account, err := types.CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", types.AuthSchemeNative, "rods", "")
	assert.NoError(t, err)

	tcb := types.NewTransferControlBlock(types.TransferOptions{})
	tcb.Cancel()

	var terminal *types.TransferStatus
	reporter := newTransferReporter(types.TransferTypeGet, func(status *types.TransferStatus) {
		if status.State.IsTerminal() {
			terminal = status
		}
	}, tcb, account)

	err = reporter.finish("/src", "/dst", nil)
	assert.Error(t, err)
	assert.True(t, types.IsCancelledError(err))
	assert.NotNil(t, terminal)
	assert.Equal(t, types.TransferStateCancelled, terminal.State)
}

func TestTransferReporterPropagatesFirstErrorWithoutCallback(t *testing.T) {
	account, err := types.CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", types.AuthSchemeNative, "rods", "")
	assert.NoError(t, err)

	tcb := types.NewTransferControlBlock(types.TransferOptions{})
	reporter := newTransferReporter(types.TransferTypePut, nil, tcb, account)

	perFileErr := types.NewPermissionDeniedError("/dst/file")
	reporter.emit(types.TransferStateFailure, "/src/file", "/dst/file", perFileErr)

	err = reporter.finish("/src", "/dst", nil)
	assert.Error(t, err)
	assert.True(t, types.IsPermissionDeniedError(err))
}

func TestTransferReporterSwallowsPerFileErrorsWithCallback(t *testing.T) {
	account, err := types.CreateIRODSAccount("irods.example", 1247, "rods", "tempZone", types.AuthSchemeNative, "rods", "")
	assert.NoError(t, err)

	tcb := types.NewTransferControlBlock(types.TransferOptions{})

	failures := 0
	reporter := newTransferReporter(types.TransferTypePut, func(status *types.TransferStatus) {
		if status.State == types.TransferStateFailure {
			failures++
		}
	}, tcb, account)

	reporter.emit(types.TransferStateFailure, "/src/file", "/dst/file", types.NewPermissionDeniedError("/dst/file"))

	assert.NoError(t, reporter.finish("/src", "/dst", nil))
	assert.Equal(t, 1, failures)
}

func TestPreCountLocalDir(t *testing.T) {
	root := t.TempDir()
	assert.NoError(t, os.MkdirAll(filepath.Join(root, "a", "c"), 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(root, "a", "b.txt"), []byte("x"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(root, "a", "c", "d.txt"), []byte("xy"), 0o644))

	files, bytes, err := preCountLocalDir(root)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), files)
	assert.Equal(t, int64(3), bytes)
}

func TestVerifyLocalChecksum(t *testing.T) {
	localPath := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("checksum me")
	assert.NoError(t, os.WriteFile(localPath, content, 0o644))

	hash := sha256.Sum256(content)
	catalogueChecksum := "sha2:" + base64.StdEncoding.EncodeToString(hash[:])

	assert.NoError(t, verifyLocalChecksum(localPath, catalogueChecksum))

	// mismatch is a protocol error
	err := verifyLocalChecksum(localPath, "sha2:AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	assert.Error(t, err)
	assert.True(t, types.IsProtocolError(err))

	// other schemes are skipped
	assert.NoError(t, verifyLocalChecksum(localPath, "d41d8cd98f00b204e9800998ecf8427e"))
}

func TestHandlePerFileErrorPolicy(t *testing.T) {
	filesystem := testFileSystem(t)

	tcb := types.NewTransferControlBlock(types.TransferOptions{})
	reporter := newTransferReporter(types.TransferTypePut, func(status *types.TransferStatus) {}, tcb, filesystem.account)

	// reported and swallowed with a callback
	err := filesystem.handlePerFileError(types.NewProtocolError("transient"), "/s", "/d", reporter, tcb)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), tcb.GetErrorCount())

	// cancellation always stops the walk
	err = filesystem.handlePerFileError(types.NewCancelledError("stop"), "/s", "/d", reporter, tcb)
	assert.Error(t, err)

	// auth errors surface immediately
	err = filesystem.handlePerFileError(types.NewAuthError("bad"), "/s", "/d", reporter, tcb)
	assert.Error(t, err)

	// fail-fast stops on the first reported failure
	failFast := types.NewTransferControlBlock(types.TransferOptions{FailFast: true})
	err = filesystem.handlePerFileError(types.NewProtocolError("x"), "/s", "/d", reporter, failFast)
	assert.Error(t, err)
}
