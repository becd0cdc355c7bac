package fs

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/cyverse/go-irodsgrid/irods/connection"
	"github.com/cyverse/go-irodsgrid/irods/message"
	"github.com/cyverse/go-irodsgrid/irods/transfer"
	"github.com/cyverse/go-irodsgrid/irods/types"
	"github.com/cyverse/go-irodsgrid/utils"
)

// transferReporter publishes transfer status events to a caller-supplied
// callback. It guarantees exactly one terminal event per transfer and keeps
// the first error for the no-callback propagation policy.
type transferReporter struct {
	transferType types.TransferType
	callback     types.TransferStatusCallback
	tcb          *types.TransferControlBlock
	host         string
	zone         string

	terminal atomic.Bool
	resource string

	errMutex sync.Mutex
	firstErr error
}

func newTransferReporter(transferType types.TransferType, callback types.TransferStatusCallback, tcb *types.TransferControlBlock, account *types.IRODSAccount) *transferReporter {
	return &transferReporter{
		transferType: transferType,
		callback:     callback,
		tcb:          tcb,
		host:         account.Host,
		zone:         account.ClientZone,
	}
}

func (reporter *transferReporter) emit(state types.TransferState, sourcePath string, targetPath string, err error) {
	if state.IsTerminal() {
		if !reporter.terminal.CompareAndSwap(false, true) {
			return
		}
	}

	reporter.send(state, sourcePath, targetPath, err)
}

func (reporter *transferReporter) send(state types.TransferState, sourcePath string, targetPath string, err error) {
	if err != nil {
		reporter.errMutex.Lock()
		if reporter.firstErr == nil {
			reporter.firstErr = err
		}
		reporter.errMutex.Unlock()
	}

	if reporter.callback == nil {
		return
	}

	reporter.callback(&types.TransferStatus{
		Type:           reporter.transferType,
		State:          state,
		SourcePath:     sourcePath,
		TargetPath:     targetPath,
		TargetResource: reporter.resource,

		BytesTransferred: reporter.tcb.GetTransferredBytes(),
		BytesTotal:       reporter.tcb.GetTotalBytes(),
		FilesTransferred: reporter.tcb.GetTransferredFiles(),
		FilesTotal:       reporter.tcb.GetTotalFiles(),

		Host: reporter.host,
		Zone: reporter.zone,

		Error: err,
	})
}

func (reporter *transferReporter) getFirstError() error {
	reporter.errMutex.Lock()
	defer reporter.errMutex.Unlock()

	return reporter.firstErr
}

// finish emits the terminal event matching the outcome and applies the
// propagation policy: with a callback, per-file errors were already
// swallowed into events; without one, the first error propagates.
func (reporter *transferReporter) finish(sourcePath string, targetPath string, err error) error {
	if err != nil {
		if types.IsCancelledError(err) {
			reporter.emit(types.TransferStateCancelled, sourcePath, targetPath, err)
		} else if reporter.terminal.CompareAndSwap(false, true) {
			// the failure ending the whole transfer is terminal, unlike
			// per-file failure events
			reporter.send(types.TransferStateFailure, sourcePath, targetPath, err)
		}
		return err
	}

	if reporter.tcb.Cancelled() {
		cancelErr := types.NewCancelledError("transfer cancelled")
		reporter.emit(types.TransferStateCancelled, sourcePath, targetPath, cancelErr)
		return cancelErr
	}

	reporter.emit(types.TransferStateOverallCompletion, sourcePath, targetPath, nil)

	if reporter.callback == nil {
		return reporter.getFirstError()
	}

	return nil
}

// ensureControlBlock creates a control block with defaults derived from the
// pipeline configuration when the caller did not supply one
func (filesystem *FileSystem) ensureControlBlock(tcb *types.TransferControlBlock) *types.TransferControlBlock {
	if tcb != nil {
		options := tcb.GetOptions()
		changed := false
		if options.MaxThreads <= 0 {
			options.MaxThreads = filesystem.pipeline.MaxParallelThreads
			changed = true
		}
		if options.SingleBufferSize <= 0 {
			options.SingleBufferSize = filesystem.pipeline.SingleBufferThreshold
			changed = true
		}
		if changed {
			tcb.SetOptions(options)
		}
		return tcb
	}

	return types.NewTransferControlBlock(types.TransferOptions{
		MaxThreads:       filesystem.pipeline.MaxParallelThreads,
		SingleBufferSize: filesystem.pipeline.SingleBufferThreshold,
		AllowRedirect:    true,
	})
}

// Put uploads a local file or directory to iRODS
func (filesystem *FileSystem) Put(localPath string, irodsPath string, callback types.TransferStatusCallback, tcb *types.TransferControlBlock) error {
	logger := log.WithFields(log.Fields{
		"package":  "fs",
		"struct":   "FileSystem",
		"function": "Put",
	})

	defer utils.StackTraceFromPanic(logger)

	tcb = filesystem.ensureControlBlock(tcb)
	reporter := newTransferReporter(types.TransferTypePut, callback, tcb, filesystem.account)

	localStat, err := os.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = types.NewFileNotFoundError(localPath)
		}
		return reporter.finish(localPath, irodsPath, err)
	}

	target := filesystem.canonicalize(irodsPath)

	if localStat.IsDir() {
		files, bytes, err := preCountLocalDir(localPath)
		if err != nil {
			return reporter.finish(localPath, target.String(), err)
		}

		tcb.SetTotalFiles(files)
		tcb.SetTotalBytes(bytes)
		reporter.emit(types.TransferStateOverallInitiation, localPath, target.String(), nil)

		// the target must be an existing collection or not exist at all
		if filesystem.ExistsFile(target.String()) {
			return reporter.finish(localPath, target.String(),
				types.NewDuplicateDataError("put target "+target.String()+" is an existing data object"))
		}

		destRoot := target.Join(filepath.Base(localPath))
		_, err = filesystem.MakeDir(destRoot.String(), true)
		if err != nil {
			return reporter.finish(localPath, destRoot.String(), err)
		}

		err = filesystem.putDirRecursive(localPath, destRoot, reporter, tcb)
		return reporter.finish(localPath, destRoot.String(), err)
	}

	tcb.SetTotalFiles(1)
	tcb.SetTotalBytes(localStat.Size())
	reporter.emit(types.TransferStateOverallInitiation, localPath, target.String(), nil)

	// put of a file into an existing collection lands under its leaf name
	if filesystem.ExistsDir(target.String()) {
		target = target.Join(filepath.Base(localPath))
	}

	err = filesystem.putFileWithRetry(localPath, target, localStat.Size(), reporter, tcb)
	if err != nil {
		return reporter.finish(localPath, target.String(), err)
	}

	logger.Debugf("put %q to %q", localPath, target.String())
	return reporter.finish(localPath, target.String(), nil)
}

func (filesystem *FileSystem) putDirRecursive(localDir string, remoteDir *IRODSPath, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return xerrors.Errorf("failed to list local directory %q: %w", localDir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if tcb.Cancelled() {
			return types.NewCancelledError("put cancelled")
		}

		localEntryPath := filepath.Join(localDir, entry.Name())
		remoteEntryPath := remoteDir.Join(entry.Name())

		if entry.IsDir() {
			_, err := filesystem.MakeDir(remoteEntryPath.String(), true)
			if err != nil {
				if policyErr := filesystem.handlePerFileError(err, localEntryPath, remoteEntryPath.String(), reporter, tcb); policyErr != nil {
					return policyErr
				}
				continue
			}

			err = filesystem.putDirRecursive(localEntryPath, remoteEntryPath, reporter, tcb)
			if err != nil {
				return err
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if policyErr := filesystem.handlePerFileError(err, localEntryPath, remoteEntryPath.String(), reporter, tcb); policyErr != nil {
				return policyErr
			}
			continue
		}

		err = filesystem.putFileWithRetry(localEntryPath, remoteEntryPath, info.Size(), reporter, tcb)
		if err != nil {
			if policyErr := filesystem.handlePerFileError(err, localEntryPath, remoteEntryPath.String(), reporter, tcb); policyErr != nil {
				return policyErr
			}
		}
	}

	return nil
}

// handlePerFileError applies the error policy: cancellation and
// unrecoverable classes stop the transfer, anything else is reported and
// counted, and the walk continues unless FailFast is set
func (filesystem *FileSystem) handlePerFileError(err error, sourcePath string, targetPath string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	if err == nil {
		return nil
	}

	if types.IsCancelledError(err) {
		return err
	}

	// auth, permission and not-found failures surface immediately
	if types.IsAuthError(err) || types.IsPermissionDeniedError(err) || types.IsFileNotFoundError(err) {
		return err
	}

	tcb.IncrementErrorCount()
	reporter.emit(types.TransferStateFailure, sourcePath, targetPath, err)

	if tcb.GetOptions().FailFast {
		return err
	}

	if reporter.callback == nil {
		// without a callback the first error propagates
		return err
	}

	return nil
}

// putFileWithRetry retries a recoverable per-file failure once
func (filesystem *FileSystem) putFileWithRetry(localPath string, remotePath *IRODSPath, size int64, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	err := filesystem.putFile(localPath, remotePath, size, reporter, tcb)
	if err != nil && types.IsRecoverableError(err) && !tcb.Cancelled() {
		reporter.emit(types.TransferStateRestarting, localPath, remotePath.String(), err)
		err = filesystem.putFile(localPath, remotePath, size, reporter, tcb)
	}

	return err
}

func (filesystem *FileSystem) putFile(localPath string, remotePath *IRODSPath, size int64, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	if tcb.Cancelled() {
		return types.NewCancelledError("put cancelled")
	}

	options := tcb.GetOptions()

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	resource := filesystem.account.DefaultResource

	if size <= options.SingleBufferSize {
		err = filesystem.putFileSingleBuffer(conn, localPath, remotePath, size, resource, options, tcb)
	} else {
		err = filesystem.putFileParallel(conn, localPath, remotePath, size, resource, reporter, tcb)
	}
	if err != nil {
		return err
	}

	filesystem.invalidateCachePath(remotePath.String())
	tcb.IncrementTransferredFiles()
	reporter.emit(types.TransferStateSuccess, localPath, remotePath.String(), nil)
	return nil
}

// putFileSingleBuffer exchanges the whole payload as one in-band bulk blob
func (filesystem *FileSystem) putFileSingleBuffer(conn *connection.IRODSConnection, localPath string, remotePath *IRODSPath, size int64, resource string, options types.TransferOptions, tcb *types.TransferControlBlock) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return xerrors.Errorf("failed to open local file %q: %w", localPath, err)
	}
	defer localFile.Close() //nolint:errcheck

	request := message.NewIRODSMessagePutDataObjRequest(remotePath.String(), resource, size, 0, options.Force, options.ComputeChecksum, options.VerifyChecksum)
	request.KeyVals.Add(message.DATA_INCLUDED_KW, "")

	response := message.IRODSMessageEmptyResponse{}
	reader := bufio.NewReaderSize(localFile, filesystem.pipeline.LocalFileInputStreamBufferSize)
	err = conn.RequestWithBSStream(request, &response, reader, size)
	if err != nil {
		return err
	}

	tcb.AddTransferredBytes(size)
	return nil
}

// putFileParallel opens the portal data phase and finishes with the
// mandatory OprComplete handshake
func (filesystem *FileSystem) putFileParallel(conn *connection.IRODSConnection, localPath string, remotePath *IRODSPath, size int64, resource string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	logger := log.WithFields(log.Fields{
		"package":  "fs",
		"struct":   "FileSystem",
		"function": "putFileParallel",
	})

	options := tcb.GetOptions()

	request := message.NewIRODSMessagePutDataObjRequest(remotePath.String(), resource, size, options.MaxThreads, options.Force, options.ComputeChecksum, options.VerifyChecksum)
	portal := message.IRODSMessagePortalOprResponse{}
	err := conn.Request(request, &portal)
	if err != nil {
		return err
	}

	if !portal.UsesParallelTransfer() {
		return types.NewProtocolErrorf("server did not hand out a data port list for %q", remotePath.String())
	}

	endpoints := transfer.EndpointsFromPortalResponse(&portal, filesystem.account.Host)
	config, err := filesystem.parallelConfig(conn)
	if err != nil {
		return err
	}

	transferErr := transfer.ParallelUpload(endpoints, localPath, size, config, tcb, func(delta int64) {
		reporter.emit(types.TransferStateInProgress, localPath, remotePath.String(), nil)
	})

	// the handshake releases the server-side operation, it runs on success
	// and on failure alike
	oprErr := filesystem.sendOprComplete(conn, portal.FileDescriptor)
	if oprErr != nil {
		logger.WithError(oprErr).Errorf("failed to send OprComplete for %q, the server-side operation may be stuck", remotePath.String())
	}

	if transferErr != nil {
		return transferErr
	}

	return oprErr
}

// parallelConfig assembles the data-phase tuning, wiring the AES layer when
// the session negotiated SSL
func (filesystem *FileSystem) parallelConfig(conn *connection.IRODSConnection) (*transfer.ParallelConfig, error) {
	config := &transfer.ParallelConfig{
		Timeout:       filesystem.pipeline.ParallelOperationTimeout,
		TCPBufferSize: filesystem.pipeline.TCPBufferSize,
		BufferSize:    filesystem.pipeline.SendInputStreamBufferSize,
	}

	negotiated := conn.GetNegotiatedSession()
	if negotiated != nil && negotiated.UseSSL {
		cipher, err := transfer.NewAESCipher(negotiated)
		if err != nil {
			return nil, err
		}
		config.Cipher = cipher
	}

	return config, nil
}

// sendOprComplete runs the control-channel handshake ending a parallel data
// phase
func (filesystem *FileSystem) sendOprComplete(conn *connection.IRODSConnection, fd int) error {
	request := message.NewIRODSMessageOprComplete(fd)
	response := message.IRODSMessageEmptyResponse{}
	return conn.Request(request, &response)
}

// Get downloads a data object or collection to a local path
func (filesystem *FileSystem) Get(irodsPath string, localPath string, callback types.TransferStatusCallback, tcb *types.TransferControlBlock) error {
	logger := log.WithFields(log.Fields{
		"package":  "fs",
		"struct":   "FileSystem",
		"function": "Get",
	})

	defer utils.StackTraceFromPanic(logger)

	tcb = filesystem.ensureControlBlock(tcb)
	reporter := newTransferReporter(types.TransferTypeGet, callback, tcb, filesystem.account)

	source := filesystem.canonicalize(irodsPath)

	entry, err := filesystem.Stat(source.String())
	if err != nil {
		return reporter.finish(source.String(), localPath, err)
	}

	if entry.Type == types.ObjectTypeCollection {
		files, bytes, err := filesystem.preCountRemoteDir(source.String())
		if err != nil {
			return reporter.finish(source.String(), localPath, err)
		}

		tcb.SetTotalFiles(files)
		tcb.SetTotalBytes(bytes)
		reporter.emit(types.TransferStateOverallInitiation, source.String(), localPath, nil)

		destRoot := filepath.Join(localPath, source.Name())
		err = os.MkdirAll(destRoot, 0o755)
		if err != nil {
			return reporter.finish(source.String(), destRoot, xerrors.Errorf("failed to create local directory %q: %w", destRoot, err))
		}

		err = filesystem.getDirRecursive(source, destRoot, reporter, tcb)
		return reporter.finish(source.String(), destRoot, err)
	}

	tcb.SetTotalFiles(1)
	tcb.SetTotalBytes(entry.Size)
	reporter.emit(types.TransferStateOverallInitiation, source.String(), localPath, nil)

	localTarget := localPath
	if stat, err := os.Stat(localPath); err == nil && stat.IsDir() {
		localTarget = filepath.Join(localPath, source.Name())
	}

	err = filesystem.getFileWithRetry(entry, localTarget, reporter, tcb)
	if err != nil {
		return reporter.finish(source.String(), localTarget, err)
	}

	return reporter.finish(source.String(), localTarget, nil)
}

func (filesystem *FileSystem) getDirRecursive(remoteDir *IRODSPath, localDir string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	entries, err := filesystem.List(remoteDir.String())
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if tcb.Cancelled() {
			return types.NewCancelledError("get cancelled")
		}

		localEntryPath := filepath.Join(localDir, entry.Name)

		if entry.Type == types.ObjectTypeCollection {
			err := os.MkdirAll(localEntryPath, 0o755)
			if err != nil {
				wrapped := xerrors.Errorf("failed to create local directory %q: %w", localEntryPath, err)
				if policyErr := filesystem.handlePerFileError(wrapped, entry.Path, localEntryPath, reporter, tcb); policyErr != nil {
					return policyErr
				}
				continue
			}

			err = filesystem.getDirRecursive(filesystem.canonicalize(entry.Path), localEntryPath, reporter, tcb)
			if err != nil {
				return err
			}
			continue
		}

		err := filesystem.getFileWithRetry(entry, localEntryPath, reporter, tcb)
		if err != nil {
			if policyErr := filesystem.handlePerFileError(err, entry.Path, localEntryPath, reporter, tcb); policyErr != nil {
				return policyErr
			}
		}
	}

	return nil
}

func (filesystem *FileSystem) getFileWithRetry(entry *types.IRODSEntry, localPath string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	err := filesystem.getFile(entry, localPath, reporter, tcb)
	if err != nil && types.IsRecoverableError(err) && !tcb.Cancelled() {
		reporter.emit(types.TransferStateRestarting, entry.Path, localPath, err)
		err = filesystem.getFile(entry, localPath, reporter, tcb)
	}

	return err
}

func (filesystem *FileSystem) getFile(entry *types.IRODSEntry, localPath string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	if tcb.Cancelled() {
		return types.NewCancelledError("get cancelled")
	}

	options := tcb.GetOptions()

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	if entry.Size <= options.SingleBufferSize {
		err = filesystem.getFileSingleBuffer(conn, entry, localPath, tcb)
	} else {
		err = filesystem.getFileParallel(conn, entry, localPath, reporter, tcb)
	}
	if err != nil {
		return err
	}

	if options.VerifyChecksum {
		err = verifyLocalChecksum(localPath, entry.Checksum)
		if err != nil {
			return err
		}
	}

	tcb.IncrementTransferredFiles()
	reporter.emit(types.TransferStateSuccess, entry.Path, localPath, nil)
	return nil
}

func (filesystem *FileSystem) getFileSingleBuffer(conn *connection.IRODSConnection, entry *types.IRODSEntry, localPath string, tcb *types.TransferControlBlock) error {
	localFile, err := os.Create(localPath)
	if err != nil {
		return xerrors.Errorf("failed to create local file %q: %w", localPath, err)
	}
	defer localFile.Close() //nolint:errcheck

	request := message.NewIRODSMessageGetDataObjRequest(entry.Path, "", 0, false)
	response := message.IRODSMessageEmptyResponse{}

	writer := bufio.NewWriterSize(localFile, filesystem.pipeline.LocalFileOutputStreamBufferSize)
	copied, err := conn.RequestStreamBS(request, &response, writer)
	if err != nil {
		return err
	}

	err = writer.Flush()
	if err != nil {
		return xerrors.Errorf("failed to flush local file %q: %w", localPath, err)
	}

	tcb.AddTransferredBytes(copied)
	return nil
}

func (filesystem *FileSystem) getFileParallel(conn *connection.IRODSConnection, entry *types.IRODSEntry, localPath string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	logger := log.WithFields(log.Fields{
		"package":  "fs",
		"struct":   "FileSystem",
		"function": "getFileParallel",
	})

	options := tcb.GetOptions()

	request := message.NewIRODSMessageGetDataObjRequest(entry.Path, "", options.MaxThreads, false)
	portal := message.IRODSMessagePortalOprResponse{}
	err := conn.Request(request, &portal)
	if err != nil {
		return err
	}

	if !portal.UsesParallelTransfer() {
		return types.NewProtocolErrorf("server did not hand out a data port list for %q", entry.Path)
	}

	endpoints := transfer.EndpointsFromPortalResponse(&portal, filesystem.account.Host)
	config, err := filesystem.parallelConfig(conn)
	if err != nil {
		return err
	}

	transferErr := transfer.ParallelDownload(endpoints, localPath, config, tcb, func(delta int64) {
		reporter.emit(types.TransferStateInProgress, entry.Path, localPath, nil)
	})

	oprErr := filesystem.sendOprComplete(conn, portal.FileDescriptor)
	if oprErr != nil {
		logger.WithError(oprErr).Errorf("failed to send OprComplete for %q, the server-side operation may be stuck", entry.Path)
	}

	if transferErr != nil {
		return transferErr
	}

	return oprErr
}

// Replicate replicates a data object, or every data object under a
// collection, to the given resource
func (filesystem *FileSystem) Replicate(irodsPath string, resource string, callback types.TransferStatusCallback, tcb *types.TransferControlBlock) error {
	tcb = filesystem.ensureControlBlock(tcb)
	reporter := newTransferReporter(types.TransferTypeReplicate, callback, tcb, filesystem.account)
	reporter.resource = resource

	source := filesystem.canonicalize(irodsPath)

	entry, err := filesystem.Stat(source.String())
	if err != nil {
		return reporter.finish(source.String(), source.String(), err)
	}

	if entry.Type == types.ObjectTypeCollection {
		files, bytes, err := filesystem.preCountRemoteDir(source.String())
		if err != nil {
			return reporter.finish(source.String(), source.String(), err)
		}

		tcb.SetTotalFiles(files)
		tcb.SetTotalBytes(bytes)
		reporter.emit(types.TransferStateOverallInitiation, source.String(), source.String(), nil)

		err = filesystem.replicateDirRecursive(source, resource, reporter, tcb)
		return reporter.finish(source.String(), source.String(), err)
	}

	tcb.SetTotalFiles(1)
	tcb.SetTotalBytes(entry.Size)
	reporter.emit(types.TransferStateOverallInitiation, source.String(), source.String(), nil)

	err = filesystem.replicateFile(entry, resource, reporter, tcb)
	return reporter.finish(source.String(), source.String(), err)
}

func (filesystem *FileSystem) replicateDirRecursive(remoteDir *IRODSPath, resource string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	entries, err := filesystem.List(remoteDir.String())
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if tcb.Cancelled() {
			return types.NewCancelledError("replicate cancelled")
		}

		if entry.Type == types.ObjectTypeCollection {
			err := filesystem.replicateDirRecursive(filesystem.canonicalize(entry.Path), resource, reporter, tcb)
			if err != nil {
				return err
			}
			continue
		}

		err := filesystem.replicateFile(entry, resource, reporter, tcb)
		if err != nil {
			if policyErr := filesystem.handlePerFileError(err, entry.Path, entry.Path, reporter, tcb); policyErr != nil {
				return policyErr
			}
		}
	}

	return nil
}

func (filesystem *FileSystem) replicateFile(entry *types.IRODSEntry, resource string, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	if tcb.Cancelled() {
		return types.NewCancelledError("replicate cancelled")
	}

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessageReplicateDataObjRequest(entry.Path, resource)
	response := message.IRODSMessageEmptyResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		return err
	}

	tcb.AddTransferredBytes(entry.Size)
	tcb.IncrementTransferredFiles()
	reporter.emit(types.TransferStateSuccess, entry.Path, entry.Path, nil)
	return nil
}

// Copy copies within iRODS
func (filesystem *FileSystem) Copy(srcPath string, destResource string, destPath string, force bool, callback types.TransferStatusCallback, tcb *types.TransferControlBlock) error {
	tcb = filesystem.ensureControlBlock(tcb)
	reporter := newTransferReporter(types.TransferTypeCopy, callback, tcb, filesystem.account)
	reporter.resource = destResource

	source := filesystem.canonicalize(srcPath)
	target := filesystem.canonicalize(destPath)

	entry, err := filesystem.Stat(source.String())
	if err != nil {
		return reporter.finish(source.String(), target.String(), err)
	}

	if entry.Type == types.ObjectTypeCollection {
		files, bytes, err := filesystem.preCountRemoteDir(source.String())
		if err != nil {
			return reporter.finish(source.String(), target.String(), err)
		}

		destRoot := target
		if filesystem.ExistsDir(target.String()) {
			destRoot = target.Join(source.Name())
		}

		if destRoot.Equals(source) {
			return reporter.finish(source.String(), destRoot.String(),
				types.NewDuplicateDataError("copy of "+source.String()+" into its own parent"))
		}

		tcb.SetTotalFiles(files)
		tcb.SetTotalBytes(bytes)
		reporter.emit(types.TransferStateOverallInitiation, source.String(), destRoot.String(), nil)

		_, err = filesystem.MakeDir(destRoot.String(), true)
		if err != nil {
			return reporter.finish(source.String(), destRoot.String(), err)
		}

		err = filesystem.copyDirRecursive(source, destRoot, destResource, force, reporter, tcb)
		return reporter.finish(source.String(), destRoot.String(), err)
	}

	finalTarget := target
	if filesystem.ExistsDir(target.String()) {
		finalTarget = target.Join(source.Name())
	}

	if finalTarget.Equals(source) {
		return reporter.finish(source.String(), finalTarget.String(),
			types.NewDuplicateDataError("copy of "+source.String()+" onto itself"))
	}

	tcb.SetTotalFiles(1)
	tcb.SetTotalBytes(entry.Size)
	reporter.emit(types.TransferStateOverallInitiation, source.String(), finalTarget.String(), nil)

	err = filesystem.copyFile(entry, finalTarget, destResource, force, reporter, tcb)
	return reporter.finish(source.String(), finalTarget.String(), err)
}

func (filesystem *FileSystem) copyDirRecursive(remoteDir *IRODSPath, destDir *IRODSPath, destResource string, force bool, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	entries, err := filesystem.List(remoteDir.String())
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if tcb.Cancelled() {
			return types.NewCancelledError("copy cancelled")
		}

		destEntryPath := destDir.Join(entry.Name)

		if entry.Type == types.ObjectTypeCollection {
			_, err := filesystem.MakeDir(destEntryPath.String(), true)
			if err != nil {
				if policyErr := filesystem.handlePerFileError(err, entry.Path, destEntryPath.String(), reporter, tcb); policyErr != nil {
					return policyErr
				}
				continue
			}

			err = filesystem.copyDirRecursive(filesystem.canonicalize(entry.Path), destEntryPath, destResource, force, reporter, tcb)
			if err != nil {
				return err
			}
			continue
		}

		err := filesystem.copyFile(entry, destEntryPath, destResource, force, reporter, tcb)
		if err != nil {
			if policyErr := filesystem.handlePerFileError(err, entry.Path, destEntryPath.String(), reporter, tcb); policyErr != nil {
				return policyErr
			}
		}
	}

	return nil
}

func (filesystem *FileSystem) copyFile(entry *types.IRODSEntry, destPath *IRODSPath, destResource string, force bool, reporter *transferReporter, tcb *types.TransferControlBlock) error {
	if tcb.Cancelled() {
		return types.NewCancelledError("copy cancelled")
	}

	conn, err := filesystem.acquireConnection()
	if err != nil {
		return err
	}
	defer filesystem.returnConnection(conn)

	request := message.NewIRODSMessageCopyDataObjRequest(entry.Path, destPath.String(), destResource, force)
	response := message.IRODSMessageEmptyResponse{}
	err = conn.Request(request, &response)
	if err != nil {
		return err
	}

	filesystem.invalidateCachePath(destPath.String())
	tcb.AddTransferredBytes(entry.Size)
	tcb.IncrementTransferredFiles()
	reporter.emit(types.TransferStateSuccess, entry.Path, destPath.String(), nil)
	return nil
}

// Move renames a data object or collection. Moving to the identical target
// is a silent no-op.
func (filesystem *FileSystem) Move(srcPath string, destPath string) error {
	source := filesystem.canonicalize(srcPath)
	target := filesystem.canonicalize(destPath)

	if source.Equals(target) {
		return nil
	}

	entry, err := filesystem.Stat(source.String())
	if err != nil {
		return err
	}

	finalTarget := target
	if filesystem.ExistsDir(target.String()) {
		finalTarget = target.Join(source.Name())
	}

	if finalTarget.Equals(source) {
		// landing on itself via its own parent
		return nil
	}

	if entry.Type == types.ObjectTypeCollection {
		return filesystem.RenameDir(source.String(), finalTarget.String())
	}

	return filesystem.RenameFile(source.String(), finalTarget.String())
}

// preCountLocalDir walks a local tree counting files and bytes before the
// transfer starts
func preCountLocalDir(localDir string) (int64, int64, error) {
	files := int64(0)
	bytes := int64(0)

	err := filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			files++
			bytes += info.Size()
		}

		return nil
	})
	if err != nil {
		return 0, 0, xerrors.Errorf("failed to walk local directory %q: %w", localDir, err)
	}

	return files, bytes, nil
}

// preCountRemoteDir walks a remote collection counting data objects and
// bytes
func (filesystem *FileSystem) preCountRemoteDir(remoteDir string) (int64, int64, error) {
	files := int64(0)
	bytes := int64(0)

	entries, err := filesystem.List(remoteDir)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		if entry.Type == types.ObjectTypeCollection {
			subFiles, subBytes, err := filesystem.preCountRemoteDir(entry.Path)
			if err != nil {
				return 0, 0, err
			}

			files += subFiles
			bytes += subBytes
			continue
		}

		files++
		bytes += entry.Size
	}

	return files, bytes, nil
}

// verifyLocalChecksum compares the SHA-256 of a local file against a
// catalogue checksum of the sha2 scheme. Other schemes are skipped.
func verifyLocalChecksum(localPath string, catalogueChecksum string) error {
	if !strings.HasPrefix(catalogueChecksum, "sha2:") {
		return nil
	}

	localFile, err := os.Open(localPath)
	if err != nil {
		return xerrors.Errorf("failed to open local file %q: %w", localPath, err)
	}
	defer localFile.Close() //nolint:errcheck

	hash := sha256.New()
	_, err = bufio.NewReader(localFile).WriteTo(hash)
	if err != nil {
		return xerrors.Errorf("failed to hash local file %q: %w", localPath, err)
	}

	localChecksum := base64.StdEncoding.EncodeToString(hash.Sum(nil))
	if localChecksum != strings.TrimPrefix(catalogueChecksum, "sha2:") {
		return types.NewProtocolErrorf("checksum mismatch for %q", localPath)
	}

	return nil
}
