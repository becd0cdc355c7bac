package transfer

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/cyverse/go-irodsgrid/irods/message"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

// frame flags on a parallel data socket. Each frame is
// [int32 flag][int64 offset][int64 length] followed by the payload.
const (
	transferFlagData int32 = 0
	transferFlagDone int32 = 1
)

// direction markers sent after the cookie
const (
	transferDirectionPut int32 = 1
	transferDirectionGet int32 = 2
)

// Endpoint is one parallel transfer target handed out by the server
type Endpoint struct {
	Host   string
	Port   int
	Cookie int32
}

// EndpointsFromPortalResponse expands a portal reply into one endpoint per
// negotiated stream. The server usually returns a single port entry that
// every stream dials.
func EndpointsFromPortalResponse(portal *message.IRODSMessagePortalOprResponse, controlHost string) []Endpoint {
	if len(portal.PortList) == 0 {
		return nil
	}

	threads := portal.Threads
	if threads <= 0 {
		threads = 1
	}

	endpoints := make([]Endpoint, 0, threads)
	for i := 0; i < threads; i++ {
		port := portal.PortList[i%len(portal.PortList)]

		host := port.HostAddr
		if len(host) == 0 {
			host = controlHost
		}

		endpoints = append(endpoints, Endpoint{
			Host:   host,
			Port:   port.Port,
			Cookie: port.Cookie,
		})
	}

	return endpoints
}

// ParallelConfig tunes the data-phase workers
type ParallelConfig struct {
	Timeout       time.Duration
	TCPBufferSize int
	BufferSize    int
	Cipher        *AESCipher
}

// span is one contiguous slice of the file assigned to a worker
type span struct {
	offset int64
	length int64
}

// partitionSpans splits [0, size) into count contiguous spans. The spans
// cover the whole range with no overlap; the last span absorbs the
// remainder.
func partitionSpans(size int64, count int) []span {
	if count <= 0 {
		count = 1
	}

	if size == 0 {
		return []span{{offset: 0, length: 0}}
	}

	if int64(count) > size {
		count = int(size)
	}

	spans := make([]span, 0, count)
	base := size / int64(count)
	position := int64(0)
	for i := 0; i < count; i++ {
		length := base
		if i == count-1 {
			length = size - position
		}

		spans = append(spans, span{offset: position, length: length})
		position += length
	}

	return spans
}

// firstError keeps the first real failure across workers
type firstError struct {
	mutex sync.Mutex
	err   error
}

func (fe *firstError) set(err error) {
	fe.mutex.Lock()
	defer fe.mutex.Unlock()

	if fe.err == nil && err != nil && !types.IsCancelledError(err) {
		fe.err = err
	}
}

func (fe *firstError) get() error {
	fe.mutex.Lock()
	defer fe.mutex.Unlock()

	return fe.err
}

// ParallelDownload runs one worker per endpoint, each receiving framed
// chunks and writing them into the local file at the declared offsets.
// A worker failure cancels its peers through the control block; the first
// failure is surfaced after all workers drain.
func ParallelDownload(endpoints []Endpoint, localPath string, config *ParallelConfig, tcb *types.TransferControlBlock, progress func(delta int64)) error {
	logger := log.WithFields(log.Fields{
		"package":  "transfer",
		"function": "ParallelDownload",
	})

	localFile, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return xerrors.Errorf("failed to open local file %q: %w", localPath, err)
	}
	defer localFile.Close() //nolint:errcheck

	logger.Debugf("downloading over %d parallel streams to %q", len(endpoints), localPath)

	failure := &firstError{}
	wg := sync.WaitGroup{}

	for i, endpoint := range endpoints {
		wg.Add(1)
		go func(workerID int, endpoint Endpoint) {
			defer wg.Done()

			err := downloadWorker(endpoint, localFile, config, tcb, progress)
			if err != nil {
				failure.set(err)
				// drain the peers
				tcb.Cancel()
				logger.WithError(err).Debugf("download worker %d failed", workerID)
			}
		}(i, endpoint)
	}

	wg.Wait()

	if err := failure.get(); err != nil {
		return err
	}

	if tcb.Cancelled() {
		return types.NewCancelledError("parallel download cancelled")
	}

	return nil
}

// ParallelUpload partitions the local file into one contiguous span per
// endpoint and runs one sending worker per span
func ParallelUpload(endpoints []Endpoint, localPath string, fileLength int64, config *ParallelConfig, tcb *types.TransferControlBlock, progress func(delta int64)) error {
	logger := log.WithFields(log.Fields{
		"package":  "transfer",
		"function": "ParallelUpload",
	})

	localFile, err := os.Open(localPath)
	if err != nil {
		return xerrors.Errorf("failed to open local file %q: %w", localPath, err)
	}
	defer localFile.Close() //nolint:errcheck

	spans := partitionSpans(fileLength, len(endpoints))

	logger.Debugf("uploading %d bytes over %d parallel streams from %q", fileLength, len(spans), localPath)

	failure := &firstError{}
	wg := sync.WaitGroup{}

	for i, workerSpan := range spans {
		wg.Add(1)
		go func(workerID int, endpoint Endpoint, workerSpan span) {
			defer wg.Done()

			err := uploadWorker(endpoint, localFile, workerSpan, config, tcb, progress)
			if err != nil {
				failure.set(err)
				tcb.Cancel()
				logger.WithError(err).Debugf("upload worker %d failed", workerID)
			}
		}(i, endpoints[i%len(endpoints)], workerSpan)
	}

	wg.Wait()

	if err := failure.get(); err != nil {
		return err
	}

	if tcb.Cancelled() {
		return types.NewCancelledError("parallel upload cancelled")
	}

	return nil
}

// dialEndpoint opens a data socket and sends the cookie and direction
func dialEndpoint(endpoint Endpoint, direction int32, config *ParallelConfig) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", endpoint.Host, endpoint.Port)

	socket, err := net.DialTimeout("tcp", addr, config.Timeout)
	if err != nil {
		return nil, types.NewNetworkFailureError(fmt.Sprintf("failed to connect to data port %s: %v", addr, err))
	}

	if tcpSocket, ok := socket.(*net.TCPConn); ok && config.TCPBufferSize > 0 {
		tcpSocket.SetReadBuffer(config.TCPBufferSize)  //nolint:errcheck
		tcpSocket.SetWriteBuffer(config.TCPBufferSize) //nolint:errcheck
	}

	socket.SetDeadline(time.Now().Add(config.Timeout)) //nolint:errcheck

	handshake := make([]byte, 8)
	binary.BigEndian.PutUint32(handshake[0:4], uint32(endpoint.Cookie))
	binary.BigEndian.PutUint32(handshake[4:8], uint32(direction))

	_, err = socket.Write(handshake)
	if err != nil {
		socket.Close() //nolint:errcheck
		return nil, classifyDataSocketError(err, "failed to send data port handshake")
	}

	return socket, nil
}

func downloadWorker(endpoint Endpoint, localFile *os.File, config *ParallelConfig, tcb *types.TransferControlBlock, progress func(delta int64)) error {
	socket, err := dialEndpoint(endpoint, transferDirectionGet, config)
	if err != nil {
		return err
	}
	defer socket.Close() //nolint:errcheck

	header := make([]byte, 20)
	buffer := make([]byte, config.BufferSize)

	for {
		if tcb.Cancelled() {
			return types.NewCancelledError("download worker observed cancellation")
		}

		socket.SetDeadline(time.Now().Add(config.Timeout)) //nolint:errcheck

		_, err := io.ReadFull(socket, header)
		if err != nil {
			return classifyDataSocketError(err, "failed to read chunk header")
		}

		flag := int32(binary.BigEndian.Uint32(header[0:4]))
		offset := int64(binary.BigEndian.Uint64(header[4:12]))
		length := int64(binary.BigEndian.Uint64(header[12:20]))

		if flag == transferFlagDone {
			return nil
		}

		if flag != transferFlagData {
			return types.NewWireFormatErrorf("unknown chunk flag %d", flag)
		}

		if length < 0 || offset < 0 {
			return types.NewWireFormatErrorf("chunk declares offset %d length %d", offset, length)
		}

		if config.Cipher != nil {
			plain, err := config.Cipher.ReadFrame(socket)
			if err != nil {
				return classifyDataSocketError(err, "failed to read encrypted chunk")
			}

			if int64(len(plain)) != length {
				return types.NewWireFormatErrorf("encrypted chunk carries %d bytes, header declares %d", len(plain), length)
			}

			_, err = localFile.WriteAt(plain, offset)
			if err != nil {
				return xerrors.Errorf("failed to write local file at offset %d: %w", offset, err)
			}
		} else {
			remaining := length
			chunkOffset := offset
			for remaining > 0 {
				readLen := int64(len(buffer))
				if remaining < readLen {
					readLen = remaining
				}

				_, err := io.ReadFull(socket, buffer[:readLen])
				if err != nil {
					return classifyDataSocketError(err, "failed to read chunk payload")
				}

				_, err = localFile.WriteAt(buffer[:readLen], chunkOffset)
				if err != nil {
					return xerrors.Errorf("failed to write local file at offset %d: %w", chunkOffset, err)
				}

				chunkOffset += readLen
				remaining -= readLen
			}
		}

		tcb.AddTransferredBytes(length)
		if progress != nil {
			progress(length)
		}
	}
}

func uploadWorker(endpoint Endpoint, localFile *os.File, workerSpan span, config *ParallelConfig, tcb *types.TransferControlBlock, progress func(delta int64)) error {
	socket, err := dialEndpoint(endpoint, transferDirectionPut, config)
	if err != nil {
		return err
	}
	defer socket.Close() //nolint:errcheck

	header := make([]byte, 20)
	buffer := make([]byte, config.BufferSize)

	position := workerSpan.offset
	remaining := workerSpan.length

	for remaining > 0 {
		if tcb.Cancelled() {
			return types.NewCancelledError("upload worker observed cancellation")
		}

		chunkLen := int64(len(buffer))
		if remaining < chunkLen {
			chunkLen = remaining
		}

		_, err := localFile.ReadAt(buffer[:chunkLen], position)
		if err != nil && err != io.EOF {
			return xerrors.Errorf("failed to read local file at offset %d: %w", position, err)
		}

		socket.SetDeadline(time.Now().Add(config.Timeout)) //nolint:errcheck

		binary.BigEndian.PutUint32(header[0:4], uint32(transferFlagData))
		binary.BigEndian.PutUint64(header[4:12], uint64(position))
		binary.BigEndian.PutUint64(header[12:20], uint64(chunkLen))

		_, err = socket.Write(header)
		if err != nil {
			return classifyDataSocketError(err, "failed to write chunk header")
		}

		if config.Cipher != nil {
			err = config.Cipher.WriteFrame(socket, buffer[:chunkLen])
			if err != nil {
				return classifyDataSocketError(err, "failed to write encrypted chunk")
			}
		} else {
			_, err = socket.Write(buffer[:chunkLen])
			if err != nil {
				return classifyDataSocketError(err, "failed to write chunk payload")
			}
		}

		position += chunkLen
		remaining -= chunkLen

		tcb.AddTransferredBytes(chunkLen)
		if progress != nil {
			progress(chunkLen)
		}
	}

	socket.SetDeadline(time.Now().Add(config.Timeout)) //nolint:errcheck

	binary.BigEndian.PutUint32(header[0:4], uint32(transferFlagDone))
	binary.BigEndian.PutUint64(header[4:12], 0)
	binary.BigEndian.PutUint64(header[12:20], 0)

	_, err = socket.Write(header)
	if err != nil {
		return classifyDataSocketError(err, "failed to write final chunk header")
	}

	return nil
}

func classifyDataSocketError(err error, msg string) error {
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return types.NewNetworkTimeoutError(msg)
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return types.NewNetworkFailureError(fmt.Sprintf("%s: connection closed", msg))
	}

	if types.IsWireFormatError(err) {
		return err
	}

	return xerrors.Errorf("%s: %w", msg, err)
}
