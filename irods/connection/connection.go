package connection

import (
	"bufio"
	"crypto/rand"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/cyverse/go-irodsgrid/commons"
	"github.com/cyverse/go-irodsgrid/irods/message"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

// ConnectionState is the lifecycle state of a connection
type ConnectionState string

const (
	// ConnectionStateNew is a connection that has not dialed yet
	ConnectionStateNew ConnectionState = "new"
	// ConnectionStateNegotiating is exchanging the startup pack and negotiation
	ConnectionStateNegotiating ConnectionState = "negotiating"
	// ConnectionStateAuthenticating is running an auth scheme
	ConnectionStateAuthenticating ConnectionState = "authenticating"
	// ConnectionStateReady accepts requests
	ConnectionStateReady ConnectionState = "ready"
	// ConnectionStateInUse has an outstanding request
	ConnectionStateInUse ConnectionState = "inuse"
	// ConnectionStateClosing is tearing down after a fatal error or disconnect
	ConnectionStateClosing ConnectionState = "closing"
	// ConnectionStateClosed is fully torn down; only a fresh Connect recovers
	ConnectionStateClosed ConnectionState = "closed"
)

// IRODSConnection owns one TCP connection to an iRODS server and serializes
// all request/response exchanges on it. A connection is exclusively owned by
// one goroutine from acquisition to release.
type IRODSConnection struct {
	account         *types.IRODSAccount
	config          *commons.PipelineConfiguration
	applicationName string

	socket net.Conn
	reader *bufio.Reader
	writer *bufio.Writer

	state ConnectionState

	serverVersion *types.IRODSVersion
	negotiated    *types.NegotiatedSession

	creationTime time.Time
	lastUsedTime time.Time

	mutex sync.Mutex
}

// NewIRODSConnection creates an IRODSConnection. The pipeline configuration
// is captured once and never changes for the life of the connection.
func NewIRODSConnection(account *types.IRODSAccount, config *commons.PipelineConfiguration, applicationName string) *IRODSConnection {
	if config == nil {
		config = commons.NewDefaultPipelineConfiguration()
	}

	return &IRODSConnection{
		account:         account,
		config:          config,
		applicationName: applicationName,

		state: ConnectionStateNew,
	}
}

// Lock locks the connection for exclusive use
func (conn *IRODSConnection) Lock() {
	conn.mutex.Lock()
}

// Unlock unlocks the connection
func (conn *IRODSConnection) Unlock() {
	conn.mutex.Unlock()
}

// GetAccount returns the account the connection was made for
func (conn *IRODSConnection) GetAccount() *types.IRODSAccount {
	return conn.account
}

// GetPipelineConfiguration returns the io tuning snapshot
func (conn *IRODSConnection) GetPipelineConfiguration() *commons.PipelineConfiguration {
	return conn.config
}

// GetVersion returns the server version received at connect time
func (conn *IRODSConnection) GetVersion() *types.IRODSVersion {
	return conn.serverVersion
}

// GetNegotiatedSession returns the negotiated client-server configuration
func (conn *IRODSConnection) GetNegotiatedSession() *types.NegotiatedSession {
	return conn.negotiated
}

// IsConnected returns true while the connection accepts requests
func (conn *IRODSConnection) IsConnected() bool {
	return conn.state == ConnectionStateReady || conn.state == ConnectionStateInUse
}

// GetCreationTime returns the time the connection was established
func (conn *IRODSConnection) GetCreationTime() time.Time {
	return conn.creationTime
}

// GetLastUsedTime returns the time of the last request
func (conn *IRODSConnection) GetLastUsedTime() time.Time {
	return conn.lastUsedTime
}

// Connect dials the server, exchanges the startup pack, negotiates the
// encryption stance and authenticates. Only a new or closed connection may
// connect.
func (conn *IRODSConnection) Connect() error {
	logger := log.WithFields(log.Fields{
		"package":  "connection",
		"struct":   "IRODSConnection",
		"function": "Connect",
	})

	if conn.state != ConnectionStateNew && conn.state != ConnectionStateClosed {
		return types.NewInternalError(fmt.Sprintf("connect called in state %q", conn.state))
	}

	err := conn.account.Validate()
	if err != nil {
		return xerrors.Errorf("invalid account: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", conn.account.Host, conn.account.Port)
	logger.Debugf("Connecting to %s", addr)

	socket, err := net.DialTimeout("tcp", addr, conn.config.OperationTimeout)
	if err != nil {
		conn.state = ConnectionStateClosed
		return types.NewNetworkFailureError(fmt.Sprintf("failed to connect to %s: %v", addr, err))
	}

	if tcpSocket, ok := socket.(*net.TCPConn); ok {
		// ignore buffer tuning failures
		tcpSocket.SetReadBuffer(conn.config.TCPBufferSize)  //nolint:errcheck
		tcpSocket.SetWriteBuffer(conn.config.TCPBufferSize) //nolint:errcheck
	}

	conn.socket = socket
	conn.resetBufferedIO()
	conn.state = ConnectionStateNegotiating
	conn.creationTime = time.Now()
	conn.lastUsedTime = conn.creationTime

	err = conn.startup()
	if err != nil {
		conn.abort()
		return err
	}

	conn.state = ConnectionStateAuthenticating

	err = conn.login()
	if err != nil {
		conn.abort()
		return err
	}

	conn.state = ConnectionStateReady
	logger.Debugf("Connected to %s, server version %s", addr, conn.serverVersion)
	return nil
}

// resetBufferedIO rebuilds the buffered reader/writer, needed after the
// socket is swapped for its TLS wrapper
func (conn *IRODSConnection) resetBufferedIO() {
	conn.reader = bufio.NewReaderSize(conn.socket, conn.config.InternalInputStreamBufferSize)
	conn.writer = bufio.NewWriterSize(conn.socket, conn.config.InternalOutputStreamBufferSize)
}

// startup exchanges the startup pack and runs negotiation
func (conn *IRODSConnection) startup() error {
	requestNegotiation := conn.account.ClientServerNegotiation != types.CSNegotiationRefuseSSL

	startupPack := message.NewIRODSMessageStartupPack(conn.account, conn.applicationName, requestNegotiation)
	startupMessage, err := startupPack.GetMessage()
	if err != nil {
		return err
	}

	err = conn.sendMessage(startupMessage)
	if err != nil {
		return err
	}

	responseMessage, err := conn.readMessage(true)
	if err != nil {
		return err
	}

	switch responseMessage.Header.Type {
	case message.RODS_VERSION:
		// server skipped negotiation
		if conn.account.ClientServerNegotiation == types.CSNegotiationRequireSSL {
			return types.NewNegotiationError("client requires SSL but server did not negotiate")
		}

		return conn.handleVersion(responseMessage)
	case message.RODS_CS_NEG_T:
		return conn.negotiateSession(responseMessage)
	default:
		return types.NewProtocolErrorf("unexpected frame type %q after startup", responseMessage.Header.Type)
	}
}

// negotiateSession runs the policy matrix against the server stance and
// answers with the result
func (conn *IRODSConnection) negotiateSession(negotiationMessage *message.IRODSMessage) error {
	serverNegotiation := message.IRODSMessageCSNegotiation{}
	err := serverNegotiation.FromMessage(negotiationMessage)
	if err != nil {
		return err
	}

	serverPolicy, err := serverNegotiation.GetServerPolicy()
	if err != nil {
		return types.NewNegotiationErrorf("unknown server policy %q", serverNegotiation.Result)
	}

	useSSL, negotiationErr := Negotiate(conn.account.ClientServerNegotiation, serverPolicy)

	result := message.NewIRODSMessageCSNegotiationResult(useSSL, negotiationErr != nil)
	resultMessage, err := result.GetMessage()
	if err != nil {
		return err
	}

	err = conn.sendMessage(resultMessage)
	if err != nil {
		return err
	}

	if negotiationErr != nil {
		return negotiationErr
	}

	versionMessage, err := conn.readMessage(true)
	if err != nil {
		return err
	}

	err = conn.handleVersion(versionMessage)
	if err != nil {
		return err
	}

	if useSSL {
		return conn.startTLS()
	}

	conn.negotiated = &types.NegotiatedSession{
		UseSSL: false,
	}
	return nil
}

func (conn *IRODSConnection) handleVersion(versionMessage *message.IRODSMessage) error {
	version := message.IRODSMessageVersion{}
	err := version.FromMessage(versionMessage)
	if err != nil {
		return err
	}

	conn.serverVersion = version.GetVersion()

	if conn.negotiated == nil {
		conn.negotiated = &types.NegotiatedSession{
			UseSSL: false,
		}
	}
	return nil
}

// startTLS upgrades the socket to TLS and exchanges the session key material
// used by the parallel-stream cipher
func (conn *IRODSConnection) startTLS() error {
	sslConfig := conn.account.SSLConfiguration
	if sslConfig == nil {
		var err error
		sslConfig, err = types.CreateIRODSSSLConfig("", conn.config.EncryptionKeySize,
			conn.config.EncryptionAlgorithm, conn.config.EncryptionSaltSize, conn.config.EncryptionHashRounds)
		if err != nil {
			return err
		}
	}

	tlsConfig, err := sslConfig.GetTLSConfig(conn.account.Host)
	if err != nil {
		return types.NewNegotiationErrorf("failed to build TLS config: %v", err)
	}

	tlsSocket := tls.Client(conn.socket, tlsConfig)
	err = tlsSocket.Handshake()
	if err != nil {
		return types.NewNegotiationErrorf("TLS handshake failed: %v", err)
	}

	conn.socket = tlsSocket
	conn.resetBufferedIO()

	// send the encryption parameters, riding in a bare header
	settings := message.NewIRODSMessageSSLSettings(sslConfig.EncryptionAlgorithm, sslConfig.EncryptionKeySize,
		sslConfig.EncryptionSaltSize, sslConfig.EncryptionNumHashRounds)
	settingsMessage, err := settings.GetMessage()
	if err != nil {
		return err
	}

	err = conn.sendMessage(settingsMessage)
	if err != nil {
		return err
	}

	// generate and send the shared secret for the parallel-stream cipher
	sharedSecret := make([]byte, sslConfig.EncryptionKeySize)
	_, err = rand.Read(sharedSecret)
	if err != nil {
		return types.NewInternalError(fmt.Sprintf("failed to generate shared secret: %v", err))
	}

	salt := make([]byte, sslConfig.EncryptionSaltSize)
	_, err = rand.Read(salt)
	if err != nil {
		return types.NewInternalError(fmt.Sprintf("failed to generate salt: %v", err))
	}

	secretMessage, err := message.NewIRODSMessageSSLSharedSecret(sharedSecret).GetMessage()
	if err != nil {
		return err
	}

	err = conn.sendMessage(secretMessage)
	if err != nil {
		return err
	}

	conn.negotiated = &types.NegotiatedSession{
		UseSSL:       true,
		SharedSecret: sharedSecret,
		Salt:         salt,
		Algorithm:    sslConfig.EncryptionAlgorithm,
		KeySize:      sslConfig.EncryptionKeySize,
		HashRounds:   sslConfig.EncryptionNumHashRounds,
	}

	return nil
}

// Request writes a framed request and reads the framed response, surfacing a
// negative server status as a typed error. The full response, including any
// bs blob, is consumed before the call returns.
func (conn *IRODSConnection) Request(request message.IRODSMessageRequest, response message.IRODSMessageResponse) error {
	requestMessage, err := request.GetMessage()
	if err != nil {
		return err
	}

	err = conn.beginRequest()
	if err != nil {
		return err
	}
	defer conn.endRequest()

	err = conn.sendMessage(requestMessage)
	if err != nil {
		return err
	}

	responseMessage, err := conn.readMessage(true)
	if err != nil {
		return err
	}

	return response.FromMessage(responseMessage)
}

// RequestWithBSStream writes a framed request whose bs part is streamed from
// the reader, then reads the framed response
func (conn *IRODSConnection) RequestWithBSStream(request message.IRODSMessageRequest, response message.IRODSMessageResponse, reader io.Reader, length int64) error {
	requestMessage, err := request.GetMessage()
	if err != nil {
		return err
	}

	requestMessage.Header.BsLen = uint32(length)

	err = conn.beginRequest()
	if err != nil {
		return err
	}
	defer conn.endRequest()

	err = conn.sendMessage(requestMessage)
	if err != nil {
		return err
	}

	copyBuffer := make([]byte, conn.config.SendInputStreamBufferSize)
	_, err = io.CopyBuffer(conn.writer, io.LimitReader(reader, length), copyBuffer)
	if err != nil {
		conn.fail()
		return xerrors.Errorf("failed to stream bs part: %w", err)
	}

	err = conn.flush()
	if err != nil {
		return err
	}

	responseMessage, err := conn.readMessage(true)
	if err != nil {
		return err
	}

	return response.FromMessage(responseMessage)
}

// RequestStreamBS writes a framed request and streams the bs part of the
// response into the writer. The structured body is parsed into response
// before the data phase runs.
func (conn *IRODSConnection) RequestStreamBS(request message.IRODSMessageRequest, response message.IRODSMessageResponse, writer io.Writer) (int64, error) {
	requestMessage, err := request.GetMessage()
	if err != nil {
		return 0, err
	}

	err = conn.beginRequest()
	if err != nil {
		return 0, err
	}
	defer conn.endRequest()

	err = conn.sendMessage(requestMessage)
	if err != nil {
		return 0, err
	}

	responseMessage, err := conn.readMessage(false)
	if err != nil {
		return 0, err
	}

	err = response.FromMessage(responseMessage)
	if err != nil {
		// drain the declared bs part to preserve the cadence
		conn.drainBS(int64(responseMessage.Header.BsLen)) //nolint:errcheck
		return 0, err
	}

	bsLen := int64(responseMessage.Header.BsLen)
	if bsLen == 0 {
		return 0, nil
	}

	conn.setReadDeadline()
	copyBuffer := make([]byte, conn.config.InputToOutputCopyBufferSize)
	copied, err := io.CopyBuffer(writer, io.LimitReader(conn.reader, bsLen), copyBuffer)
	if err != nil {
		conn.fail()
		return copied, xerrors.Errorf("failed to stream bs part of response: %w", err)
	}

	if copied != bsLen {
		conn.fail()
		return copied, types.NewWireFormatErrorf("bs part truncated (%d of %d bytes)", copied, bsLen)
	}

	return copied, nil
}

func (conn *IRODSConnection) drainBS(length int64) error {
	if length <= 0 {
		return nil
	}

	_, err := io.CopyN(io.Discard, conn.reader, length)
	return err
}

func (conn *IRODSConnection) beginRequest() error {
	if conn.state != ConnectionStateReady {
		return types.NewInternalError(fmt.Sprintf("request issued in state %q", conn.state))
	}

	conn.state = ConnectionStateInUse
	conn.lastUsedTime = time.Now()
	return nil
}

func (conn *IRODSConnection) endRequest() {
	if conn.state == ConnectionStateInUse {
		conn.state = ConnectionStateReady
	}
}

// fail marks the connection unusable after an i/o error
func (conn *IRODSConnection) fail() {
	conn.state = ConnectionStateClosing
	if conn.socket != nil {
		conn.socket.Close() //nolint:errcheck
		conn.socket = nil
	}
	conn.state = ConnectionStateClosed
}

// abort tears down a half-connected socket
func (conn *IRODSConnection) abort() {
	conn.fail()
}

func (conn *IRODSConnection) setReadDeadline() {
	if conn.socket != nil {
		conn.socket.SetReadDeadline(time.Now().Add(conn.config.OperationTimeout)) //nolint:errcheck
	}
}

func (conn *IRODSConnection) setWriteDeadline() {
	if conn.socket != nil {
		conn.socket.SetWriteDeadline(time.Now().Add(conn.config.OperationTimeout)) //nolint:errcheck
	}
}

// sendMessage writes one frame and flushes
func (conn *IRODSConnection) sendMessage(msg *message.IRODSMessage) error {
	conn.setWriteDeadline()

	err := message.WriteIRODSMessage(conn.writer, msg)
	if err != nil {
		conn.fail()
		return conn.classifyIOError(err, "failed to send frame")
	}

	return conn.flush()
}

func (conn *IRODSConnection) flush() error {
	err := conn.writer.Flush()
	if err != nil {
		conn.fail()
		return conn.classifyIOError(err, "failed to flush frame")
	}

	return nil
}

// readMessage reads one frame. When readBs is false the bs part is left on
// the wire for a data-phase read.
func (conn *IRODSConnection) readMessage(readBs bool) (*message.IRODSMessage, error) {
	conn.setReadDeadline()

	header, err := message.ReadIRODSMessageHeader(conn.reader)
	if err != nil {
		conn.fail()
		return nil, err
	}

	body, err := message.ReadIRODSMessageBody(conn.reader, header, readBs)
	if err != nil {
		conn.fail()
		return nil, err
	}

	return &message.IRODSMessage{
		Header: header,
		Body:   body,
	}, nil
}

func (conn *IRODSConnection) classifyIOError(err error, msg string) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.NewNetworkTimeoutError(msg)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return types.NewNetworkFailureError(fmt.Sprintf("%s: %v", msg, opErr))
	}

	return xerrors.Errorf("%s: %w", msg, err)
}

// Disconnect sends the disconnect frame and closes the socket. Idempotent.
func (conn *IRODSConnection) Disconnect() error {
	logger := log.WithFields(log.Fields{
		"package":  "connection",
		"struct":   "IRODSConnection",
		"function": "Disconnect",
	})

	if conn.state == ConnectionStateClosed || conn.state == ConnectionStateNew {
		return nil
	}

	conn.state = ConnectionStateClosing

	disconnectBody := message.IRODSMessageBody{
		Type: message.RODS_DISCONNECT,
	}

	var returnErr error
	if conn.socket != nil {
		conn.setWriteDeadline()
		err := message.WriteIRODSMessage(conn.writer, message.MakeIRODSMessage(&disconnectBody))
		if err == nil {
			err = conn.writer.Flush()
		}
		if err != nil {
			logger.WithError(err).Debug("failed to send disconnect frame")
			returnErr = err
		}

		err = conn.socket.Close()
		if err != nil && returnErr == nil {
			returnErr = err
		}
		conn.socket = nil
	}

	conn.state = ConnectionStateClosed
	return returnErr
}
