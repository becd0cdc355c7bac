package connection

import (
	"crypto/md5"
	"encoding/base64"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cyverse/go-irodsgrid/irods/message"
	"github.com/cyverse/go-irodsgrid/irods/types"
)

const (
	challengeLen   int = 64
	maxPasswordLen int = 50
)

// login dispatches on the account's authentication scheme
func (conn *IRODSConnection) login() error {
	switch conn.account.AuthenticationScheme {
	case types.AuthSchemeNative:
		return conn.loginNative(conn.account.Password)
	case types.AuthSchemePAM:
		return conn.loginPAM()
	case types.AuthSchemeGSI:
		return conn.loginGSI()
	case types.AuthSchemeKerberos:
		return conn.loginKerberos()
	case types.AuthSchemeAnonymous:
		// no challenge for anonymous access
		return nil
	default:
		return types.NewAuthErrorf("unknown authentication scheme %q", conn.account.AuthenticationScheme)
	}
}

// loginNative runs the native challenge-response
func (conn *IRODSConnection) loginNative(password string) error {
	logger := log.WithFields(log.Fields{
		"package":  "connection",
		"struct":   "IRODSConnection",
		"function": "loginNative",
	})

	conn.state = ConnectionStateInUse
	defer func() {
		if conn.state == ConnectionStateInUse {
			conn.state = ConnectionStateAuthenticating
		}
	}()

	challengeRequest := message.NewIRODSMessageAuthRequest()
	challengeMessage, err := challengeRequest.GetMessage()
	if err != nil {
		return err
	}

	err = conn.sendMessage(challengeMessage)
	if err != nil {
		return err
	}

	challengeResponseMessage, err := conn.readMessage(true)
	if err != nil {
		return err
	}

	challengeResponse := message.IRODSMessageAuthChallengeResponse{}
	err = challengeResponse.FromMessage(challengeResponseMessage)
	if err != nil {
		return err
	}

	challenge, err := base64.StdEncoding.DecodeString(challengeResponse.Challenge)
	if err != nil {
		return types.NewWireFormatErrorf("failed to decode auth challenge: %v", err)
	}

	encodedResponse := GenerateAuthResponse(challenge, password)
	username := fmt.Sprintf("%s#%s", conn.account.ProxyUser, conn.account.ProxyZone)

	authResponse := message.NewIRODSMessageAuthResponse(encodedResponse, username)
	authResponseMessage, err := authResponse.GetMessage()
	if err != nil {
		return err
	}

	err = conn.sendMessage(authResponseMessage)
	if err != nil {
		return err
	}

	resultMessage, err := conn.readMessage(true)
	if err != nil {
		return err
	}

	authResult := message.IRODSMessageAuthResult{}
	err = authResult.FromMessage(resultMessage)
	if err != nil {
		logger.WithError(err).Debugf("native authentication rejected for user %s", conn.account.ProxyUser)
		return err
	}

	return nil
}

// loginPAM obtains a short-lived native password over the encrypted channel
// and runs native auth with it. The generated password is stored back on the
// account so reconnects skip the PAM exchange.
func (conn *IRODSConnection) loginPAM() error {
	logger := log.WithFields(log.Fields{
		"package":  "connection",
		"struct":   "IRODSConnection",
		"function": "loginPAM",
	})

	if conn.negotiated == nil || !conn.negotiated.UseSSL {
		return types.NewAuthError("PAM authentication requires an encrypted channel")
	}

	conn.state = ConnectionStateInUse

	pamRequest := message.NewIRODSMessagePamAuthRequest(conn.account.ProxyUser, conn.account.Password, conn.config.PamTTL)
	pamRequestMessage, err := pamRequest.GetMessage()
	if err != nil {
		conn.state = ConnectionStateAuthenticating
		return err
	}

	err = conn.sendMessage(pamRequestMessage)
	if err != nil {
		return err
	}

	pamResponseMessage, err := conn.readMessage(true)
	if err != nil {
		return err
	}

	conn.state = ConnectionStateAuthenticating

	pamResponse := message.IRODSMessagePamAuthResponse{}
	err = pamResponse.FromMessage(pamResponseMessage)
	if err != nil {
		return err
	}

	logger.Debugf("received a generated native password for user %s", conn.account.ProxyUser)

	// store transparently for reconnects
	conn.account.Password = pamResponse.GeneratedPassword
	conn.account.AuthenticationScheme = types.AuthSchemeNative

	return conn.loginNative(pamResponse.GeneratedPassword)
}

// loginGSI honors the negotiation boundary only; the credential context
// machinery is external
func (conn *IRODSConnection) loginGSI() error {
	return types.NewNotSupportedError("GSI authentication")
}

// loginKerberos honors the negotiation boundary only; the credential context
// machinery is external
func (conn *IRODSConnection) loginKerberos() error {
	return types.NewNotSupportedError("Kerberos authentication")
}

// GenerateAuthResponse computes the native auth response: the MD5 of the
// challenge and the padded password, zero bytes anonymized, base64 encoded.
func GenerateAuthResponse(challenge []byte, password string) string {
	paddedPassword := make([]byte, maxPasswordLen)
	copy(paddedPassword, []byte(password))

	challengeBytes := challenge
	if len(challengeBytes) > challengeLen {
		challengeBytes = challengeBytes[:challengeLen]
	}

	digest := md5.New()
	digest.Write(challengeBytes)
	digest.Write(paddedPassword)
	sum := digest.Sum(nil)

	// the server treats the response as a C string, zero bytes would truncate it
	for i := range sum {
		if sum[i] == 0 {
			sum[i] = 1
		}
	}

	return base64.StdEncoding.EncodeToString(sum)
}
