package types

import (
	"crypto/tls"
	"crypto/x509"
	"os"

	"golang.org/x/xerrors"
)

// IRODSSSLConfig contains TLS and parallel-stream encryption parameters
type IRODSSSLConfig struct {
	CACertificateFile   string
	CACertificatePath   string
	EncryptionKeySize   int
	EncryptionAlgorithm string
	EncryptionSaltSize  int
	EncryptionNumHashRounds int
	VerifyServer        bool
	DHParamsFile        string
	ServerName          string
}

// CreateIRODSSSLConfig creates IRODSSSLConfig
func CreateIRODSSSLConfig(caCertFile string, keySize int, algorithm string, saltSize int, hashRounds int) (*IRODSSSLConfig, error) {
	if keySize <= 0 {
		return nil, xerrors.Errorf("invalid encryption key size %d", keySize)
	}

	if saltSize <= 0 {
		return nil, xerrors.Errorf("invalid encryption salt size %d", saltSize)
	}

	if hashRounds <= 0 {
		return nil, xerrors.Errorf("invalid number of hash rounds %d", hashRounds)
	}

	return &IRODSSSLConfig{
		CACertificateFile:   caCertFile,
		EncryptionKeySize:   keySize,
		EncryptionAlgorithm: algorithm,
		EncryptionSaltSize:  saltSize,
		EncryptionNumHashRounds: hashRounds,
		VerifyServer:        true,
	}, nil
}

// LoadCACert loads the CA certificate pool. Falls back to the system pool when
// no CA file is configured.
func (config *IRODSSSLConfig) LoadCACert() (*x509.CertPool, error) {
	if len(config.CACertificateFile) == 0 {
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, xerrors.Errorf("failed to load system cert pool: %w", err)
		}
		return pool, nil
	}

	caCert, err := os.ReadFile(config.CACertificateFile)
	if err != nil {
		return nil, xerrors.Errorf("failed to read CA certificate file %q: %w", config.CACertificateFile, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, xerrors.Errorf("failed to parse CA certificate file %q", config.CACertificateFile)
	}

	return pool, nil
}

// GetTLSConfig returns a tls.Config for upgrading the control socket
func (config *IRODSSSLConfig) GetTLSConfig(serverName string) (*tls.Config, error) {
	pool, err := config.LoadCACert()
	if err != nil {
		return nil, err
	}

	if len(config.ServerName) > 0 {
		serverName = config.ServerName
	}

	return &tls.Config{
		RootCAs:            pool,
		ServerName:         serverName,
		InsecureSkipVerify: !config.VerifyServer,
	}, nil
}

// NegotiatedSession is the client-server configuration agreed during
// negotiation. Immutable once negotiation completes.
type NegotiatedSession struct {
	UseSSL bool

	// shared key material for the parallel-stream cipher
	SharedSecret []byte
	Salt         []byte
	Algorithm    string
	KeySize      int
	HashRounds   int
}
