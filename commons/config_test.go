package commons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, PortDefault, config.Port)
	assert.Equal(t, string(types.AuthSchemeNative), config.AuthScheme)
	assert.Equal(t, string(types.CSNegotiationDontCare), config.CSNegotiationPolicy)
	assert.Equal(t, SingleBufferThresholdDefault, config.SingleBufferThreshold)
	assert.Equal(t, MaxParallelThreadsDefault, config.MaxParallelThreads)
	assert.Equal(t, EncryptionAlgorithmDefault, config.EncryptionAlgorithm)
}

func TestNewConfigFromYAMLFile(t *testing.T) {
	yamlContent := `
host: irods.example
port: 1247
zone: tempZone
proxy_user: rods
password: rods
operation_timeout: 30s
max_parallel_threads: 8
`

	yamlPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(yamlPath, []byte(yamlContent), 0o600)
	assert.NoError(t, err)

	config, err := NewConfigFromYAMLFile(NewDefaultConfig(), yamlPath)
	assert.NoError(t, err)

	assert.Equal(t, "irods.example", config.Host)
	assert.Equal(t, 1247, config.Port)
	assert.Equal(t, "tempZone", config.Zone)
	assert.Equal(t, "rods", config.ProxyUser)
	assert.Equal(t, 30*time.Second, time.Duration(config.OperationTimeout))
	assert.Equal(t, 8, config.MaxParallelThreads)

	// untouched fields keep their defaults
	assert.Equal(t, EncryptionKeySizeDefault, config.EncryptionKeySize)

	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	config := NewDefaultConfig()
	assert.Error(t, config.Validate())

	config.Host = "irods.example"
	config.Zone = "tempZone"
	config.ProxyUser = "rods"
	assert.NoError(t, config.Validate())
}

func TestConfigToAccount(t *testing.T) {
	config := NewDefaultConfig()
	config.Host = "irods.example"
	config.Zone = "tempZone"
	config.ProxyUser = "rods"
	config.Password = "rods"

	account, err := config.ToAccount()
	assert.NoError(t, err)

	assert.Equal(t, "irods.example", account.Host)
	assert.Equal(t, "rods", account.ClientUser)
	assert.Equal(t, "tempZone", account.ClientZone)
	assert.Equal(t, types.AuthSchemeNative, account.AuthenticationScheme)
	assert.Nil(t, account.SSLConfiguration)
}

func TestConfigToAccountPAM(t *testing.T) {
	config := NewDefaultConfig()
	config.Host = "irods.example"
	config.Zone = "tempZone"
	config.ProxyUser = "rods"
	config.Password = "rods"
	config.AuthScheme = "pam"

	account, err := config.ToAccount()
	assert.NoError(t, err)

	assert.Equal(t, types.AuthSchemePAM, account.AuthenticationScheme)
	assert.Equal(t, types.CSNegotiationRequireSSL, account.ClientServerNegotiation)
	assert.NotNil(t, account.SSLConfiguration)
	assert.Equal(t, EncryptionKeySizeDefault, account.SSLConfiguration.EncryptionKeySize)
}

func TestPipelineConfigurationSnapshot(t *testing.T) {
	config := NewDefaultConfig()
	config.MaxParallelThreads = 6
	config.SingleBufferThreshold = 1024

	pipeline := NewPipelineConfiguration(config)
	assert.Equal(t, 6, pipeline.MaxParallelThreads)
	assert.Equal(t, int64(1024), pipeline.SingleBufferThreshold)
	assert.Equal(t, DefaultEncoding, pipeline.DefaultEncoding)
	assert.Equal(t, time.Duration(config.OperationTimeout), pipeline.OperationTimeout)
}

func TestDurationYAML(t *testing.T) {
	yamlContent := `
host: irods.example
operation_timeout: 2m
parallel_operation_timeout: 300
`

	yamlPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(yamlPath, []byte(yamlContent), 0o600)
	assert.NoError(t, err)

	config, err := NewConfigFromYAMLFile(nil, yamlPath)
	assert.NoError(t, err)

	assert.Equal(t, 2*time.Minute, time.Duration(config.OperationTimeout))
	// bare numbers are nanoseconds
	assert.Equal(t, 300*time.Nanosecond, time.Duration(config.ParallelOperationTimeout))
}
