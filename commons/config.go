package commons

import (
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/xerrors"
	yaml "gopkg.in/yaml.v2"

	"github.com/cyverse/go-irodsgrid/irods/types"
)

// Config holds the parameters list which can be configured
type Config struct {
	Host       string `json:"host,omitempty" yaml:"host,omitempty" envconfig:"IRODS_HOST"`
	Port       int    `json:"port,omitempty" yaml:"port,omitempty" envconfig:"IRODS_PORT"`
	Zone       string `json:"zone,omitempty" yaml:"zone,omitempty" envconfig:"IRODS_ZONE"`
	ClientUser string `json:"client_user,omitempty" yaml:"client_user,omitempty" envconfig:"IRODS_CLIENT_USER"`
	ProxyUser  string `json:"proxy_user,omitempty" yaml:"proxy_user,omitempty" envconfig:"IRODS_PROXY_USER"`
	Password   string `json:"password,omitempty" yaml:"password,omitempty" envconfig:"IRODS_PASSWORD"`
	Ticket     string `json:"ticket,omitempty" yaml:"ticket,omitempty" envconfig:"IRODS_TICKET"`
	Resource   string `json:"resource,omitempty" yaml:"resource,omitempty" envconfig:"IRODS_RESOURCE"`
	AuthScheme string `json:"auth_scheme,omitempty" yaml:"auth_scheme,omitempty" envconfig:"IRODS_AUTH_SCHEME"`

	CSNegotiationPolicy string `json:"cs_negotiation_policy,omitempty" yaml:"cs_negotiation_policy,omitempty" envconfig:"IRODS_CS_NEGOTIATION_POLICY"`
	CACertificateFile   string `json:"ca_certificate_file,omitempty" yaml:"ca_certificate_file,omitempty" envconfig:"IRODS_CA_CERTIFICATE_FILE"`
	VerifyServer        bool   `json:"verify_server,omitempty" yaml:"verify_server,omitempty" envconfig:"IRODS_VERIFY_SERVER"`
	EncryptionKeySize   int    `json:"encryption_key_size,omitempty" yaml:"encryption_key_size,omitempty" envconfig:"IRODS_ENCRYPTION_KEY_SIZE"`
	EncryptionAlgorithm string `json:"encryption_algorithm,omitempty" yaml:"encryption_algorithm,omitempty" envconfig:"IRODS_ENCRYPTION_ALGORITHM"`
	SaltSize            int    `json:"salt_size,omitempty" yaml:"salt_size,omitempty" envconfig:"IRODS_SALT_SIZE"`
	HashRounds          int    `json:"hash_rounds,omitempty" yaml:"hash_rounds,omitempty" envconfig:"IRODS_HASH_ROUNDS"`

	OperationTimeout         Duration `json:"operation_timeout,omitempty" yaml:"operation_timeout,omitempty" envconfig:"IRODS_OPERATION_TIMEOUT"`
	ParallelOperationTimeout Duration `json:"parallel_operation_timeout,omitempty" yaml:"parallel_operation_timeout,omitempty" envconfig:"IRODS_PARALLEL_OPERATION_TIMEOUT"`

	InternalInputStreamBufferSize   int `json:"internal_input_stream_buffer_size,omitempty" yaml:"internal_input_stream_buffer_size,omitempty" envconfig:"IRODS_INTERNAL_INPUT_STREAM_BUFFER_SIZE"`
	InternalOutputStreamBufferSize  int `json:"internal_output_stream_buffer_size,omitempty" yaml:"internal_output_stream_buffer_size,omitempty" envconfig:"IRODS_INTERNAL_OUTPUT_STREAM_BUFFER_SIZE"`
	InternalCacheBufferSize         int `json:"internal_cache_buffer_size,omitempty" yaml:"internal_cache_buffer_size,omitempty" envconfig:"IRODS_INTERNAL_CACHE_BUFFER_SIZE"`
	SendInputStreamBufferSize       int `json:"send_input_stream_buffer_size,omitempty" yaml:"send_input_stream_buffer_size,omitempty" envconfig:"IRODS_SEND_INPUT_STREAM_BUFFER_SIZE"`
	LocalFileInputStreamBufferSize  int `json:"local_file_input_stream_buffer_size,omitempty" yaml:"local_file_input_stream_buffer_size,omitempty" envconfig:"IRODS_LOCAL_FILE_INPUT_STREAM_BUFFER_SIZE"`
	LocalFileOutputStreamBufferSize int `json:"local_file_output_stream_buffer_size,omitempty" yaml:"local_file_output_stream_buffer_size,omitempty" envconfig:"IRODS_LOCAL_FILE_OUTPUT_STREAM_BUFFER_SIZE"`
	InputToOutputCopyBufferSize     int `json:"input_to_output_copy_buffer_size,omitempty" yaml:"input_to_output_copy_buffer_size,omitempty" envconfig:"IRODS_INPUT_TO_OUTPUT_COPY_BUFFER_SIZE"`

	SingleBufferThreshold int64 `json:"single_buffer_threshold,omitempty" yaml:"single_buffer_threshold,omitempty" envconfig:"IRODS_SINGLE_BUFFER_THRESHOLD"`
	MaxParallelThreads    int   `json:"max_parallel_threads,omitempty" yaml:"max_parallel_threads,omitempty" envconfig:"IRODS_MAX_PARALLEL_THREADS"`

	StatCacheTimeout Duration `json:"stat_cache_timeout,omitempty" yaml:"stat_cache_timeout,omitempty" envconfig:"IRODS_STAT_CACHE_TIMEOUT"`

	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" envconfig:"IRODS_LOG_LEVEL"`
	LogPath  string `json:"log_path,omitempty" yaml:"log_path,omitempty" envconfig:"IRODS_LOG_PATH"`

	Profile            bool `json:"profile,omitempty" yaml:"profile,omitempty" envconfig:"IRODS_PROFILE"`
	ProfileServicePort int  `json:"profile_service_port,omitempty" yaml:"profile_service_port,omitempty" envconfig:"IRODS_PROFILE_SERVICE_PORT"`
}

// NewDefaultConfig returns a default config
func NewDefaultConfig() *Config {
	return &Config{
		Port:       PortDefault,
		AuthScheme: string(types.AuthSchemeNative),

		CSNegotiationPolicy: string(types.CSNegotiationDontCare),
		VerifyServer:        true,
		EncryptionKeySize:   EncryptionKeySizeDefault,
		EncryptionAlgorithm: EncryptionAlgorithmDefault,
		SaltSize:            EncryptionSaltSizeDefault,
		HashRounds:          EncryptionHashRoundsDefault,

		OperationTimeout:         Duration(OperationTimeoutDefault),
		ParallelOperationTimeout: Duration(ParallelOperationTimeoutDefault),

		InternalInputStreamBufferSize:   InternalInputStreamBufferSizeDefault,
		InternalOutputStreamBufferSize:  InternalOutputStreamBufferSizeDefault,
		InternalCacheBufferSize:         InternalCacheBufferSizeDefault,
		SendInputStreamBufferSize:       SendInputStreamBufferSizeDefault,
		LocalFileInputStreamBufferSize:  LocalFileInputStreamBufferSizeDefault,
		LocalFileOutputStreamBufferSize: LocalFileOutputStreamBufferSizeDefault,
		InputToOutputCopyBufferSize:     InputToOutputCopyBufferSizeDefault,

		SingleBufferThreshold: SingleBufferThresholdDefault,
		MaxParallelThreads:    MaxParallelThreadsDefault,

		StatCacheTimeout: Duration(StatCacheTimeoutDefault),

		LogLevel: "",
		LogPath:  "",
	}
}

// NewConfigFromYAMLFile creates Config from a YAML file
func NewConfigFromYAMLFile(config *Config, yamlPath string) (*Config, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}

	yamlBytes, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to read YAML file %q: %w", yamlPath, err)
	}

	err = yaml.Unmarshal(yamlBytes, &cfg)
	if err != nil {
		return nil, xerrors.Errorf("failed to unmarshal YAML file %q to config: %w", yamlPath, err)
	}

	return &cfg, nil
}

// NewConfigFromENV creates Config from environment variables, overlaying the
// given config
func NewConfigFromENV(config *Config) (*Config, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}

	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, xerrors.Errorf("failed to read config from environment: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (config *Config) Validate() error {
	if len(config.Host) == 0 {
		return xerrors.Errorf("empty host")
	}

	if config.Port <= 0 {
		return xerrors.Errorf("invalid port %d", config.Port)
	}

	if len(config.Zone) == 0 {
		return xerrors.Errorf("empty zone")
	}

	if len(config.ProxyUser) == 0 && len(config.ClientUser) == 0 {
		return xerrors.Errorf("empty user")
	}

	return nil
}

// ToAccount converts the configuration into an IRODSAccount
func (config *Config) ToAccount() (*types.IRODSAccount, error) {
	authScheme, err := types.GetAuthScheme(config.AuthScheme)
	if err != nil {
		return nil, err
	}

	clientUser := config.ClientUser
	if len(clientUser) == 0 {
		clientUser = config.ProxyUser
	}

	proxyUser := config.ProxyUser
	if len(proxyUser) == 0 {
		proxyUser = config.ClientUser
	}

	account, err := types.CreateIRODSProxyAccount(config.Host, config.Port,
		clientUser, config.Zone, proxyUser, config.Zone,
		authScheme, config.Password, config.Resource)
	if err != nil {
		return nil, err
	}

	account.Ticket = config.Ticket

	negotiationPolicy, err := types.GetCSNegotiationPolicy(config.CSNegotiationPolicy)
	if err != nil {
		return nil, err
	}
	account.SetCSNegotiation(negotiationPolicy)

	if authScheme == types.AuthSchemePAM || account.ClientServerNegotiation == types.CSNegotiationRequireSSL {
		sslConfig, err := types.CreateIRODSSSLConfig(config.CACertificateFile, config.EncryptionKeySize,
			config.EncryptionAlgorithm, config.SaltSize, config.HashRounds)
		if err != nil {
			return nil, err
		}

		sslConfig.VerifyServer = config.VerifyServer
		account.SetSSLConfiguration(sslConfig)
	}

	return account, nil
}

// PipelineConfiguration is the immutable io tuning snapshot captured at
// connection birth
type PipelineConfiguration struct {
	OperationTimeout         time.Duration
	ParallelOperationTimeout time.Duration

	TCPBufferSize int

	InternalInputStreamBufferSize   int
	InternalOutputStreamBufferSize  int
	InternalCacheBufferSize         int
	SendInputStreamBufferSize       int
	LocalFileInputStreamBufferSize  int
	LocalFileOutputStreamBufferSize int
	InputToOutputCopyBufferSize     int

	SingleBufferThreshold int64
	MaxParallelThreads    int

	DefaultEncoding string

	EncryptionAlgorithm string
	EncryptionKeySize   int
	EncryptionSaltSize  int
	EncryptionHashRounds int

	PamTTL int
}

// NewPipelineConfiguration captures a PipelineConfiguration from the
// prevailing config
func NewPipelineConfiguration(config *Config) *PipelineConfiguration {
	if config == nil {
		config = NewDefaultConfig()
	}

	return &PipelineConfiguration{
		OperationTimeout:         time.Duration(config.OperationTimeout),
		ParallelOperationTimeout: time.Duration(config.ParallelOperationTimeout),

		TCPBufferSize: TCPBufferSizeDefault,

		InternalInputStreamBufferSize:   config.InternalInputStreamBufferSize,
		InternalOutputStreamBufferSize:  config.InternalOutputStreamBufferSize,
		InternalCacheBufferSize:         config.InternalCacheBufferSize,
		SendInputStreamBufferSize:       config.SendInputStreamBufferSize,
		LocalFileInputStreamBufferSize:  config.LocalFileInputStreamBufferSize,
		LocalFileOutputStreamBufferSize: config.LocalFileOutputStreamBufferSize,
		InputToOutputCopyBufferSize:     config.InputToOutputCopyBufferSize,

		SingleBufferThreshold: config.SingleBufferThreshold,
		MaxParallelThreads:    config.MaxParallelThreads,

		DefaultEncoding: DefaultEncoding,

		EncryptionAlgorithm:  config.EncryptionAlgorithm,
		EncryptionKeySize:    config.EncryptionKeySize,
		EncryptionSaltSize:   config.SaltSize,
		EncryptionHashRounds: config.HashRounds,

		PamTTL: PamTTLDefault,
	}
}

// NewDefaultPipelineConfiguration captures a PipelineConfiguration from
// defaults
func NewDefaultPipelineConfiguration() *PipelineConfiguration {
	return NewPipelineConfiguration(NewDefaultConfig())
}
