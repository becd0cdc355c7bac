package commons

import "time"

const (
	ClientProgramName string = "go-irodsgrid"

	IRODSEnvironmentFileEnvKey string = "IRODS_ENVIRONMENT_FILE"

	PortDefault int = 1247

	OperationTimeoutDefault         time.Duration = 5 * time.Minute
	ParallelOperationTimeoutDefault time.Duration = 15 * time.Minute

	TCPBufferSizeDefault int = 4 * 1024 * 1024 // 4MB

	InternalInputStreamBufferSizeDefault   int = 64 * 1024
	InternalOutputStreamBufferSizeDefault  int = 64 * 1024
	InternalCacheBufferSizeDefault         int = 4 * 1024 * 1024
	SendInputStreamBufferSizeDefault       int = 4 * 1024 * 1024
	LocalFileInputStreamBufferSizeDefault  int = 1024 * 1024
	LocalFileOutputStreamBufferSizeDefault int = 1024 * 1024
	InputToOutputCopyBufferSizeDefault     int = 1024 * 1024

	SingleBufferThresholdDefault int64 = 32 * 1024 * 1024 // 32MB
	MaxParallelThreadsDefault    int   = 4

	EncryptionAlgorithmDefault  string = "AES-256-CBC"
	EncryptionKeySizeDefault    int    = 32
	EncryptionSaltSizeDefault   int    = 8
	EncryptionHashRoundsDefault int    = 16

	DefaultEncoding string = "utf-8"

	PamTTLDefault int = 1 // hours

	StatCacheTimeoutDefault time.Duration = 1 * time.Minute

	IdleConnectionMaxDefault int = 4
)
