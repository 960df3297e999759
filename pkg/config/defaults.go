package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultLoggingFormat        = "text"
	DefaultLoggingLevel         = "INFO"
	DefaultLoggingOutput        = "="
	DefaultLoggingFileMaxSizeMB = 100
	DefaultLoggingFilesKeep     = 10

	DefaultStorageType    = StorageTypeFS
	DefaultStorageRoot    = "default"
	DefaultStorageFSPath  = "~/.gitvfs"
	DefaultStorageKVType  = "local"
	DefaultKVLocalPath    = "~/.gitvfs/kv"
	DefaultKVPrefetchSize = 256

	DefaultKVPostgresMaxOpenConnections    = 25
	DefaultKVPostgresMaxIdleConnections    = 25
	DefaultKVPostgresConnectionMaxLifetime = 5 * time.Minute
	DefaultKVPostgresScanPageSize          = 1000

	DefaultKVDynamoDBTableName   = "gitvfs"
	DefaultKVDynamoDBScanLimit   = 1024
	DefaultKVDynamoDBMaxAttempts = 10

	DefaultAdapterBranch = "main"

	DefaultRetryAttempts  = 4
	DefaultRetryBaseDelay = 300 * time.Millisecond
	DefaultRetryMaxDelay  = 30 * time.Second
	DefaultConcurrency    = 10
	DefaultRateLimit      = 0 // unlimited
	DefaultRemoteTimeout  = 60 * time.Second
	DefaultCacheSize      = 4096
)

// Default keys
const (
	LoggingFormatKey        = "logging.format"
	LoggingLevelKey         = "logging.level"
	LoggingOutputKey        = "logging.output"
	LoggingFileMaxSizeMBKey = "logging.file_max_size_mb"
	LoggingFilesKeepKey     = "logging.files_keep"

	StorageTypeKey   = "storage.type"
	StorageRootKey   = "storage.root"
	StorageFSPathKey = "storage.fs.path"

	StorageKVTypeKey                       = "storage.kv.type"
	StorageKVLocalPathKey                  = "storage.kv.local.path"
	StorageKVLocalPrefetchSizeKey          = "storage.kv.local.prefetch_size"
	StorageKVLocalSyncWritesKey            = "storage.kv.local.sync_writes"
	StorageKVPostgresMaxOpenConnectionsKey = "storage.kv.postgres.max_open_connections"
	StorageKVPostgresMaxIdleConnectionsKey = "storage.kv.postgres.max_idle_connections"
	StorageKVPostgresConnMaxLifetimeKey    = "storage.kv.postgres.connection_max_lifetime"
	StorageKVPostgresScanPageSizeKey       = "storage.kv.postgres.scan_page_size"
	StorageKVDynamoDBTableNameKey          = "storage.kv.dynamodb.table_name"
	StorageKVDynamoDBScanLimitKey          = "storage.kv.dynamodb.scan_limit"
	StorageKVDynamoDBMaxAttemptsKey        = "storage.kv.dynamodb.max_attempts"

	AdapterTypeKey      = "adapter.type"
	AdapterOwnerKey     = "adapter.owner"
	AdapterRepoKey      = "adapter.repo"
	AdapterProjectIDKey = "adapter.project_id"
	AdapterTokenKey     = "adapter.token"
	AdapterHostKey      = "adapter.host"
	AdapterBranchKey    = "adapter.branch"

	RemoteRetryAttemptsKey  = "remote.retry.attempts"
	RemoteRetryBaseDelayKey = "remote.retry.base_delay"
	RemoteRetryMaxDelayKey  = "remote.retry.max_delay"
	RemoteConcurrencyKey    = "remote.concurrency"
	RemoteRateLimitKey      = "remote.rate_limit"
	RemoteTimeoutKey        = "remote.timeout"
	RemoteCacheSizeKey      = "remote.cache_size"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(LoggingFormatKey, DefaultLoggingFormat)
	v.SetDefault(LoggingLevelKey, DefaultLoggingLevel)
	v.SetDefault(LoggingOutputKey, DefaultLoggingOutput)
	v.SetDefault(LoggingFileMaxSizeMBKey, DefaultLoggingFileMaxSizeMB)
	v.SetDefault(LoggingFilesKeepKey, DefaultLoggingFilesKeep)

	v.SetDefault(StorageTypeKey, DefaultStorageType)
	v.SetDefault(StorageRootKey, DefaultStorageRoot)
	v.SetDefault(StorageFSPathKey, DefaultStorageFSPath)

	v.SetDefault(StorageKVTypeKey, DefaultStorageKVType)
	v.SetDefault(StorageKVLocalPathKey, DefaultKVLocalPath)
	v.SetDefault(StorageKVLocalPrefetchSizeKey, DefaultKVPrefetchSize)
	v.SetDefault(StorageKVLocalSyncWritesKey, true)
	v.SetDefault(StorageKVPostgresMaxOpenConnectionsKey, DefaultKVPostgresMaxOpenConnections)
	v.SetDefault(StorageKVPostgresMaxIdleConnectionsKey, DefaultKVPostgresMaxIdleConnections)
	v.SetDefault(StorageKVPostgresConnMaxLifetimeKey, DefaultKVPostgresConnectionMaxLifetime)
	v.SetDefault(StorageKVPostgresScanPageSizeKey, DefaultKVPostgresScanPageSize)
	v.SetDefault(StorageKVDynamoDBTableNameKey, DefaultKVDynamoDBTableName)
	v.SetDefault(StorageKVDynamoDBScanLimitKey, DefaultKVDynamoDBScanLimit)
	v.SetDefault(StorageKVDynamoDBMaxAttemptsKey, DefaultKVDynamoDBMaxAttempts)

	v.SetDefault(AdapterBranchKey, DefaultAdapterBranch)

	v.SetDefault(RemoteRetryAttemptsKey, DefaultRetryAttempts)
	v.SetDefault(RemoteRetryBaseDelayKey, DefaultRetryBaseDelay)
	v.SetDefault(RemoteRetryMaxDelayKey, DefaultRetryMaxDelay)
	v.SetDefault(RemoteConcurrencyKey, DefaultConcurrency)
	v.SetDefault(RemoteRateLimitKey, DefaultRateLimit)
	v.SetDefault(RemoteTimeoutKey, DefaultRemoteTimeout)
	v.SetDefault(RemoteCacheSizeKey, DefaultCacheSize)
}
