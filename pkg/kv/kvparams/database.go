package kvparams

import (
	"time"

	"github.com/treeverse/gitvfs/pkg/config"
)

type Config struct {
	Type     string
	Local    *Local
	Postgres *Postgres
	DynamoDB *DynamoDB
	// Metrics wraps the opened store with request duration metrics
	Metrics bool
}

type Local struct {
	// Path - Local directory path to store the DB files
	Path string
	// SyncWrites - Sync ensures data written to disk on each writing instead of mem cache
	SyncWrites bool
	// PrefetchSize - Number of elements to prefetch while iterating
	PrefetchSize int
	// EnableLogging - Enable store and badger (trace only) logging
	EnableLogging bool
}

type Postgres struct {
	ConnectionString      string
	MaxOpenConnections    int32
	MaxIdleConnections    int32
	ConnectionMaxLifetime time.Duration
	ScanPageSize          int
}

type DynamoDB struct {
	// The name of the DynamoDB table to be used as KV
	TableName string

	// Maximal number of items per page during scan operation
	ScanLimit int64

	// Specifies the maximum number attempts to make on a request.
	MaxAttempts int

	// The endpoint URL of the DynamoDB endpoint
	// Can be used to redirect to DynamoDB on AWS, local docker etc.
	Endpoint string

	// AWS connection details - region, profile and credentials.  These override details
	// configured in the system; fake values connect to a local DynamoDB.
	AwsRegion          string
	AwsProfile         string
	AwsAccessKeyID     string
	AwsSecretAccessKey string
}

// NewConfig returns the kv parameters of the storage section of cfg.
func NewConfig(cfg *config.Config) Config {
	kvCfg := cfg.Storage.KV
	p := Config{
		Type:    kvCfg.Type,
		Metrics: kvCfg.Metrics,
	}
	if kvCfg.Local != nil {
		p.Local = &Local{
			Path:          kvCfg.Local.Path,
			SyncWrites:    kvCfg.Local.SyncWrites,
			PrefetchSize:  kvCfg.Local.PrefetchSize,
			EnableLogging: kvCfg.Local.EnableLogging,
		}
	}
	if kvCfg.Postgres != nil {
		p.Postgres = &Postgres{
			ConnectionString:      kvCfg.Postgres.ConnectionString.SecureValue(),
			MaxOpenConnections:    kvCfg.Postgres.MaxOpenConnections,
			MaxIdleConnections:    kvCfg.Postgres.MaxIdleConnections,
			ConnectionMaxLifetime: kvCfg.Postgres.ConnectionMaxLifetime,
			ScanPageSize:          kvCfg.Postgres.ScanPageSize,
		}
	}
	if kvCfg.DynamoDB != nil {
		p.DynamoDB = &DynamoDB{
			TableName:          kvCfg.DynamoDB.TableName,
			ScanLimit:          kvCfg.DynamoDB.ScanLimit,
			MaxAttempts:        kvCfg.DynamoDB.MaxAttempts,
			Endpoint:           kvCfg.DynamoDB.Endpoint,
			AwsRegion:          kvCfg.DynamoDB.AwsRegion,
			AwsProfile:         kvCfg.DynamoDB.AwsProfile,
			AwsAccessKeyID:     kvCfg.DynamoDB.AwsAccessKeyID.SecureValue(),
			AwsSecretAccessKey: kvCfg.DynamoDB.AwsSecretAccessKey.SecureValue(),
		}
	}
	return p
}
