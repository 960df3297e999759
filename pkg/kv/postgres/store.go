package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/kv/kvparams"
	"github.com/treeverse/gitvfs/pkg/logging"
)

type Driver struct{}

type Store struct {
	Pool   *pgxpool.Pool
	Params *Params
}

type Params struct {
	TableName          string
	SanitizedTableName string
	ScanPageSize       int
}

const (
	DriverName = "postgres"

	DefaultTableName    = "kv"
	DefaultScanPageSize = 1000
	paramTableName      = "gitvfs_kv_table"
)

//nolint:gochecknoinits
func init() {
	kv.Register(DriverName, &Driver{})
}

func (d *Driver) Open(ctx context.Context, kvParams kvparams.Config) (kv.Store, error) {
	if kvParams.Postgres == nil || kvParams.Postgres.ConnectionString == "" {
		return nil, fmt.Errorf("missing %s settings: %w", DriverName, kv.ErrDriverConfiguration)
	}
	config, err := pgxpool.ParseConfig(kvParams.Postgres.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", kv.ErrDriverConfiguration, err)
	}
	if kvParams.Postgres.MaxOpenConnections > 0 {
		config.MaxConns = kvParams.Postgres.MaxOpenConnections
	}
	if kvParams.Postgres.MaxIdleConnections > 0 && kvParams.Postgres.MaxIdleConnections <= config.MaxConns {
		config.MinConns = kvParams.Postgres.MaxIdleConnections
	}
	if kvParams.Postgres.ConnectionMaxLifetime > 0 {
		config.MaxConnLifetime = kvParams.Postgres.ConnectionMaxLifetime
	}
	params := parseStoreConfig(config.ConnConfig.RuntimeParams, kvParams.Postgres)
	// table name is a gitvfs setting, not a server runtime parameter
	delete(config.ConnConfig.RuntimeParams, paramTableName)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", kv.ErrConnectFailed, err)
	}
	defer func() {
		// if we return before store uses the pool, free it
		if pool != nil {
			pool.Close()
		}
	}()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s", kv.ErrConnectFailed, err)
	}
	if err := setupKeyValueDatabase(ctx, pool, params); err != nil {
		return nil, fmt.Errorf("%w: %s", kv.ErrSetupFailed, err)
	}
	if kvParams.Metrics {
		collector := pgxpoolprometheus.NewCollector(pool, map[string]string{"db_name": params.TableName})
		if err := prometheus.Register(collector); err != nil {
			logging.FromContext(ctx).WithError(err).Debug("pool metrics collector not registered")
		}
	}
	store := &Store{
		Pool:   pool,
		Params: params,
	}
	pool = nil
	return store, nil
}

func parseStoreConfig(runtimeParams map[string]string, p *kvparams.Postgres) *Params {
	params := &Params{
		TableName:    DefaultTableName,
		ScanPageSize: DefaultScanPageSize,
	}
	if tableName, ok := runtimeParams[paramTableName]; ok {
		params.TableName = tableName
	}
	if p.ScanPageSize > 0 {
		params.ScanPageSize = p.ScanPageSize
	}
	params.SanitizedTableName = pgx.Identifier{params.TableName}.Sanitize()
	return params
}

// setupKeyValueDatabase setup everything required to enable kv over postgres
func setupKeyValueDatabase(ctx context.Context, pool *pgxpool.Pool, params *Params) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+params.SanitizedTableName+` (
    partition_key BYTEA NOT NULL,
    key BYTEA NOT NULL,
    value BYTEA NOT NULL,
    PRIMARY KEY (partition_key, key));`)
	return err
}

func (s *Store) Get(ctx context.Context, partitionKey, key []byte) (*kv.ValueWithPredicate, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return nil, kv.ErrMissingKey
	}
	row := s.Pool.QueryRow(ctx, `SELECT value FROM `+s.Params.SanitizedTableName+` WHERE partition_key = $1 AND key = $2`,
		partitionKey, key)
	var val []byte
	err := row.Scan(&val)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, kv.ErrOperationFailed)
	}
	return &kv.ValueWithPredicate{
		Value:     val,
		Predicate: kv.Predicate(val),
	}, nil
}

func (s *Store) Set(ctx context.Context, partitionKey, key, value []byte) error {
	if err := validateArgs(partitionKey, key, value); err != nil {
		return err
	}
	_, err := s.Pool.Exec(ctx, `INSERT INTO `+s.Params.SanitizedTableName+`(partition_key, key, value) VALUES($1, $2, $3)
			ON CONFLICT (partition_key, key) DO UPDATE SET value = $3`, partitionKey, key, value)
	if err != nil {
		return fmt.Errorf("%s: %w", err, kv.ErrOperationFailed)
	}
	return nil
}

func (s *Store) SetIf(ctx context.Context, partitionKey, key, value []byte, valuePredicate kv.Predicate) error {
	if err := validateArgs(partitionKey, key, value); err != nil {
		return err
	}
	var (
		res pgconn.CommandTag
		err error
	)
	if valuePredicate == nil {
		// use insert to make sure there was no previous value before
		res, err = s.Pool.Exec(ctx, `INSERT INTO `+s.Params.SanitizedTableName+`(partition_key, key, value) VALUES($1, $2, $3)
			ON CONFLICT DO NOTHING`, partitionKey, key, value)
	} else {
		// update just in case the previous value was same as predicate value
		res, err = s.Pool.Exec(ctx, `UPDATE `+s.Params.SanitizedTableName+` SET value = $3
			WHERE partition_key = $1 AND key = $2 AND value = $4`, partitionKey, key, value, valuePredicate.([]byte))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", err, kv.ErrOperationFailed)
	}
	if res.RowsAffected() != 1 {
		return kv.ErrPredicateFailed
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partitionKey, key []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	_, err := s.Pool.Exec(ctx, `DELETE FROM `+s.Params.SanitizedTableName+` WHERE partition_key = $1 AND key = $2`,
		partitionKey, key)
	if err != nil {
		return fmt.Errorf("%s: %w", err, kv.ErrOperationFailed)
	}
	return nil
}

// Scan reads the partition in pages of ScanPageSize keys.
func (s *Store) Scan(ctx context.Context, partitionKey []byte, options kv.ScanOptions) (kv.EntriesIterator, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	pageSize := s.Params.ScanPageSize
	if options.BatchSize > 0 && options.BatchSize < pageSize {
		pageSize = options.BatchSize
	}
	it := &EntriesIterator{
		ctx:          ctx,
		store:        s,
		partitionKey: partitionKey,
		pageSize:     pageSize,
	}
	it.loadPage(options.KeyStart, true)
	if it.err != nil {
		return nil, it.err
	}
	return it, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func validateArgs(partitionKey, key, value []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	if value == nil {
		return kv.ErrMissingValue
	}
	return nil
}
