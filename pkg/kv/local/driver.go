package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/kv/kvparams"
	"github.com/treeverse/gitvfs/pkg/logging"
)

const (
	DriverName          = "local"
	DefaultPrefetchSize = 256
)

var (
	driverLock    = &sync.Mutex{}
	connectionMap = make(map[string]*Store)
)

type Driver struct{}

// Open returns a store on the badger database at params.Local.Path.  Stores opened on the
// same path share the database, which is closed when the last of them is closed.
func (d *Driver) Open(ctx context.Context, kvParams kvparams.Config) (kv.Store, error) {
	params := kvParams.Local
	if params == nil || params.Path == "" {
		return nil, fmt.Errorf("missing %s settings: %w", DriverName, kv.ErrDriverConfiguration)
	}
	driverLock.Lock()
	defer driverLock.Unlock()
	connection, ok := connectionMap[params.Path]
	if !ok {
		logger := logging.Dummy()
		if params.EnableLogging {
			logger = logging.FromContext(ctx).WithField(logging.ServiceNameFieldKey, "kv_local")
		}
		opts := badger.DefaultOptions(params.Path).
			WithSyncWrites(params.SyncWrites).
			WithLogger(&BadgerLogger{logger})
		db, err := badger.Open(opts)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", kv.ErrConnectFailed, err)
		}
		prefetchSize := params.PrefetchSize
		if prefetchSize <= 0 {
			prefetchSize = DefaultPrefetchSize
		}
		connection = &Store{
			db:           db,
			logger:       logger,
			prefetchSize: prefetchSize,
			path:         params.Path,
		}
		connectionMap[params.Path] = connection
	}
	connection.refCount++
	return connection, nil
}

//nolint:gochecknoinits
func init() {
	kv.Register(DriverName, &Driver{})
}
