package catalog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/csvbooks"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/snapshots"
)

// ErrNoSnapshot is returned by a SnapshotStore that has nothing saved yet.
var ErrNoSnapshot = errors.New("no catalog snapshot")

// SnapshotStore holds the single serialized catalog blob.
type SnapshotStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// DatasetSource produces the initial collection when there is no snapshot.
type DatasetSource interface {
	Books(ctx context.Context) ([]*models.Book, error)
}

type keyedSnapshot struct {
	store snapshots.Store
	key   string
}

// NewSnapshotStore binds a snapshots.Store to the key the catalog is saved
// under.
func NewSnapshotStore(store snapshots.Store, key string) SnapshotStore {
	return &keyedSnapshot{store, key}
}

func (k *keyedSnapshot) Load(ctx context.Context) ([]byte, error) {
	data, err := k.store.Load(ctx, k.key)
	if errors.Is(err, snapshots.ErrNotFound) {
		return nil, ErrNoSnapshot
	}
	return data, err
}

func (k *keyedSnapshot) Save(ctx context.Context, data []byte) error {
	return k.store.Save(ctx, k.key, data)
}

type datasetFile struct {
	path    string
	dialect csvbooks.Dialect
	log     logger.Logger
}

// NewDatasetFile reads the bundled dataset from path. Dropped rows are logged
// at debug level.
func NewDatasetFile(path string, dialect csvbooks.Dialect, log logger.Logger) DatasetSource {
	return &datasetFile{path, dialect, log}
}

func (d *datasetFile) Books(ctx context.Context) ([]*models.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return csvbooks.LoadFile(d.path, csvbooks.ParseOptions{
		Dialect: d.dialect,
		OnSkip: func(e csvbooks.RowError) {
			d.log.Debug("skipped dataset row", logger.Data{"path": d.path, "line": e.Line, "reason": e.Reason})
		},
	})
}

// DatasetFunc adapts a plain function to DatasetSource.
type DatasetFunc func(ctx context.Context) ([]*models.Book, error)

func (f DatasetFunc) Books(ctx context.Context) ([]*models.Book, error) {
	return f(ctx)
}
