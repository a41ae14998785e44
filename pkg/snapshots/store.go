package snapshots

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/uptrace/bun"
)

// ErrNotFound is returned by Load when nothing has been stored under a key.
var ErrNotFound = errors.New("snapshot not found")

// Store is a flat key-value blob store. Save overwrites the whole value.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// DBStore keeps snapshots in the snapshots table.
type DBStore struct {
	db *bun.DB
}

func NewDBStore(db *bun.DB) *DBStore {
	return &DBStore{db}
}

func (s *DBStore) Load(ctx context.Context, key string) ([]byte, error) {
	snapshot := &models.Snapshot{}
	err := s.db.NewSelect().
		Model(snapshot).
		Where("s.name = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.WithStack(err)
	}
	return snapshot.Data, nil
}

func (s *DBStore) Save(ctx context.Context, key string, data []byte) error {
	snapshot := &models.Snapshot{
		Name:      key,
		Data:      data,
		UpdatedAt: time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(snapshot).
		On("CONFLICT (name) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}
