package worker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/catalog"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/migrations"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/snapshots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestWorker_MirrorsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := backend.NewService(db)

	books := []*models.Book{
		{BookID: 1, Title: "Dune", Author: "Frank Herbert", Copies: 2},
		{BookID: 2, Title: "Emma", Author: "Jane Austen", Copies: 1},
	}
	_, err := svc.SyncBooks(ctx, books)
	require.NoError(t, err)

	store := catalog.NewStore(
		catalog.NewSnapshotStore(snapshots.NewFileStore(t.TempDir()), "savedBooks"),
		catalog.DatasetFunc(func(_ context.Context) ([]*models.Book, error) { return books, nil }),
		logger.New(),
	)
	_, err = store.Initialize(ctx)
	require.NoError(t, err)

	w := New(store, svc, 2)
	w.Start()

	_, err = store.UpdateCopies(ctx, 1, 0)
	require.NoError(t, err)
	_, err = store.UpdateWishlistStatus(ctx, 2, true)
	require.NoError(t, err)
	_, err = store.UpdateCopies(ctx, 2, 4)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		b1, err := svc.RetrieveBook(ctx, 1)
		if err != nil {
			return false
		}
		b2, err := svc.RetrieveBook(ctx, 2)
		if err != nil {
			return false
		}
		return b1.Copies == 0 && !b1.IsAvailable && b2.Copies == 4
	}, 2*time.Second, 10*time.Millisecond)

	w.Shutdown()

	// Nothing is mirrored once the worker has stopped.
	_, err = store.UpdateCopies(ctx, 1, 7)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	b1, err := svc.RetrieveBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, b1.Copies)
}

func TestWorker_ShutdownDrainsReceivedChanges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := setupTestDB(t)
	svc := backend.NewService(db)

	books := []*models.Book{
		{BookID: 1, Title: "Dune", Author: "Frank Herbert", Copies: 2},
		{BookID: 2, Title: "Emma", Author: "Jane Austen", Copies: 1},
	}
	_, err := svc.SyncBooks(ctx, books)
	require.NoError(t, err)

	store := catalog.NewStore(
		catalog.NewSnapshotStore(snapshots.NewFileStore(t.TempDir()), "savedBooks"),
		catalog.DatasetFunc(func(_ context.Context) ([]*models.Book, error) { return books, nil }),
		logger.New(),
	)
	_, err = store.Initialize(ctx)
	require.NoError(t, err)

	w := New(store, svc, 1)
	w.Start()

	_, err = store.AdjustCopies(ctx, 1, -2)
	require.NoError(t, err)
	_, err = store.AdjustCopies(ctx, 2, 5)
	require.NoError(t, err)
	w.Shutdown()

	b1, err := svc.RetrieveBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, b1.Copies)
	assert.False(t, b1.IsAvailable)

	b2, err := svc.RetrieveBook(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, b2.Copies)
}

func TestWorker_ShutdownWithoutChanges(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	store := catalog.NewStore(
		catalog.NewSnapshotStore(snapshots.NewFileStore(t.TempDir()), "savedBooks"),
		catalog.DatasetFunc(func(_ context.Context) ([]*models.Book, error) { return nil, nil }),
		logger.New(),
	)

	w := New(store, backend.NewService(db), 0)
	w.Start()

	done := make(chan struct{})
	go func() {
		w.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("shutdown hung")
	}
}
