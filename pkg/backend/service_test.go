package backend

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/migrations"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
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

func createTestUser(t *testing.T, db *bun.DB, name string) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		UID:          uuid.NewString(),
		Email:        name + "@example.com",
		Name:         name,
		PasswordHash: "test",
		Role:         models.RoleMember,
		Status:       models.MemberStatusActive,
		JoinedAt:     now,
		ExpiresAt:    now.AddDate(1, 0, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func testBooks() []*models.Book {
	return []*models.Book{
		{BookID: 1, Title: "Dune", Author: "Frank Herbert", Category: "SciFi", PublishedYear: 1965, Copies: 3},
		{BookID: 2, Title: "Emma", Author: "Jane Austen", Category: "Romance", PublishedYear: 1815, Copies: 0},
	}
}

func TestService_SyncBooks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	t.Run("inserts new books", func(t *testing.T) {
		n, err := svc.SyncBooks(ctx, testBooks())
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		count, err := svc.CountBooks(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		book, err := svc.RetrieveBook(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Dune", book.Title)
		assert.True(t, book.IsAvailable)

		book, err = svc.RetrieveBook(ctx, 2)
		require.NoError(t, err)
		assert.False(t, book.IsAvailable)
	})

	t.Run("updates existing books in place", func(t *testing.T) {
		books := testBooks()
		books[1].Copies = 4
		_, err := svc.SyncBooks(ctx, books)
		require.NoError(t, err)

		count, err := svc.CountBooks(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		book, err := svc.RetrieveBook(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 4, book.Copies)
		assert.True(t, book.IsAvailable)
	})

	t.Run("does nothing for an empty batch", func(t *testing.T) {
		n, err := svc.SyncBooks(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("doesn't modify the input", func(t *testing.T) {
		books := testBooks()
		_, err := svc.SyncBooks(ctx, books)
		require.NoError(t, err)
		assert.True(t, books[0].CreatedAt.IsZero())
		assert.False(t, books[0].IsAvailable)
	})
}

func TestService_UpdateCopies(t *testing.T) {
	t.Parallel()
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	_, err := svc.SyncBooks(ctx, testBooks())
	require.NoError(t, err)

	found, err := svc.UpdateCopies(ctx, 1, 0)
	require.NoError(t, err)
	assert.True(t, found)

	book, err := svc.RetrieveBook(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, book.Copies)
	assert.False(t, book.IsAvailable)

	found, err = svc.UpdateCopies(ctx, 2, 5)
	require.NoError(t, err)
	assert.True(t, found)
	book, err = svc.RetrieveBook(ctx, 2)
	require.NoError(t, err)
	assert.True(t, book.IsAvailable)

	found, err = svc.UpdateCopies(ctx, 99, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestService_IssueBook(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "ada")

	_, err := svc.SyncBooks(ctx, testBooks())
	require.NoError(t, err)

	t.Run("records the issue and leaves copies to the mirror", func(t *testing.T) {
		issued, err := svc.IssueBook(ctx, 1, user.ID)
		require.NoError(t, err)
		assert.NotZero(t, issued.ID)
		assert.Equal(t, "Dune", issued.Title)
		assert.Equal(t, "Frank Herbert", issued.Author)
		assert.Equal(t, models.IssueStatusIssued, issued.Status)

		book, err := svc.RetrieveBook(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, book.Copies)
		assert.True(t, book.IsAvailable)

		list, err := svc.ListIssuedBooks(ctx, ListIssuedBooksOptions{UserID: &user.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 1, list[0].BookID)
	})

	t.Run("availability always matches the copy count", func(t *testing.T) {
		_, err := svc.IssueBook(ctx, 1, user.ID)
		require.NoError(t, err)
		_, err = svc.UpdateCopies(ctx, 1, 1)
		require.NoError(t, err)

		books := []*models.Book{}
		err = db.NewSelect().Model(&books).Scan(ctx)
		require.NoError(t, err)
		for _, book := range books {
			assert.Equal(t, book.Copies > 0, book.IsAvailable, "book %d", book.BookID)
		}
	})

	t.Run("returns not found for unknown books and users", func(t *testing.T) {
		_, err := svc.IssueBook(ctx, 99, user.ID)
		assert.True(t, errors.Is(err, errcodes.NotFound("Book")))

		_, err = svc.SyncBooks(ctx, []*models.Book{{BookID: 3, Title: "Beloved", Author: "Toni Morrison", Copies: 1}})
		require.NoError(t, err)
		_, err = svc.IssueBook(ctx, 3, 12345)
		assert.True(t, errors.Is(err, errcodes.NotFound("User")))
	})

	t.Run("filters by status", func(t *testing.T) {
		status := models.IssueStatusReturned
		list, err := svc.ListIssuedBooks(ctx, ListIssuedBooksOptions{Status: &status})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestService_Reservations(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	user := createTestUser(t, db, "grace")

	r, err := svc.CreateReservation(ctx, 1, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationPending, r.Status)

	open, err := svc.OpenReservation(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, r.ID, open.ID)

	err = svc.UpdateReservation(ctx, open, models.ReservationApproved)
	require.NoError(t, err)

	t.Run("updates only the given row", func(t *testing.T) {
		other := createTestUser(t, db, "ada")
		stale, err := svc.CreateReservation(ctx, 2, other.ID)
		require.NoError(t, err)

		err = svc.UpdateReservation(ctx, open, models.ReservationNotReserved)
		require.NoError(t, err)

		list, err := svc.ListReservations(ctx, ListReservationsOptions{BookID: &stale.BookID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.ReservationPending, list[0].Status)
	})

	t.Run("closed reservations aren't open", func(t *testing.T) {
		_, err := svc.OpenReservation(ctx, 1)
		assert.True(t, errors.Is(err, errcodes.NotFound("Reservation")))
	})

	t.Run("lists by user", func(t *testing.T) {
		list, err := svc.ListReservations(ctx, ListReservationsOptions{UserID: &user.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, 1, list[0].BookID)
		assert.Equal(t, models.ReservationNotReserved, list[0].Status)
	})
}

func TestService_Wishlist(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()
	ada := createTestUser(t, db, "ada")
	grace := createTestUser(t, db, "grace")

	require.NoError(t, svc.SetWishlisted(ctx, ada.ID, 1, true))
	require.NoError(t, svc.SetWishlisted(ctx, ada.ID, 1, true))
	require.NoError(t, svc.SetWishlisted(ctx, ada.ID, 2, true))
	require.NoError(t, svc.SetWishlisted(ctx, grace.ID, 2, true))
	require.NoError(t, svc.SetWishlisted(ctx, ada.ID, 2, false))

	wishlist, err := svc.Wishlist(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true}, wishlist)

	wishlist, err = svc.Wishlist(ctx, grace.ID)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{2: true}, wishlist)
}

func TestService_Announcements(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		err := svc.CreateAnnouncement(ctx, &models.Announcement{
			Title:   "Notice",
			Content: "<p>Day " + string(rune('A'+i)) + "</p>",
			Date:    base.AddDate(0, 0, i),
		})
		require.NoError(t, err)
	}

	t.Run("lists the newest five by default", func(t *testing.T) {
		list, err := svc.ListAnnouncements(ctx, 0)
		require.NoError(t, err)
		require.Len(t, list, DefaultAnnouncementLimit)
		assert.Equal(t, "Day G", list[0].Content)
		assert.Equal(t, "Day C", list[4].Content)
		for i := 1; i < len(list); i++ {
			assert.True(t, list[i-1].Date.After(list[i].Date))
		}
	})

	t.Run("requires a title", func(t *testing.T) {
		err := svc.CreateAnnouncement(ctx, &models.Announcement{Title: "<b></b>", Content: "x"})
		var e *errcodes.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "validation_error", e.Code)
	})

	t.Run("defaults the date to now", func(t *testing.T) {
		a := &models.Announcement{Title: "Today", Content: "Open late"}
		require.NoError(t, svc.CreateAnnouncement(ctx, a))
		assert.WithinDuration(t, time.Now(), a.Date, time.Minute)
	})
}

func TestUserError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, UserError(nil))

	notFound := errcodes.NotFound("Book")
	assert.Equal(t, notFound, UserError(notFound))

	err := UserError(errors.New("attempt to write a readonly database"))
	var e *errcodes.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "Permission denied. Contact support.", e.Message)

	other := errors.New("disk I/O error")
	assert.Equal(t, other, UserError(other))
}
