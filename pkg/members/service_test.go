package members

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
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

func createTestUser(t *testing.T, db *bun.DB, name, role, status string) *models.User {
	t.Helper()
	joined := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	user := &models.User{
		UID:          uuid.NewString(),
		Email:        name + "@example.com",
		Name:         name,
		PasswordHash: "test",
		Role:         role,
		Status:       status,
		JoinedAt:     joined,
		ExpiresAt:    joined.AddDate(1, 0, 0),
		CreatedAt:    joined,
		UpdatedAt:    joined,
	}
	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

func issueTestBook(t *testing.T, svc *backend.Service, bookID, userID int) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.SyncBooks(ctx, []*models.Book{{BookID: bookID, Title: "Dune", Author: "Frank Herbert", Copies: 1}})
	require.NoError(t, err)
	_, err = svc.IssueBook(ctx, bookID, userID)
	require.NoError(t, err)
}

func TestMemberCode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "M1234abcd", MemberCode("1234abcd-ef00-0000-0000-000000000000"))
	assert.Equal(t, "Mabc", MemberCode("abc"))
}

func TestService_ListMembers(t *testing.T) {
	db := setupTestDB(t)
	backendService := backend.NewService(db)
	svc := NewService(db, backendService)
	ctx := context.Background()

	zoe := createTestUser(t, db, "zoe", models.RoleMember, models.MemberStatusActive)
	createTestUser(t, db, "Adam", models.RoleMember, models.MemberStatusActive)
	createTestUser(t, db, "bea", models.RoleMember, models.MemberStatusInactive)
	createTestUser(t, db, "Libby", models.RoleLibrarian, models.MemberStatusActive)
	issueTestBook(t, backendService, 1, zoe.ID)

	t.Run("lists only members sorted by name", func(t *testing.T) {
		members, err := svc.ListMembers(ctx, ListMembersOptions{})
		require.NoError(t, err)
		require.Len(t, members, 3)
		assert.Equal(t, "Adam", members[0].Name)
		assert.Equal(t, "bea", members[1].Name)
		assert.Equal(t, "zoe", members[2].Name)

		assert.Equal(t, MemberCode(zoe.UID), members[2].MemberCode)
		require.Len(t, members[2].BorrowedBooks, 1)
		assert.Equal(t, "Dune", members[2].BorrowedBooks[0].Title)
		assert.Empty(t, members[0].BorrowedBooks)
	})

	t.Run("searches by name and member code", func(t *testing.T) {
		search := "ZO"
		members, err := svc.ListMembers(ctx, ListMembersOptions{Search: &search})
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, zoe.ID, members[0].ID)

		code := MemberCode(zoe.UID)
		members, err = svc.ListMembers(ctx, ListMembersOptions{Search: &code})
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, zoe.ID, members[0].ID)
	})
}

func TestService_ExtendMembership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, backend.NewService(db))
	ctx := context.Background()

	active := createTestUser(t, db, "ada", models.RoleMember, models.MemberStatusActive)
	inactive := createTestUser(t, db, "bob", models.RoleMember, models.MemberStatusInactive)

	t.Run("adds a year to an active membership", func(t *testing.T) {
		member, err := svc.ExtendMembership(ctx, active.ID)
		require.NoError(t, err)
		assert.True(t, member.ExpiresAt.Equal(active.ExpiresAt.AddDate(1, 0, 0)))

		stored, err := svc.RetrieveMember(ctx, active.ID)
		require.NoError(t, err)
		assert.True(t, stored.ExpiresAt.Equal(member.ExpiresAt))
	})

	t.Run("refuses an inactive membership", func(t *testing.T) {
		_, err := svc.ExtendMembership(ctx, inactive.ID)
		var e *errcodes.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "conflict", e.Code)
		assert.Equal(t, "Cannot extend membership. bob's membership is inactive.", e.Message)
	})

	t.Run("returns not found for non-members", func(t *testing.T) {
		librarian := createTestUser(t, db, "lib", models.RoleLibrarian, models.MemberStatusActive)
		_, err := svc.ExtendMembership(ctx, librarian.ID)
		assert.ErrorIs(t, err, errcodes.NotFound("Member"))
	})
}

func TestService_RevokeMembership(t *testing.T) {
	db := setupTestDB(t)
	backendService := backend.NewService(db)
	svc := NewService(db, backendService)
	ctx := context.Background()

	borrower := createTestUser(t, db, "cy", models.RoleMember, models.MemberStatusActive)
	issueTestBook(t, backendService, 7, borrower.ID)
	free := createTestUser(t, db, "di", models.RoleMember, models.MemberStatusActive)

	t.Run("refuses members with borrowed books", func(t *testing.T) {
		_, err := svc.RevokeMembership(ctx, borrower.ID)
		var e *errcodes.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "Cannot revoke membership. cy has 1 borrowed book(s).", e.Message)
	})

	t.Run("deactivates and expires the membership now", func(t *testing.T) {
		member, err := svc.RevokeMembership(ctx, free.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MemberStatusInactive, member.Status)
		assert.WithinDuration(t, time.Now(), member.ExpiresAt, time.Minute)

		stored, err := svc.RetrieveMember(ctx, free.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MemberStatusInactive, stored.Status)
	})

	t.Run("refuses an already revoked membership", func(t *testing.T) {
		_, err := svc.RevokeMembership(ctx, free.ID)
		var e *errcodes.Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "Cannot revoke membership. di's membership is already inactive.", e.Message)
	})
}

func TestService_Dashboard(t *testing.T) {
	db := setupTestDB(t)
	backendService := backend.NewService(db)
	svc := NewService(db, backendService)
	ctx := context.Background()

	member := createTestUser(t, db, "eve", models.RoleMember, models.MemberStatusActive)
	createTestUser(t, db, "root", models.RoleAdmin, models.MemberStatusActive)
	issueTestBook(t, backendService, 3, member.ID)

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{Users: 2, Members: 1, Books: 1, IssuedBooks: 1}, d)
}

func TestRoster(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, backend.NewService(db))
	ctx := context.Background()

	t.Run("reports an empty list", func(t *testing.T) {
		r := NewRoster(svc)
		defer r.Close()

		require.True(t, <-r.Refresh(ctx, ListMembersOptions{}))
		snap := r.Snapshot()
		assert.Empty(t, snap.Data)
		assert.NotNil(t, snap.Data)
		assert.Equal(t, NoMembersMessage, snap.Message)
	})

	t.Run("loads members", func(t *testing.T) {
		createTestUser(t, db, "fay", models.RoleMember, models.MemberStatusActive)
		r := NewRoster(svc)
		defer r.Close()

		require.True(t, <-r.Refresh(ctx, ListMembersOptions{}))
		snap := r.Snapshot()
		require.Len(t, snap.Data, 1)
		assert.Empty(t, snap.Message)
		assert.NoError(t, snap.Err)
	})
}
