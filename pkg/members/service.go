package members

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/uptrace/bun"
)

const memberCodeLength = 8

// Member is a user with the Member role together with the books they
// currently have out.
type Member struct {
	ID            int                  `json:"id"`
	MemberCode    string               `json:"member_code"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Status        string               `json:"status"`
	JoinedAt      time.Time            `json:"joined_at"`
	ExpiresAt     time.Time            `json:"expires_at"`
	BorrowedBooks []*models.IssuedBook `json:"borrowed_books"`
}

type Dashboard struct {
	Users       int `json:"users"`
	Members     int `json:"members"`
	Books       int `json:"books"`
	IssuedBooks int `json:"issued_books"`
}

type ListMembersOptions struct {
	// Search matches the name or member code, case-insensitively.
	Search *string
}

type Service struct {
	db      *bun.DB
	backend *backend.Service
}

func NewService(db *bun.DB, backendService *backend.Service) *Service {
	return &Service{db, backendService}
}

// MemberCode is the short code shown on membership cards.
func MemberCode(uid string) string {
	if len(uid) > memberCodeLength {
		uid = uid[:memberCodeLength]
	}
	return "M" + uid
}

func (svc *Service) ListMembers(ctx context.Context, opts ListMembersOptions) ([]*Member, error) {
	var users []*models.User
	err := svc.db.NewSelect().
		Model(&users).
		Where("u.role = ?", models.RoleMember).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	members, err := svc.buildMembers(ctx, users)
	if err != nil {
		return nil, err
	}

	if opts.Search != nil && strings.TrimSpace(*opts.Search) != "" {
		search := strings.ToLower(strings.TrimSpace(*opts.Search))
		filtered := make([]*Member, 0, len(members))
		for _, m := range members {
			if strings.Contains(strings.ToLower(m.Name), search) || strings.Contains(strings.ToLower(m.MemberCode), search) {
				filtered = append(filtered, m)
			}
		}
		members = filtered
	}

	sort.SliceStable(members, func(i, j int) bool {
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
	return members, nil
}

func (svc *Service) RetrieveMember(ctx context.Context, userID int) (*Member, error) {
	user := &models.User{}
	err := svc.db.NewSelect().
		Model(user).
		Where("u.id = ?", userID).
		Where("u.role = ?", models.RoleMember).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Member")
		}
		return nil, errors.WithStack(err)
	}

	members, err := svc.buildMembers(ctx, []*models.User{user})
	if err != nil {
		return nil, err
	}
	return members[0], nil
}

func (svc *Service) buildMembers(ctx context.Context, users []*models.User) ([]*Member, error) {
	members := make([]*Member, 0, len(users))
	if len(users) == 0 {
		return members, nil
	}

	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	status := models.IssueStatusIssued
	issued, err := svc.backend.ListIssuedBooks(ctx, backend.ListIssuedBooksOptions{
		UserIDs: ids,
		Status:  &status,
	})
	if err != nil {
		return nil, err
	}
	borrowed := map[int][]*models.IssuedBook{}
	for _, ib := range issued {
		borrowed[ib.UserID] = append(borrowed[ib.UserID], ib)
	}

	for _, u := range users {
		books := borrowed[u.ID]
		if books == nil {
			books = []*models.IssuedBook{}
		}
		status := u.Status
		if status == "" {
			status = models.MemberStatusActive
		}
		members = append(members, &Member{
			ID:            u.ID,
			MemberCode:    MemberCode(u.UID),
			Name:          u.Name,
			Email:         u.Email,
			Status:        status,
			JoinedAt:      u.JoinedAt,
			ExpiresAt:     u.ExpiresAt,
			BorrowedBooks: books,
		})
	}
	return members, nil
}

// ExtendMembership pushes an active member's expiry out by a year.
func (svc *Service) ExtendMembership(ctx context.Context, userID int) (*Member, error) {
	member, err := svc.RetrieveMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberStatusActive {
		return nil, errcodes.Conflict(fmt.Sprintf("Cannot extend membership. %s's membership is %s.", member.Name, member.Status))
	}

	member.ExpiresAt = member.ExpiresAt.AddDate(1, 0, 0)
	err = svc.updateUser(ctx, userID, member.Status, member.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RevokeMembership ends an active membership now. Members with books still
// out can't be revoked.
func (svc *Service) RevokeMembership(ctx context.Context, userID int) (*Member, error) {
	member, err := svc.RetrieveMember(ctx, userID)
	if err != nil {
		return nil, err
	}
	if member.Status != models.MemberStatusActive {
		return nil, errcodes.Conflict(fmt.Sprintf("Cannot revoke membership. %s's membership is already %s.", member.Name, member.Status))
	}
	if n := len(member.BorrowedBooks); n > 0 {
		return nil, errcodes.Conflict(fmt.Sprintf("Cannot revoke membership. %s has %d borrowed book(s).", member.Name, n))
	}

	member.Status = models.MemberStatusInactive
	member.ExpiresAt = time.Now()
	err = svc.updateUser(ctx, userID, member.Status, member.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (svc *Service) updateUser(ctx context.Context, userID int, status string, expiresAt time.Time) error {
	user := &models.User{
		ID:        userID,
		Status:    status,
		ExpiresAt: expiresAt,
		UpdatedAt: time.Now(),
	}
	_, err := svc.db.NewUpdate().
		Model(user).
		Column("status", "expires_at", "updated_at").
		WherePK().
		Exec(ctx)
	return backend.UserError(errors.WithStack(err))
}

func (svc *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := &Dashboard{}
	var err error

	d.Users, err = svc.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	d.Members, err = svc.db.NewSelect().Model((*models.User)(nil)).Where("u.role = ?", models.RoleMember).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	d.Books, err = svc.backend.CountBooks(ctx)
	if err != nil {
		return nil, err
	}
	d.IssuedBooks, err = svc.db.NewSelect().Model((*models.IssuedBook)(nil)).Where("ib.status = ?", models.IssueStatusIssued).Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return d, nil
}
