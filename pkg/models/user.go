package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Roles a signed-in user can have.
const (
	RoleMember    = "Member"
	RoleLibrarian = "Librarian"
	RoleAdmin     = "Admin"
)

// Membership statuses.
const (
	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	UID          string    `bun:"uid,nullzero" json:"uid"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `bun:",nullzero" json:"email"`
	Name         string    `bun:",nullzero" json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `bun:",nullzero" json:"role"`
	Status       string    `bun:",nullzero" json:"status"`
	JoinedAt     time.Time `json:"joined_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsActive() bool {
	return u.Status == MemberStatusActive
}
