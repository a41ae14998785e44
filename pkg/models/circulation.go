package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Issued book statuses.
const (
	IssueStatusIssued   = "issued"
	IssueStatusReturned = "returned"
)

type IssuedBook struct {
	bun.BaseModel `bun:"table:issued_books,alias:ib"`

	ID       int       `bun:",pk,nullzero" json:"id"`
	BookID   int       `bun:",nullzero" json:"book_id"`
	UserID   int       `bun:",nullzero" json:"user_id"`
	User     *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Title    string    `json:"title"`
	Author   string    `json:"author"`
	IssuedAt time.Time `json:"issued_at"`
	Status   string    `bun:",nullzero" json:"status"`
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations,alias:r"`

	ID         int               `bun:",pk,nullzero" json:"id"`
	BookID     int               `bun:",nullzero" json:"book_id"`
	UserID     int               `bun:",nullzero" json:"user_id"`
	Status     ReservationStatus `bun:",nullzero" json:"status"`
	ReservedAt time.Time         `json:"reserved_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// WishlistItem marks a book on one member's wishlist.
type WishlistItem struct {
	bun.BaseModel `bun:"table:wishlists,alias:w"`

	UserID    int       `bun:",pk" json:"user_id"`
	BookID    int       `bun:",pk" json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Announcement struct {
	bun.BaseModel `bun:"table:announcements,alias:a"`

	ID        int       `bun:",pk,nullzero" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Title     string    `bun:",nullzero" json:"title"`
	Content   string    `json:"content"`
	Date      time.Time `json:"date"`
}

// Snapshot is a single named blob in the local key-value store.
type Snapshot struct {
	bun.BaseModel `bun:"table:snapshots,alias:s"`

	Name      string    `bun:",pk" json:"name"`
	Data      []byte    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}
