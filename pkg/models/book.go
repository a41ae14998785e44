package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	ReservationNotReserved ReservationStatus = "not_reserved"
	ReservationPending     ReservationStatus = "pending"
	ReservationApproved    ReservationStatus = "approved"
)

// Valid reports whether the status is one of the known reservation states.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationNotReserved, ReservationPending, ReservationApproved:
		return true
	}
	return false
}

// Book is one catalog entry. The same struct is used for the local snapshot
// (JSON) and for the remote books collection (bun), which is why the
// per-viewer fields are excluded from the table.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	BookID        int    `bun:",pk" json:"book_id"`
	InstanceID    string `bun:"-" json:"instance_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `bun:"isbn" json:"isbn"`
	Category      string `json:"category"`
	Language      string `json:"language"`
	Publisher     string `json:"publisher"`
	PublishedYear int    `json:"published_year"`
	ShelfLocation string `json:"shelf_location"`
	Status        string `json:"status"`

	Copies            int               `json:"copies"`
	IsAvailable       bool              `json:"is_available"`
	ReservationStatus ReservationStatus `bun:"-" json:"reservation_status"`
	IsWishlisted      bool              `bun:"-" json:"is_wishlisted"`

	DueDate     *time.Time `bun:"-" json:"due_date,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// SyncAvailability clamps the copy count at zero and re-derives IsAvailable
// from it. It also normalizes an unknown reservation status to not reserved.
func (b *Book) SyncAvailability() {
	if b.Copies < 0 {
		b.Copies = 0
	}
	b.IsAvailable = b.Copies > 0
	if !b.ReservationStatus.Valid() {
		b.ReservationStatus = ReservationNotReserved
	}
}

// PublicationDate is the date used for date-range filtering: the release date
// when one is known, otherwise the first day of the published year.
func (b *Book) PublicationDate() time.Time {
	if b.ReleaseDate != nil {
		return *b.ReleaseDate
	}
	return time.Date(b.PublishedYear, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// Copy returns a deep copy of the book.
func (b *Book) Copy() *Book {
	c := *b
	if b.DueDate != nil {
		d := *b.DueDate
		c.DueDate = &d
	}
	if b.ReleaseDate != nil {
		r := *b.ReleaseDate
		c.ReleaseDate = &r
	}
	return &c
}
