package books

import (
	"mime/multipart"

	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

type ListBooksQuery struct {
	Search        *string `query:"search" json:"search,omitempty" mod:"trim" validate:"omitempty,max=200"`
	Genre         *string `query:"genre" json:"genre,omitempty" mod:"trim"`
	Availability  string  `query:"availability" json:"availability,omitempty" default:"all" validate:"oneof=all available on_loan"`
	PublishedFrom *string `query:"published_from" json:"published_from,omitempty" validate:"omitempty,date"`
	PublishedTo   *string `query:"published_to" json:"published_to,omitempty" validate:"omitempty,date"`
	Sort          string  `query:"sort" json:"sort,omitempty" default:"title_asc" validate:"oneof=title_asc title_desc author_asc author_desc year_asc year_desc"`
}

type ListBooksResponse struct {
	Books []*models.Book `json:"books"`
	Total int            `json:"total"`
}

type UpdateWishlistPayload struct {
	Wishlisted *bool `json:"wishlisted" validate:"required"`
}

type UpdateCopiesPayload struct {
	Copies *int `json:"copies" validate:"required,gte=0"`
}

type IssueBookPayload struct {
	UserID int `json:"user_id" validate:"required,gt=0"`
}

type ImportBooksPayload struct {
	Dialect   string                           `form:"dialect" json:"dialect,omitempty" validate:"omitempty,oneof=simple quoted"`
	FormFiles map[string]*multipart.FileHeader `form:"-" json:"-"`
}

type ImportBooksResponse struct {
	Imported int               `json:"imported"`
	Skipped  []ImportRowResult `json:"skipped"`
	Synced   int               `json:"synced"`
}

type ImportRowResult struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// BookResponse is a book after a change. Saved is false when the change was
// applied but the catalog snapshot couldn't be written.
type BookResponse struct {
	*models.Book
	Saved bool `json:"saved"`
}

type ListReservationsResponse struct {
	Reservations []*models.Reservation `json:"reservations"`
	Total        int                   `json:"total"`
}
