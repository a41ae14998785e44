package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"golang.org/x/text/cases"
)

type Sort string

const (
	SortTitleAsc   Sort = "title_asc"
	SortTitleDesc  Sort = "title_desc"
	SortAuthorAsc  Sort = "author_asc"
	SortAuthorDesc Sort = "author_desc"
	SortYearAsc    Sort = "year_asc"
	SortYearDesc   Sort = "year_desc"
)

type Availability string

const (
	AvailabilityAll       Availability = "all"
	AvailabilityAvailable Availability = "available"
	AvailabilityOnLoan    Availability = "on_loan"
)

var (
	ErrUnknownSort         = errors.New("unknown sort")
	ErrUnknownAvailability = errors.New("unknown availability filter")
)

// ParseSort maps a sort name to a Sort. An empty string is the default sort.
func ParseSort(s string) (Sort, error) {
	switch v := Sort(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return SortTitleAsc, nil
	case SortTitleAsc, SortTitleDesc, SortAuthorAsc, SortAuthorDesc, SortYearAsc, SortYearDesc:
		return v, nil
	}
	return "", errors.Wrap(ErrUnknownSort, s)
}

func ParseAvailability(s string) (Availability, error) {
	switch v := Availability(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return AvailabilityAll, nil
	case AvailabilityAll, AvailabilityAvailable, AvailabilityOnLoan:
		return v, nil
	}
	return "", errors.Wrap(ErrUnknownAvailability, s)
}

// QueryOptions are ANDed together. Zero values don't filter.
type QueryOptions struct {
	// Search matches title or author as a case-insensitive substring.
	Search       string
	Genre        *string
	Availability Availability
	// PublishedFrom and PublishedTo bound Book.PublicationDate inclusively.
	PublishedFrom *time.Time
	PublishedTo   *time.Time
	Sort          Sort
}

// Query returns the books matching opts in sort order. Ties keep their input
// order. The input slice and its books aren't modified.
func Query(books []*models.Book, opts QueryOptions) []*models.Book {
	fold := cases.Fold()
	search := fold.String(strings.TrimSpace(opts.Search))
	var genre string
	if opts.Genre != nil {
		genre = fold.String(strings.TrimSpace(*opts.Genre))
	}

	type entry struct {
		book   *models.Book
		title  string
		author string
	}
	entries := make([]entry, 0, len(books))

	for _, b := range books {
		title, author := fold.String(b.Title), fold.String(b.Author)
		if search != "" && !strings.Contains(title, search) && !strings.Contains(author, search) {
			continue
		}
		if opts.Genre != nil && fold.String(b.Category) != genre {
			continue
		}
		switch opts.Availability {
		case AvailabilityAvailable:
			if !b.IsAvailable {
				continue
			}
		case AvailabilityOnLoan:
			if b.IsAvailable {
				continue
			}
		}
		if opts.PublishedFrom != nil || opts.PublishedTo != nil {
			date := b.PublicationDate()
			if opts.PublishedFrom != nil && date.Before(*opts.PublishedFrom) {
				continue
			}
			if opts.PublishedTo != nil && date.After(*opts.PublishedTo) {
				continue
			}
		}
		entries = append(entries, entry{b, title, author})
	}

	var less func(a, b entry) bool
	switch opts.Sort {
	case SortTitleDesc:
		less = func(a, b entry) bool { return a.title > b.title }
	case SortAuthorAsc:
		less = func(a, b entry) bool { return a.author < b.author }
	case SortAuthorDesc:
		less = func(a, b entry) bool { return a.author > b.author }
	case SortYearAsc:
		less = func(a, b entry) bool { return a.book.PublishedYear < b.book.PublishedYear }
	case SortYearDesc:
		less = func(a, b entry) bool { return a.book.PublishedYear > b.book.PublishedYear }
	default:
		less = func(a, b entry) bool { return a.title < b.title }
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})

	out := make([]*models.Book, len(entries))
	for i, e := range entries {
		out[i] = e.book
	}
	return out
}
