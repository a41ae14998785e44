package catalog

import (
	"testing"
	"time"

	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(books []*models.Book) []int {
	out := make([]int, len(books))
	for i, b := range books {
		out[i] = b.BookID
	}
	return out
}

func queryBooks() []*models.Book {
	released := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	return []*models.Book{
		{BookID: 1, Title: "Dune", Author: "Frank Herbert", Category: "SciFi", PublishedYear: 1965, Copies: 3, IsAvailable: true},
		{BookID: 2, Title: "emma", Author: "Jane Austen", Category: "Romance", PublishedYear: 1815, Copies: 0},
		{BookID: 3, Title: "Neuromancer", Author: "William Gibson", Category: "SciFi", PublishedYear: 1984, Copies: 0},
		{BookID: 4, Title: "Good Omens", Author: "Terry Pratchett", Category: "Fantasy", PublishedYear: 1990, ReleaseDate: &released, Copies: 2, IsAvailable: true},
		{BookID: 5, Title: "Dune Messiah", Author: "Frank Herbert", Category: "scifi", PublishedYear: 1969, Copies: 1, IsAvailable: true},
	}
}

func TestQuery_Filters(t *testing.T) {
	t.Parallel()
	books := queryBooks()
	scifi := "SciFi"
	from := time.Date(1965, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(1984, time.January, 1, 0, 0, 0, 0, time.UTC)
	mid := time.Date(1990, time.June, 1, 0, 0, 0, 0, time.UTC)
	missing := "Poetry"

	tests := []struct {
		name string
		opts QueryOptions
		want []int
	}{
		{"no filters returns everything by title", QueryOptions{}, []int{1, 5, 2, 4, 3}},
		{"search matches title case-insensitively", QueryOptions{Search: "DUNE"}, []int{1, 5}},
		{"search matches author", QueryOptions{Search: "austen"}, []int{2}},
		{"blank search matches everything", QueryOptions{Search: "   "}, []int{1, 5, 2, 4, 3}},
		{"genre compares case-insensitively", QueryOptions{Genre: &scifi}, []int{1, 5, 3}},
		{"available only", QueryOptions{Availability: AvailabilityAvailable}, []int{1, 5, 4}},
		{"on loan only", QueryOptions{Availability: AvailabilityOnLoan}, []int{2, 3}},
		{"date range is inclusive on both ends", QueryOptions{PublishedFrom: &from, PublishedTo: &to}, []int{1, 5, 3}},
		{"release date wins over published year", QueryOptions{PublishedFrom: &mid}, []int{4}},
		{"filters combine", QueryOptions{Genre: &scifi, Availability: AvailabilityAvailable, Search: "messiah"}, []int{5}},
		{"no match yields an empty result", QueryOptions{Genre: &missing}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Query(books, tt.opts)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestQuery_GenreAndAvailabilityScenario(t *testing.T) {
	t.Parallel()
	books := []*models.Book{
		{BookID: 1, Title: "Dune", Author: "Frank Herbert", Category: "SciFi", Copies: 1, IsAvailable: true},
		{BookID: 2, Title: "Emma", Author: "Jane Austen", Category: "Romance", Copies: 1, IsAvailable: true},
		{BookID: 3, Title: "Neuromancer", Author: "William Gibson", Category: "Fiction", Copies: 0},
	}
	genre := "SciFi"

	got := Query(books, QueryOptions{Genre: &genre, Availability: AvailabilityAvailable})
	assert.Equal(t, []int{1}, ids(got))
}

func TestQuery_Sort(t *testing.T) {
	t.Parallel()
	books := queryBooks()

	tests := []struct {
		sort Sort
		want []int
	}{
		{SortTitleAsc, []int{1, 5, 2, 4, 3}},
		{SortTitleDesc, []int{3, 4, 2, 5, 1}},
		// Ties keep input order.
		{SortAuthorAsc, []int{1, 5, 2, 4, 3}},
		{SortAuthorDesc, []int{3, 4, 2, 1, 5}},
		{SortYearAsc, []int{2, 1, 5, 3, 4}},
		{SortYearDesc, []int{4, 3, 5, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			t.Parallel()
			got := Query(books, QueryOptions{Sort: tt.sort})
			assert.Equal(t, tt.want, ids(got))
			assert.ElementsMatch(t, ids(books), ids(got))
		})
	}
}

func TestQuery_DoesNotModifyInput(t *testing.T) {
	t.Parallel()
	books := queryBooks()
	before := ids(books)

	_ = Query(books, QueryOptions{Sort: SortYearDesc})
	assert.Equal(t, before, ids(books))
}

func TestParseSort(t *testing.T) {
	t.Parallel()

	s, err := ParseSort("")
	require.NoError(t, err)
	assert.Equal(t, SortTitleAsc, s)

	s, err = ParseSort("YEAR_DESC")
	require.NoError(t, err)
	assert.Equal(t, SortYearDesc, s)

	_, err = ParseSort("rating")
	assert.ErrorIs(t, err, ErrUnknownSort)
}

func TestParseAvailability(t *testing.T) {
	t.Parallel()

	a, err := ParseAvailability("")
	require.NoError(t, err)
	assert.Equal(t, AvailabilityAll, a)

	a, err = ParseAvailability("on_loan")
	require.NoError(t, err)
	assert.Equal(t, AvailabilityOnLoan, a)

	_, err = ParseAvailability("sometimes")
	assert.ErrorIs(t, err, ErrUnknownAvailability)
}
