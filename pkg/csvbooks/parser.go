package csvbooks

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

// Dataset column names.
const (
	ColumnBookID        = "book_id"
	ColumnTitle         = "title"
	ColumnAuthor        = "author"
	ColumnISBN          = "isbn"
	ColumnCategory      = "category"
	ColumnLanguage      = "language"
	ColumnPublisher     = "publisher"
	ColumnPublishedYear = "published_year"
	ColumnShelfLocation = "shelf_location"
	ColumnIsAvailable   = "is_available"
	ColumnStatus        = "status"
	ColumnCopies        = "copies"
)

// Columns is the dataset schema in its canonical order.
var Columns = []string{
	ColumnBookID,
	ColumnTitle,
	ColumnAuthor,
	ColumnISBN,
	ColumnCategory,
	ColumnLanguage,
	ColumnPublisher,
	ColumnPublishedYear,
	ColumnShelfLocation,
	ColumnIsAvailable,
	ColumnStatus,
	ColumnCopies,
}

var (
	ErrEmptyDocument  = errors.New("dataset is empty")
	ErrNoBooks        = errors.New("no valid books parsed")
	ErrMissingColumn  = errors.New("dataset header is missing a required column")
	ErrUnknownDialect = errors.New("unknown dataset dialect")
	ErrNotText        = errors.New("dataset is not a text file")
)

// RowError describes a dataset row that was dropped.
type RowError struct {
	Line   int
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

type ParseOptions struct {
	Dialect Dialect
	// OnSkip, when set, is called once for every dropped row.
	OnSkip func(RowError)
}

// Parse converts dataset text into books. Columns are located by header name.
// Malformed rows are dropped; only a document that yields no books at all is
// an error.
func Parse(text string, opts ParseOptions) ([]*models.Book, error) {
	dialect := opts.Dialect
	if dialect == "" {
		dialect = DialectQuoted
	}
	skip := func(line int, reason string) {
		if opts.OnSkip != nil {
			opts.OnSkip(RowError{Line: line, Reason: reason})
		}
	}

	lines := strings.Split(text, "\n")

	headerLine := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerLine = i
			break
		}
	}
	if headerLine < 0 {
		return nil, ErrEmptyDocument
	}

	header := dialect.split(strings.TrimRight(lines[headerLine], "\r"))
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range Columns {
		if _, ok := index[col]; !ok {
			return nil, errors.Wrap(ErrMissingColumn, col)
		}
	}

	books := make([]*models.Book, 0, len(lines)-headerLine-1)
	seen := make(map[int]struct{})

	for i := headerLine + 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lineNo := i + 1

		fields := dialect.split(line)
		if len(fields) != len(header) {
			skip(lineNo, fmt.Sprintf("expected %d fields, got %d", len(header), len(fields)))
			continue
		}
		get := func(col string) string {
			return strings.TrimSpace(fields[index[col]])
		}

		bookID, err := strconv.Atoi(get(ColumnBookID))
		if err != nil {
			skip(lineNo, "book_id is not an integer")
			continue
		}
		year, err := strconv.Atoi(get(ColumnPublishedYear))
		if err != nil {
			skip(lineNo, "published_year is not an integer")
			continue
		}
		copies, err := strconv.Atoi(get(ColumnCopies))
		if err != nil {
			skip(lineNo, "copies is not an integer")
			continue
		}
		title, author := get(ColumnTitle), get(ColumnAuthor)
		if title == "" || author == "" {
			skip(lineNo, "title and author are required")
			continue
		}
		if _, dup := seen[bookID]; dup {
			skip(lineNo, fmt.Sprintf("duplicate book_id %d", bookID))
			continue
		}
		seen[bookID] = struct{}{}

		book := &models.Book{
			BookID:            bookID,
			InstanceID:        uuid.NewString(),
			Title:             title,
			Author:            author,
			ISBN:              get(ColumnISBN),
			Category:          get(ColumnCategory),
			Language:          get(ColumnLanguage),
			Publisher:         get(ColumnPublisher),
			PublishedYear:     year,
			ShelfLocation:     get(ColumnShelfLocation),
			Status:            get(ColumnStatus),
			Copies:            copies,
			IsAvailable:       strings.EqualFold(get(ColumnIsAvailable), "yes"),
			ReservationStatus: models.ReservationNotReserved,
		}
		book.SyncAvailability()
		books = append(books, book)
	}

	if len(books) == 0 {
		return nil, ErrNoBooks
	}
	return books, nil
}

// Format renders books in the dataset format with the canonical header.
// Values containing a comma are wrapped in quotes, so the output parses back
// to the same records with DialectQuoted.
func Format(books []*models.Book) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(Columns, ","))
	sb.WriteString("\n")

	for _, b := range books {
		available := "No"
		if b.IsAvailable {
			available = "Yes"
		}
		row := []string{
			strconv.Itoa(b.BookID),
			b.Title,
			b.Author,
			b.ISBN,
			b.Category,
			b.Language,
			b.Publisher,
			strconv.Itoa(b.PublishedYear),
			b.ShelfLocation,
			available,
			b.Status,
			strconv.Itoa(b.Copies),
		}
		for i, v := range row {
			if strings.Contains(v, ",") {
				row[i] = `"` + v + `"`
			}
		}
		sb.WriteString(strings.Join(row, ","))
		sb.WriteString("\n")
	}

	return sb.String()
}
