package backend

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/uptrace/bun"
)

type ListIssuedBooksOptions struct {
	UserID  *int
	UserIDs []int
	Status  *string
}

// Service is the remote side of the catalog: the shared books collection,
// issued books, reservations and announcements.
type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// SyncBooks upserts the given books into the books collection in one
// transaction and returns how many were written.
func (svc *Service) SyncBooks(ctx context.Context, books []*models.Book) (int, error) {
	if len(books) == 0 {
		return 0, nil
	}

	now := time.Now()
	rows := make([]*models.Book, 0, len(books))
	for _, b := range books {
		c := b.Copy()
		c.SyncAvailability()
		c.CreatedAt = now
		c.UpdatedAt = now
		rows = append(rows, c)
	}

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&rows).
			On("CONFLICT (book_id) DO UPDATE").
			Set("title = EXCLUDED.title").
			Set("author = EXCLUDED.author").
			Set("isbn = EXCLUDED.isbn").
			Set("category = EXCLUDED.category").
			Set("language = EXCLUDED.language").
			Set("publisher = EXCLUDED.publisher").
			Set("published_year = EXCLUDED.published_year").
			Set("shelf_location = EXCLUDED.shelf_location").
			Set("status = EXCLUDED.status").
			Set("copies = EXCLUDED.copies").
			Set("is_available = EXCLUDED.is_available").
			Set("release_date = EXCLUDED.release_date").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (svc *Service) RetrieveBook(ctx context.Context, bookID int) (*models.Book, error) {
	book := &models.Book{}
	err := svc.db.NewSelect().
		Model(book).
		Where("b.book_id = ?", bookID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

func (svc *Service) CountBooks(ctx context.Context) (int, error) {
	count, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Count(ctx)
	return count, errors.WithStack(err)
}

// UpdateCopies sets the copy count of a book in the collection and derives
// its availability. It reports false when the book isn't in the collection.
func (svc *Service) UpdateCopies(ctx context.Context, bookID, copies int) (bool, error) {
	if copies < 0 {
		copies = 0
	}
	res, err := svc.db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("copies = ?", copies).
		Set("is_available = ?", copies > 0).
		Set("updated_at = ?", time.Now()).
		Where("book_id = ?", bookID).
		Exec(ctx)
	if err != nil {
		return false, errors.WithStack(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.WithStack(err)
	}
	return n > 0, nil
}

// IssueBook records the book as issued to the user. The caller has already
// taken the copy in the local catalog; the remote copy count and availability
// follow through the mirror, so they aren't touched here.
func (svc *Service) IssueBook(ctx context.Context, bookID, userID int) (*models.IssuedBook, error) {
	var issued *models.IssuedBook

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book := &models.Book{}
		err := tx.NewSelect().
			Model(book).
			Where("b.book_id = ?", bookID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		exists, err := tx.NewSelect().
			Model((*models.User)(nil)).
			Where("u.id = ?", userID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("User")
		}

		now := time.Now()
		issued = &models.IssuedBook{
			BookID:   book.BookID,
			UserID:   userID,
			Title:    book.Title,
			Author:   book.Author,
			IssuedAt: now,
			Status:   models.IssueStatusIssued,
		}
		_, err = tx.NewInsert().
			Model(issued).
			Returning("*").
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

func (svc *Service) ListIssuedBooks(ctx context.Context, opts ListIssuedBooksOptions) ([]*models.IssuedBook, error) {
	issued := []*models.IssuedBook{}

	q := svc.db.NewSelect().
		Model(&issued).
		Order("ib.issued_at DESC", "ib.id DESC")

	if opts.UserID != nil {
		q = q.Where("ib.user_id = ?", *opts.UserID)
	}
	if len(opts.UserIDs) > 0 {
		q = q.Where("ib.user_id IN (?)", bun.In(opts.UserIDs))
	}
	if opts.Status != nil {
		q = q.Where("ib.status = ?", *opts.Status)
	}

	err := q.Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return issued, nil
}
