package backend

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

// SetWishlisted adds the book to the user's wishlist or takes it off.
func (svc *Service) SetWishlisted(ctx context.Context, userID, bookID int, wishlisted bool) error {
	if !wishlisted {
		_, err := svc.db.NewDelete().
			Model((*models.WishlistItem)(nil)).
			Where("user_id = ?", userID).
			Where("book_id = ?", bookID).
			Exec(ctx)
		return errors.WithStack(err)
	}

	item := &models.WishlistItem{UserID: userID, BookID: bookID, CreatedAt: time.Now()}
	_, err := svc.db.NewInsert().
		Model(item).
		On("CONFLICT (user_id, book_id) DO NOTHING").
		Exec(ctx)
	return errors.WithStack(err)
}

// Wishlist returns the IDs of the books on the user's wishlist.
func (svc *Service) Wishlist(ctx context.Context, userID int) (map[int]bool, error) {
	var ids []int
	err := svc.db.NewSelect().
		Model((*models.WishlistItem)(nil)).
		Column("book_id").
		Where("w.user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
