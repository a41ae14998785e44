package backend

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

type ListReservationsOptions struct {
	BookID *int
	UserID *int
}

// CreateReservation records a pending reservation for the user.
func (svc *Service) CreateReservation(ctx context.Context, bookID, userID int) (*models.Reservation, error) {
	now := time.Now()
	reservation := &models.Reservation{
		BookID:     bookID,
		UserID:     userID,
		Status:     models.ReservationPending,
		ReservedAt: now,
		UpdatedAt:  now,
	}
	_, err := svc.db.NewInsert().
		Model(reservation).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return reservation, nil
}

// OpenReservation returns the newest reservation for the book that is still
// pending or approved.
func (svc *Service) OpenReservation(ctx context.Context, bookID int) (*models.Reservation, error) {
	reservation := &models.Reservation{}
	err := svc.db.NewSelect().
		Model(reservation).
		Where("r.book_id = ?", bookID).
		Where("r.status != ?", models.ReservationNotReserved).
		Order("r.reserved_at DESC", "r.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Reservation")
		}
		return nil, errors.WithStack(err)
	}
	return reservation, nil
}

// UpdateReservation moves one reservation to status.
func (svc *Service) UpdateReservation(ctx context.Context, reservation *models.Reservation, status models.ReservationStatus) error {
	reservation.Status = status
	reservation.UpdatedAt = time.Now()
	_, err := svc.db.NewUpdate().
		Model(reservation).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

func (svc *Service) ListReservations(ctx context.Context, opts ListReservationsOptions) ([]*models.Reservation, error) {
	reservations := []*models.Reservation{}
	q := svc.db.NewSelect().
		Model(&reservations).
		Order("r.reserved_at DESC", "r.id DESC")
	if opts.BookID != nil {
		q = q.Where("r.book_id = ?", *opts.BookID)
	}
	if opts.UserID != nil {
		q = q.Where("r.user_id = ?", *opts.UserID)
	}
	err := q.Scan(ctx)
	return reservations, errors.WithStack(err)
}
