package reservations

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

type Event string

const (
	EventRequest Event = "request"
	EventApprove Event = "approve"
	EventCancel  Event = "cancel"
)

// Catalog is the part of catalog.Store the workflow drives. Update must run
// fn atomically with every other change to the book.
type Catalog interface {
	Update(ctx context.Context, bookID int, fn func(b *models.Book) error) (*models.Book, error)
}

// Next is the reservation transition table. It reports false when event isn't
// allowed from state.
func Next(state models.ReservationStatus, event Event, available bool) (models.ReservationStatus, bool) {
	switch event {
	case EventRequest:
		if state == models.ReservationNotReserved && available {
			return models.ReservationPending, true
		}
	case EventApprove:
		if state == models.ReservationPending {
			return models.ReservationApproved, true
		}
	case EventCancel:
		return models.ReservationNotReserved, true
	}
	return state, false
}

// InvalidTransition builds the error returned when an event isn't allowed.
func InvalidTransition(event Event, state models.ReservationStatus, bookID int) error {
	return errcodes.InvalidTransition(fmt.Sprintf("Cannot %s the reservation for book %d while it is %s.", event, bookID, state))
}

// IsInvalidTransition reports whether err was caused by a rejected event.
func IsInvalidTransition(err error) bool {
	var e *errcodes.Error
	return errors.As(err, &e) && e.Code == "invalid_transition"
}

// Workflow applies reservation events to catalog books. Each transition is
// one catalog update, so the availability check and the copy it takes can't
// be split by another change.
type Workflow struct {
	catalog Catalog
}

func NewWorkflow(catalog Catalog) *Workflow {
	return &Workflow{catalog: catalog}
}

// Transition applies event to the book's reservation. A request also takes
// one copy off the shelf. The returned book reflects the new state. When the
// snapshot save fails the state has still changed and the save error is
// returned with the book.
func (w *Workflow) Transition(ctx context.Context, bookID int, event Event) (*models.Book, error) {
	var from models.ReservationStatus
	book, err := w.catalog.Update(ctx, bookID, func(b *models.Book) error {
		next, ok := Next(b.ReservationStatus, event, b.IsAvailable)
		if !ok {
			return InvalidTransition(event, b.ReservationStatus, bookID)
		}
		from = b.ReservationStatus
		if event == EventRequest {
			b.Copies--
		}
		b.ReservationStatus = next
		return nil
	})
	if book == nil || (err != nil && IsInvalidTransition(err)) {
		return book, err
	}

	logger.FromContext(ctx).Info("reservation transition", logger.Data{
		"book_id": bookID,
		"event":   event,
		"from":    from,
		"to":      book.ReservationStatus,
	})
	return book, errors.WithStack(err)
}

// Withdraw undoes a request that couldn't be recorded anywhere else: the
// reservation goes back to not_reserved and the copy returns to the shelf.
// Only a pending reservation can be withdrawn.
func (w *Workflow) Withdraw(ctx context.Context, bookID int) (*models.Book, error) {
	book, err := w.catalog.Update(ctx, bookID, func(b *models.Book) error {
		if b.ReservationStatus != models.ReservationPending {
			return InvalidTransition(EventCancel, b.ReservationStatus, bookID)
		}
		b.ReservationStatus = models.ReservationNotReserved
		b.Copies++
		return nil
	})
	if book != nil && !IsInvalidTransition(err) {
		logger.FromContext(ctx).Warn("reservation request withdrawn", logger.Data{"book_id": bookID})
	}
	return book, err
}

func (w *Workflow) Request(ctx context.Context, bookID int) (*models.Book, error) {
	return w.Transition(ctx, bookID, EventRequest)
}

func (w *Workflow) Approve(ctx context.Context, bookID int) (*models.Book, error) {
	return w.Transition(ctx, bookID, EventApprove)
}

// Cancel resets the reservation. Copies taken by the request stay off the
// shelf until they are restored through the catalog.
func (w *Workflow) Cancel(ctx context.Context, bookID int) (*models.Book, error) {
	return w.Transition(ctx, bookID, EventCancel)
}
