package books

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/auth"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/catalog"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/csvbooks"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/reservations"
)

type handler struct {
	catalog        *catalog.Store
	workflow       *reservations.Workflow
	backendService *backend.Service
	dialect        csvbooks.Dialect
}

func bookID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, errcodes.NotFound("Book")
	}
	return id, nil
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &t, nil
}

// wishlist returns the viewer's wishlist, or nil when nobody is signed in.
func (h *handler) wishlist(c echo.Context) (map[int]bool, error) {
	user, ok := auth.GetUserFromContext(c)
	if !ok {
		return nil, nil
	}
	wishlist, err := h.backendService.Wishlist(c.Request().Context(), user.ID)
	return wishlist, errors.WithStack(err)
}

// overlay sets IsWishlisted on each book from the viewer's own wishlist.
func (h *handler) overlay(c echo.Context, books ...*models.Book) error {
	wishlist, err := h.wishlist(c)
	if err != nil {
		return err
	}
	for _, b := range books {
		if b != nil {
			b.IsWishlisted = wishlist[b.BookID]
		}
	}
	return nil
}

// respond writes the book after a change. A failed snapshot save is logged
// and reported through Saved; the change itself stands.
func (h *handler) respond(c echo.Context, book *models.Book, err error) error {
	saved := true
	if err != nil {
		if !errors.Is(err, catalog.ErrSnapshotSave) || book == nil {
			return errors.WithStack(err)
		}
		logger.FromContext(c.Request().Context()).Err(err).Warn("change applied but not saved", logger.Data{"book_id": book.BookID})
		saved = false
	}
	if err := h.overlay(c, book); err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, BookResponse{Book: book, Saved: saved}))
}

func (h *handler) list(c echo.Context) error {
	params := ListBooksQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	sort, err := catalog.ParseSort(params.Sort)
	if err != nil {
		return errcodes.ValidationError(err.Error())
	}
	availability, err := catalog.ParseAvailability(params.Availability)
	if err != nil {
		return errcodes.ValidationError(err.Error())
	}
	from, err := parseDate(params.PublishedFrom)
	if err != nil {
		return errcodes.ValidationError(`"published_from" should be in the format of YYYY-MM-DD`)
	}
	to, err := parseDate(params.PublishedTo)
	if err != nil {
		return errcodes.ValidationError(`"published_to" should be in the format of YYYY-MM-DD`)
	}

	opts := catalog.QueryOptions{
		Genre:         params.Genre,
		Availability:  availability,
		PublishedFrom: from,
		PublishedTo:   to,
		Sort:          sort,
	}
	if params.Search != nil {
		opts.Search = *params.Search
	}

	books := h.catalog.Query(opts)
	if err := h.overlay(c, books...); err != nil {
		return err
	}
	return errors.WithStack(c.JSON(http.StatusOK, ListBooksResponse{
		Books: books,
		Total: len(books),
	}))
}

func (h *handler) genres(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, h.catalog.Genres()))
}

func (h *handler) retrieve(c echo.Context) error {
	id, err := bookID(c)
	if err != nil {
		return err
	}

	book, err := h.catalog.Book(id)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.overlay(c, book); err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) requestReservation(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}
	user, ok := auth.GetUserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}
	if !user.IsActive() {
		return errcodes.Forbidden("Reserving books with an inactive membership")
	}

	book, err := h.workflow.Request(ctx, id)
	if err != nil && !errors.Is(err, catalog.ErrSnapshotSave) {
		return errors.WithStack(err)
	}

	if _, berr := h.backendService.CreateReservation(ctx, id, user.ID); berr != nil {
		// Nobody holds the reservation, so give the copy back.
		if _, werr := h.workflow.Withdraw(ctx, id); werr != nil && !errors.Is(werr, catalog.ErrSnapshotSave) {
			logger.FromContext(ctx).Err(werr).Error("couldn't withdraw unrecorded reservation", logger.Data{"book_id": id})
		}
		return backend.UserError(berr)
	}

	return h.respond(c, book, err)
}

func (h *handler) approveReservation(c echo.Context) error {
	return h.transition(c, reservations.EventApprove)
}

func (h *handler) cancelReservation(c echo.Context) error {
	return h.transition(c, reservations.EventCancel)
}

// transition moves the book's reservation along and updates the open
// reservation row to match. Members may only cancel their own reservation.
func (h *handler) transition(c echo.Context, event reservations.Event) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}
	user, ok := auth.GetUserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	open, err := h.backendService.OpenReservation(ctx, id)
	if err != nil && !errors.Is(err, errcodes.NotFound("Reservation")) {
		return backend.UserError(err)
	}
	if !user.HasRole(models.RoleLibrarian, models.RoleAdmin) {
		if open == nil {
			return errcodes.NotFound("Reservation")
		}
		if open.UserID != user.ID {
			return errcodes.Forbidden("Cancelling another member's reservation")
		}
	}

	book, err := h.workflow.Transition(ctx, id, event)
	if err != nil && !errors.Is(err, catalog.ErrSnapshotSave) {
		return errors.WithStack(err)
	}

	if open != nil {
		if berr := h.backendService.UpdateReservation(ctx, open, book.ReservationStatus); berr != nil {
			return backend.UserError(berr)
		}
	}

	return h.respond(c, book, err)
}

// listReservations returns the signed-in member's reservations, newest first.
func (h *handler) listReservations(c echo.Context) error {
	user, ok := auth.GetUserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	list, err := h.backendService.ListReservations(c.Request().Context(), backend.ListReservationsOptions{UserID: &user.ID})
	if err != nil {
		return backend.UserError(err)
	}
	return errors.WithStack(c.JSON(http.StatusOK, ListReservationsResponse{
		Reservations: list,
		Total:        len(list),
	}))
}

// updateWishlist adds the book to the viewer's wishlist or takes it off.
// Wishlists are per member; the catalog itself is shared.
func (h *handler) updateWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}
	user, ok := auth.GetUserFromContext(c)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := UpdateWishlistPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.catalog.Book(id)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := h.backendService.SetWishlisted(ctx, user.ID, id, *params.Wishlisted); err != nil {
		return backend.UserError(err)
	}
	return h.respond(c, book, nil)
}

func (h *handler) updateCopies(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := bookID(c)
	if err != nil {
		return err
	}

	params := UpdateCopiesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	found, err := h.catalog.UpdateCopies(ctx, id, *params.Copies)
	if !found {
		return errcodes.NotFound("Book")
	}
	book, berr := h.catalog.Book(id)
	if berr != nil {
		return errors.WithStack(berr)
	}
	return h.respond(c, book, err)
}

// issue hands a copy to a member. The copy is taken from the local catalog
// first and given back if the shared collection can't record the loan.
func (h *handler) issue(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)
	id, err := bookID(c)
	if err != nil {
		return err
	}

	params := IssueBookPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	_, err = h.catalog.Update(ctx, id, func(b *models.Book) error {
		if !b.IsAvailable {
			return errcodes.Conflict("Book '" + b.Title + "' is not available.")
		}
		b.Copies--
		return nil
	})
	if err != nil {
		if !errors.Is(err, catalog.ErrSnapshotSave) {
			return errors.WithStack(err)
		}
		log.Err(err).Warn("took copy but catalog snapshot not saved", logger.Data{"book_id": id})
	}

	issued, err := h.backendService.IssueBook(ctx, id, params.UserID)
	if err != nil {
		if _, aerr := h.catalog.AdjustCopies(ctx, id, 1); aerr != nil && !errors.Is(aerr, catalog.ErrSnapshotSave) {
			log.Err(aerr).Error("couldn't return copy after failed issue", logger.Data{"book_id": id})
		}
		return backend.UserError(err)
	}

	return errors.WithStack(c.JSON(http.StatusCreated, issued))
}

// importBooks replaces the catalog with an uploaded dataset and pushes it to
// the shared books collection.
func (h *handler) importBooks(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(c.Request().Context())

	params := ImportBooksPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	fh, ok := params.FormFiles["file"]
	if !ok {
		return errcodes.ValidationError(`"file" is required`)
	}

	dialect := h.dialect
	if params.Dialect != "" {
		d, err := csvbooks.ParseDialect(params.Dialect)
		if err != nil {
			return errcodes.ValidationError(err.Error())
		}
		dialect = d
	}

	f, err := fh.Open()
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	skipped := []ImportRowResult{}
	books, err := csvbooks.Load(f, csvbooks.ParseOptions{
		Dialect: dialect,
		OnSkip: func(e csvbooks.RowError) {
			skipped = append(skipped, ImportRowResult{Line: e.Line, Reason: e.Reason})
		},
	})
	if err != nil {
		switch {
		case errors.Is(err, csvbooks.ErrEmptyDocument), errors.Is(err, csvbooks.ErrNoBooks),
			errors.Is(err, csvbooks.ErrMissingColumn), errors.Is(err, csvbooks.ErrNotText):
			return errcodes.ValidationError(err.Error())
		}
		return errors.WithStack(err)
	}

	if err := h.catalog.ImportBooks(ctx, books); err != nil {
		return errors.WithStack(err)
	}

	synced, err := h.backendService.SyncBooks(ctx, books)
	if err != nil {
		return backend.UserError(err)
	}

	log.Info("imported dataset", logger.Data{"books": len(books), "skipped": len(skipped), "file": fh.Filename})
	return errors.WithStack(c.JSON(http.StatusOK, ImportBooksResponse{
		Imported: len(books),
		Skipped:  skipped,
		Synced:   synced,
	}))
}
