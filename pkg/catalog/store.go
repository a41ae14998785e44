package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/errcodes"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
	"github.com/segmentio/encoding/json"
)

// ErrSnapshotSave is matched by errors.Is when a mutation was applied in
// memory but the snapshot couldn't be written.
var ErrSnapshotSave = errors.New("failed to save catalog snapshot")

type saveError struct {
	cause error
}

func (e *saveError) Error() string {
	return ErrSnapshotSave.Error() + ": " + e.cause.Error()
}

func (e *saveError) Unwrap() error {
	return e.cause
}

func (e *saveError) Is(target error) bool {
	return target == ErrSnapshotSave
}

// Where the initial collection came from.
const (
	SourceSnapshot = "snapshot"
	SourceDataset  = "dataset"
	SourceEmpty    = "empty"
)

// DatasetUnavailableMessage is shown when neither a snapshot nor the bundled
// dataset could produce any books.
const DatasetUnavailableMessage = "The book catalog could not be loaded. Please try again later."

type InitResult struct {
	Source  string
	Count   int
	Message string
}

// Change kinds.
const (
	ChangeCopies      = "copies"
	ChangeReservation = "reservation"
	ChangeWishlist    = "wishlist"
	ChangeImport      = "import"
)

// Change is published to subscribers after every mutation. BookID is zero for
// an import.
type Change struct {
	BookID int
	Kind   string
}

const subscriberBuffer = 16

// Store owns the in-memory book collection for a session and writes the whole
// collection to its snapshot after every mutation.
type Store struct {
	snapshots SnapshotStore
	dataset   DatasetSource
	log       logger.Logger

	mu    sync.RWMutex
	books []*models.Book
	index map[int]int

	subMu   sync.Mutex
	subs    map[int]chan Change
	nextSub int
}

func NewStore(snapshots SnapshotStore, dataset DatasetSource, log logger.Logger) *Store {
	return &Store{
		snapshots: snapshots,
		dataset:   dataset,
		log:       log,
		index:     map[int]int{},
		subs:      map[int]chan Change{},
	}
}

// Initialize restores the last snapshot, falling back to the bundled dataset
// when there is none or it can't be decoded. A dataset failure leaves the
// catalog empty and is reported through InitResult.Message.
func (s *Store) Initialize(ctx context.Context) (InitResult, error) {
	if err := ctx.Err(); err != nil {
		return InitResult{}, errors.WithStack(err)
	}

	books, err := s.loadSnapshot(ctx)
	if err == nil {
		s.replace(books)
		s.log.Info("catalog restored from snapshot", logger.Data{"count": len(books)})
		return InitResult{Source: SourceSnapshot, Count: len(books)}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return InitResult{}, errors.WithStack(ctxErr)
	}
	if !errors.Is(err, ErrNoSnapshot) {
		s.log.Err(err).Warn("catalog snapshot unusable, falling back to dataset")
	}

	books, err = s.dataset.Books(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return InitResult{}, errors.WithStack(ctxErr)
		}
		s.log.Err(err).Error("failed to load bundled dataset")
		s.replace(nil)
		return InitResult{Source: SourceEmpty, Message: DatasetUnavailableMessage}, nil
	}

	s.replace(books)
	s.log.Info("catalog loaded from dataset", logger.Data{"count": len(books)})
	return InitResult{Source: SourceDataset, Count: len(books)}, nil
}

func (s *Store) loadSnapshot(ctx context.Context) ([]*models.Book, error) {
	data, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, err
	}
	var books []*models.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, errors.Wrap(err, "failed to decode catalog snapshot")
	}
	return books, nil
}

// replace swaps in a new collection. Stored availability flags aren't trusted,
// records without an instance ID get one, and repeated book IDs keep only the
// first record.
func (s *Store) replace(books []*models.Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(books)
}

func (s *Store) replaceLocked(books []*models.Book) {
	s.books = make([]*models.Book, 0, len(books))
	s.index = make(map[int]int, len(books))
	for _, b := range books {
		if b == nil {
			continue
		}
		if _, dup := s.index[b.BookID]; dup {
			continue
		}
		b = b.Copy()
		if b.InstanceID == "" {
			b.InstanceID = uuid.NewString()
		}
		b.SyncAvailability()
		s.index[b.BookID] = len(s.books)
		s.books = append(s.books, b)
	}
}

// Save serializes the whole collection and overwrites the snapshot.
func (s *Store) Save(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.books)
	if err != nil {
		return &saveError{errors.WithStack(err)}
	}
	if err := s.snapshots.Save(ctx, data); err != nil {
		return &saveError{err}
	}
	return nil
}

// mutate runs fn on a working copy of the book under the write lock. When fn
// fails nothing changes and the current book comes back with fn's error.
// Otherwise the copy replaces the book, availability is re-derived and the
// collection is saved. A failed save keeps the change. Subscribers get one
// Change per field kind that changed, plus always when set.
func (s *Store) mutate(ctx context.Context, bookID int, always string, fn func(b *models.Book) error) (*models.Book, error) {
	s.mu.Lock()
	i, ok := s.index[bookID]
	if !ok {
		s.mu.Unlock()
		return nil, errcodes.NotFound("Book")
	}
	before := s.books[i]
	b := before.Copy()
	if err := fn(b); err != nil {
		s.mu.Unlock()
		return before.Copy(), err
	}
	b.SyncAvailability()
	s.books[i] = b
	err := s.saveLocked(ctx)
	out := b.Copy()
	s.mu.Unlock()

	kinds := changedKinds(before, b, always)
	if err != nil {
		s.log.Err(err).Error("catalog snapshot save failed", logger.Data{"book_id": bookID, "changes": kinds})
	}
	for _, kind := range kinds {
		s.publish(Change{BookID: bookID, Kind: kind})
	}
	return out, err
}

func changedKinds(before, after *models.Book, always string) []string {
	kinds := []string{}
	add := func(kind string, changed bool) {
		if changed || kind == always {
			kinds = append(kinds, kind)
		}
	}
	add(ChangeCopies, before.Copies != after.Copies)
	add(ChangeReservation, before.ReservationStatus != after.ReservationStatus)
	add(ChangeWishlist, before.IsWishlisted != after.IsWishlisted)
	return kinds
}

// Update applies fn to one book atomically with respect to every other
// mutation. fn may reject the change by returning an error, which is passed
// through untouched. Unknown books give errcodes.NotFound.
func (s *Store) Update(ctx context.Context, bookID int, fn func(b *models.Book) error) (*models.Book, error) {
	return s.mutate(ctx, bookID, "", fn)
}

// AdjustCopies adds delta to the copy count, clamped at zero.
func (s *Store) AdjustCopies(ctx context.Context, bookID, delta int) (*models.Book, error) {
	return s.mutate(ctx, bookID, ChangeCopies, func(b *models.Book) error {
		b.Copies += delta
		return nil
	})
}

// found adapts mutate's result to the setters' (found, err) shape.
func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var e *errcodes.Error
	if errors.As(err, &e) && e.Code == "not_found" {
		return false, nil
	}
	return true, err
}

// UpdateCopies sets the copy count, clamped at zero.
func (s *Store) UpdateCopies(ctx context.Context, bookID, copies int) (bool, error) {
	_, err := s.mutate(ctx, bookID, ChangeCopies, func(b *models.Book) error {
		b.Copies = copies
		return nil
	})
	return found(err)
}

// UpdateReservationStatus sets the status as given. Transition rules live in
// the reservations package.
func (s *Store) UpdateReservationStatus(ctx context.Context, bookID int, status models.ReservationStatus) (bool, error) {
	_, err := s.mutate(ctx, bookID, ChangeReservation, func(b *models.Book) error {
		b.ReservationStatus = status
		return nil
	})
	return found(err)
}

// UpdateWishlistStatus sets the catalog's own wishlist flag. The HTTP service
// keeps wishlists per member in the backend and overlays them instead.
func (s *Store) UpdateWishlistStatus(ctx context.Context, bookID int, wishlisted bool) (bool, error) {
	_, err := s.mutate(ctx, bookID, ChangeWishlist, func(b *models.Book) error {
		b.IsWishlisted = wishlisted
		return nil
	})
	return found(err)
}

// ImportBooks replaces the whole collection and persists it.
func (s *Store) ImportBooks(ctx context.Context, books []*models.Book) error {
	s.mu.Lock()
	s.replaceLocked(books)
	err := s.saveLocked(ctx)
	count := len(s.books)
	s.mu.Unlock()

	if err != nil {
		s.log.Err(err).Error("catalog snapshot save failed", logger.Data{"change": ChangeImport})
	} else {
		s.log.Info("catalog imported", logger.Data{"count": count})
	}
	s.publish(Change{Kind: ChangeImport})
	return err
}

// Books returns copies of every book in collection order.
func (s *Store) Books() []*models.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Book, len(s.books))
	for i, b := range s.books {
		out[i] = b.Copy()
	}
	return out
}

func (s *Store) Book(bookID int) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[bookID]
	if !ok {
		return nil, errcodes.NotFound("Book")
	}
	return s.books[i].Copy(), nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Genres returns the distinct non-empty categories, sorted.
func (s *Store) Genres() []string {
	s.mu.RLock()
	seen := map[string]struct{}{}
	genres := []string{}
	for _, b := range s.books {
		if b.Category == "" {
			continue
		}
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		genres = append(genres, b.Category)
	}
	s.mu.RUnlock()
	sort.Strings(genres)
	return genres
}

// Query evaluates opts against the current collection.
func (s *Store) Query(opts QueryOptions) []*models.Book {
	return Query(s.Books(), opts)
}

// Subscribe registers for change notifications. A subscriber that falls
// behind misses changes rather than blocking mutations. The returned func
// unsubscribes and closes the channel.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan Change, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Store) publish(change Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
