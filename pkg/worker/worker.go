package worker

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/backend"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/catalog"
	"github.com/rushikesh1093/Library-Management-System-infy/pkg/models"
)

var processID = randStringBytes(8)

// Catalog is what the worker reads changes and current book state from.
type Catalog interface {
	Subscribe() (<-chan catalog.Change, func())
	Book(bookID int) (*models.Book, error)
}

// Worker mirrors local catalog changes into the remote books collection.
// Copy counts are the only thing it pushes, and the remote copy count and
// availability are owned by it. Reservations and wishlists are written by the
// request handlers and imports sync themselves.
type Worker struct {
	log logger.Logger

	catalog        Catalog
	backendService *backend.Service
	processes      int

	processFuncs map[string]func(ctx context.Context, change catalog.Change) error

	queue          chan catalog.Change
	shutdown       chan struct{}
	doneProcessing chan struct{}
}

func New(store Catalog, backendService *backend.Service, processes int) *Worker {
	if processes < 1 {
		processes = 1
	}

	w := &Worker{
		log: logger.New(),

		catalog:        store,
		backendService: backendService,
		processes:      processes,

		queue:          make(chan catalog.Change, processes),
		shutdown:       make(chan struct{}),
		doneProcessing: make(chan struct{}, processes),
	}

	w.processFuncs = map[string]func(ctx context.Context, change catalog.Change) error{
		catalog.ChangeCopies: w.mirrorCopies,
	}

	return w
}

func (w *Worker) Start() {
	changes, unsubscribe := w.catalog.Subscribe()
	go w.fetchChanges(changes, unsubscribe)
	for i := 0; i < w.processes; i++ {
		go w.processChanges()
	}
}

// fetchChanges feeds the queue until shutdown. Changes already delivered to
// the subscription when shutdown starts are still queued, and the queue is
// closed once they are in.
func (w *Worker) fetchChanges(changes <-chan catalog.Change, unsubscribe func()) {
	defer close(w.queue)

	for {
		select {
		case <-w.shutdown:
			unsubscribe()
			for change := range changes {
				w.enqueue(change)
			}
			return
		case change, ok := <-changes:
			if !ok {
				<-w.shutdown
				return
			}
			w.enqueue(change)
		}
	}
}

func (w *Worker) enqueue(change catalog.Change) {
	if _, handled := w.processFuncs[change.Kind]; !handled {
		return
	}
	w.queue <- change
}

func (w *Worker) processChanges() {
	for change := range w.queue {
		w.process(change)
	}
	w.doneProcessing <- struct{}{}
}

func (w *Worker) process(change catalog.Change) {
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String()).Root(logger.Data{"book_id": change.BookID, "kind": change.Kind, "process_id": processID})
	ctx := log.WithContext(context.Background())

	if err := w.processFuncs[change.Kind](ctx, change); err != nil {
		log.Err(err).Error("mirror error")
		return
	}
	log.Debug("mirrored catalog change")
}

// mirrorCopies writes the book's current copy count and availability. The
// book is read at processing time, so a burst of changes converges on the
// latest state.
func (w *Worker) mirrorCopies(ctx context.Context, change catalog.Change) error {
	book, err := w.catalog.Book(change.BookID)
	if err != nil {
		return err
	}
	_, err = w.backendService.UpdateCopies(ctx, book.BookID, book.Copies)
	return err
}

// Shutdown stops taking new changes, mirrors the ones already received and
// returns once every process has finished.
func (w *Worker) Shutdown() {
	close(w.shutdown)

	for i := 0; i < w.processes; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))] //nolint:gosec
	}
	return string(b)
}
