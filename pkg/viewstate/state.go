// Package viewstate holds the result of a one-shot backend call for a screen
// that may go away before the call returns.
package viewstate

import (
	"context"
	"sync"

	"github.com/robinjoseph08/golib/logger"
)

// Ticket identifies one load. Only the newest ticket can resolve a State.
type Ticket uint64

// Snapshot is a copy of a State at one point in time.
type Snapshot[T any] struct {
	Loading bool
	Data    T
	Message string
	Err     error
}

type State[T any] struct {
	mu       sync.Mutex
	gen      Ticket
	released bool
	loading  bool
	data     T
	message  string
	err      error
}

// Begin starts a new load and invalidates every earlier ticket.
func (s *State[T]) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loading = true
	return s.gen
}

// Resolve applies the result of a load. It reports false and changes nothing
// when the ticket is stale or the state was released. A failed load keeps the
// previous data and sets Message from the error.
func (s *State[T]) Resolve(t Ticket, data T, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released || t != s.gen {
		return false
	}
	s.loading = false
	s.err = err
	if err != nil {
		s.message = err.Error()
		return true
	}
	s.data = data
	s.message = ""
	return true
}

// Release marks the state as gone. Loads still in flight are discarded when
// they finish.
func (s *State[T]) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.loading = false
}

func (s *State[T]) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *State[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{Loading: s.loading, Data: s.data, Message: s.message, Err: s.err}
}

// Fetch runs fn in its own goroutine and resolves state with its result. The
// returned channel receives whether the result was applied and is then
// closed.
func Fetch[T any](ctx context.Context, state *State[T], fn func(ctx context.Context) (T, error)) <-chan bool {
	ticket := state.Begin()
	done := make(chan bool, 1)

	go func() {
		defer close(done)
		data, err := fn(ctx)
		applied := state.Resolve(ticket, data, err)
		if !applied {
			logger.FromContext(ctx).Debug("discarded stale result", logger.Data{"ticket": ticket})
		}
		done <- applied
	}()

	return done
}
