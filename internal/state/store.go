// Package state holds the per-session state holders. Each holder owns the
// last list fetched from the remote API and guards its load so that a
// second load while one is in flight is skipped unless forced.
package state

import (
	"context"
	"sync"
	"time"

	"orca/internal/api"
)

// Loader is anything that can be (re)loaded from the remote API.
type Loader interface {
	Load(ctx context.Context, force bool) (bool, error)
}

// Store holds one fetched value. Lists are Store[[]E]; the held value is
// replaced wholesale on every successful load.
type Store[T any] struct {
	fetch func(ctx context.Context) (T, error)
	now   func() time.Time

	mu       sync.Mutex
	data     T
	err      *api.Error
	loading  bool
	loaded   bool
	stale    bool
	loadedAt time.Time
	gen      uint64
	done     chan struct{}
}

// Snapshot is a consistent copy of a Store's fields for rendering.
type Snapshot[T any] struct {
	Data     T
	Loading  bool
	Loaded   bool
	Stale    bool
	Err      *api.Error
	LoadedAt time.Time
}

func NewStore[T any](fetch func(ctx context.Context) (T, error)) *Store[T] {
	return &Store[T]{fetch: fetch, now: time.Now}
}

// Load fetches and replaces the held value. When a load is already in
// flight and force is false it returns (false, nil) without fetching. A
// forced load supersedes any older one still running; only the newest
// result is applied.
//
// The fetch is detached from ctx cancellation since other requests may be
// waiting on the same load; the API client's timeout bounds it.
func (s *Store[T]) Load(ctx context.Context, force bool) (bool, error) {
	s.mu.Lock()
	if s.loading && !force {
		s.mu.Unlock()
		return false, nil
	}
	s.gen++
	gen := s.gen
	if !s.loading {
		s.done = make(chan struct{})
		s.loading = true
	}
	s.mu.Unlock()

	data, err := s.fetch(context.WithoutCancel(ctx))

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		if err != nil {
			return true, api.AsError(err)
		}
		return true, nil
	}
	s.loading = false
	close(s.done)

	if err != nil {
		s.err = api.AsError(err)
		return true, s.err
	}
	s.data = data
	s.err = nil
	s.loaded = true
	s.stale = false
	s.loadedAt = s.now()
	return true, nil
}

// Wait blocks until no load is in flight or ctx is done.
func (s *Store[T]) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.loading {
			s.mu.Unlock()
			return nil
		}
		done := s.done
		s.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Ensure loads when nothing was loaded yet, the last load failed, or the
// value was invalidated, then waits for the in-flight load. It returns the
// error of the last load, if any.
func (s *Store[T]) Ensure(ctx context.Context) error {
	s.mu.Lock()
	need := !s.loaded || s.stale || s.err != nil
	s.mu.Unlock()

	if need {
		if _, err := s.Load(ctx, false); err != nil {
			return err
		}
	}
	if err := s.Wait(ctx); err != nil {
		return err
	}
	if e := s.Err(); e != nil {
		return e
	}
	return nil
}

// Invalidate marks the value stale; the next Ensure reloads it.
func (s *Store[T]) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Reset drops the held value and abandons any in-flight load.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	s.gen++
	s.data = zero
	s.err = nil
	s.loaded = false
	s.stale = false
	s.loadedAt = time.Time{}
	if s.loading {
		s.loading = false
		close(s.done)
	}
}

func (s *Store[T]) Data() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *Store[T]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error of the last load, or nil.
func (s *Store[T]) Err() *api.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{
		Data:     s.data,
		Loading:  s.loading,
		Loaded:   s.loaded,
		Stale:    s.stale,
		Err:      s.err,
		LoadedAt: s.loadedAt,
	}
}
