package usecase

import (
	"context"
	"sync"

	"WikiFetch/internal/domain"
)

// Future is the pending outcome of a single Fetch call. It resolves exactly
// once, with either a result or an error carrying a domain error kind.
type Future struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc

	result     domain.FetchResult
	err        error
	panicked   bool
	panicValue any
}

func newFuture(cancel context.CancelFunc) *Future {
	if cancel == nil {
		cancel = func() {}
	}
	return &Future{done: make(chan struct{}), cancel: cancel}
}

// Done is closed once the future has resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Cancel asks the fetch to stop. If the fetch has not reached the store
// write yet it resolves with domain.ErrCancelled, and no progress callback
// or broadcast follows. Cancelling a resolved future has no effect.
func (f *Future) Cancel() {
	f.cancel()
}

// Wait blocks until the future resolves or ctx ends. Ending ctx only stops
// the wait; use Cancel to stop the fetch itself.
//
// If the progress callback panicked, the fetch was aborted and Wait
// re-raises that panic in the waiting goroutine.
func (f *Future) Wait(ctx context.Context) (domain.FetchResult, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return domain.FetchResult{}, ctx.Err()
	}

	if f.panicked {
		panic(f.panicValue)
	}
	if f.err != nil {
		return domain.FetchResult{}, f.err
	}
	return domain.NewFetchResult(f.result.Title, f.result.Article), nil
}

func (f *Future) resolve(result domain.FetchResult, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.result = result
		f.err = err
		resolved = true
		close(f.done)
		f.cancel()
	})
	return resolved
}

func (f *Future) abort(value any) bool {
	resolved := false
	f.once.Do(func() {
		f.panicked = true
		f.panicValue = value
		resolved = true
		close(f.done)
		f.cancel()
	})
	return resolved
}
