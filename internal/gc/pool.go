package gc

import (
	"fmt"
	"sync"
)

// defaultDeleteThreads bounds deletion parallelism when no explicit size is
// configured.
const defaultDeleteThreads = 8

// Pool is a bounded worker pool for parallel file deletion. One pool is
// shared across every deletion call site of an engine instance, bounding the
// table's total deletion parallelism.
type Pool struct {
	sem chan struct{}
}

// NewPool creates a pool that runs at most size deletions concurrently.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = defaultDeleteThreads
	}
	return &Pool{sem: make(chan struct{}, size)}
}

// deleteAll submits one unit of work per item and blocks until all complete.
//
// The per-item function is expected to be quiet (idempotent, non-raising)
// for ordinary file deletion; an error return is reserved for unexpected
// infrastructure failures and surfaces as a single wrapped error after the
// join. There is no partial-progress reporting.
func deleteAll[T any](p *Pool, items []T, fn func(T) error) error {
	if len(items) == 0 {
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, item := range items {
		p.sem <- struct{}{}
		wg.Add(1)
		go func(item T) {
			defer func() {
				<-p.sem
				wg.Done()
			}()
			if err := fn(item); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(item)
	}
	wg.Wait()

	if firstErr != nil {
		return fmt.Errorf("bulk delete failed: %w", firstErr)
	}
	return nil
}
