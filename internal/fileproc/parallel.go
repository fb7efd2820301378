// Package fileproc runs comparison jobs on a bounded worker pool.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a job.
type ProcessingError struct {
	Key string
	Err error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

// ProcessingErrors collects multiple job errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(key string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Key: key, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d jobs failed (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is applied to NumCPU when no worker count is set.
// Parsing is CGO-bound, so 2x keeps every core busy across short jobs.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each job finishes, successfully or not.
type ProgressFunc func()

// Workers resolves a configured worker count; n <= 0 means 2x NumCPU.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// Map runs fn for every job with at most workers goroutines. Results keep
// the job order; failed and cancelled jobs are left out and reported in the
// returned errors, keyed by key(job). The error collection is nil when every
// job succeeded.
func Map[J, T any](
	ctx context.Context,
	jobs []J,
	workers int,
	key func(J) string,
	fn func(context.Context, J) (T, error),
	onProgress ProgressFunc,
) ([]T, *ProcessingErrors) {
	if len(jobs) == 0 {
		return nil, nil
	}

	slots := make([]T, len(jobs))
	ok := make([]bool, len(jobs))
	errs := &ProcessingErrors{}

	p := pool.New().WithMaxGoroutines(Workers(workers)).WithContext(ctx)
	for i, job := range jobs {
		p.Go(func(ctx context.Context) error {
			if onProgress != nil {
				defer onProgress()
			}
			if err := ctx.Err(); err != nil {
				errs.Add(key(job), err)
				return nil
			}

			result, err := fn(ctx, job)
			if err != nil {
				errs.Add(key(job), err)
				return nil // one failed job does not stop the pool
			}
			// each goroutine owns its index
			slots[i] = result
			ok[i] = true
			return nil
		})
	}
	_ = p.Wait()

	results := make([]T, 0, len(jobs))
	for i := range slots {
		if ok[i] {
			results = append(results, slots[i])
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
