package utils

import (
	"context"
	"fmt"
	"sync"
)

// ConcurrentExecutor runs functions concurrently under a semaphore so a
// single query cannot fan out into unbounded goroutines.
type ConcurrentExecutor struct {
	semaphore chan struct{}
}

// NewConcurrentExecutor creates an executor with the given max concurrency.
func NewConcurrentExecutor(maxConcurrency int) *ConcurrentExecutor {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &ConcurrentExecutor{
		semaphore: make(chan struct{}, maxConcurrency),
	}
}

// Execute runs the functions concurrently and returns one error slot per
// function, in order. Panics are recovered and surfaced as errors so a
// misbehaving branch cannot take down the whole query.
func (e *ConcurrentExecutor) Execute(ctx context.Context, functions ...func() error) []error {
	if len(functions) == 0 {
		return nil
	}

	results := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() error) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results[index] = fmt.Errorf("panic recovered: %v", r)
				}
			}()

			select {
			case e.semaphore <- struct{}{}:
				defer func() { <-e.semaphore }()
			case <-ctx.Done():
				results[index] = ctx.Err()
				return
			}

			results[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results
}
