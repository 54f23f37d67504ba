// Package parallel provides the worker pool used for partition-wise
// execution. Partition maps fan work out over a fixed number of goroutines
// and collect results in partition order.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool manages a pool of goroutines for parallel processing.
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a worker pool with the given concurrency.
// Non-positive values default to runtime.NumCPU().
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{numWorkers: numWorkers, ctx: ctx, cancel: cancel}
}

// Map applies worker to every item and returns the results in input order.
func Map[T, R any](wp *WorkerPool, items []T, worker func(int, T) R) []R {
	results, _ := MapErr(wp, items, func(i int, item T) (R, error) {
		return worker(i, item), nil
	})
	return results
}

// MapErr applies worker to every item, in input order, stopping new work at
// the first error. Already-started items run to completion; the first error
// encountered (by item order) is returned.
func MapErr[T, R any](wp *WorkerPool, items []T, worker func(int, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))
	var next atomic.Int64
	var failed atomic.Bool

	workers := wp.numWorkers
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if failed.Load() || wp.ctx.Err() != nil {
					return
				}
				i := int(next.Add(1)) - 1
				if i >= len(items) {
					return
				}
				r, err := worker(i, items[i])
				if err != nil {
					errs[i] = err
					failed.Store(true)
					continue
				}
				results[i] = r
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	if err := wp.ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Close shuts down the worker pool. In-flight Map calls stop picking up new
// items.
func (wp *WorkerPool) Close() {
	wp.cancel()
}
