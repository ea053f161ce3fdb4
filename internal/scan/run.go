package scan

import (
	"context"
	"sync"
)

// Result is the outcome of a job for one path.
type Result[T any] struct {
	Path  string
	Value T
	Err   error
}

// Run calls job for every path using at most workers goroutines and hands
// the results to emit in the order of paths. emit runs on the calling
// goroutine; an error from it stops the run and is returned. Cancelling
// ctx stops new jobs from starting and returns ctx.Err().
func Run[T any](ctx context.Context, paths []string, workers int, job func(ctx context.Context, path string) (T, error), emit func(Result[T]) error) error {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result[T], len(paths))
	done := make([]chan struct{}, len(paths))
	for i := range done {
		done[i] = make(chan struct{})
	}

	next := make(chan int)
	var wg sync.WaitGroup
	for range min(workers, len(paths)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				v, err := job(ctx, paths[i])
				results[i] = Result[T]{Path: paths[i], Value: v, Err: err}
				close(done[i])
			}
		}()
	}

	go func() {
		defer close(next)
		for i := range paths {
			select {
			case next <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var err error
	for i := range paths {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-done[i]:
		case <-ctx.Done():
			err = ctx.Err()
		}
		if err != nil {
			break
		}
		if err = emit(results[i]); err != nil {
			break
		}
	}
	cancel()
	wg.Wait()
	return err
}
