// Package worker provides a generic bounded-concurrency pool used to fan
// file extraction out across goroutines.
package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Outcome pairs one input with its result or error.
type Outcome[T any, R any] struct {
	Input  T
	Result R
	Err    error
}

// ProcessFunc handles a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs inputs through a fixed number of workers. Cancellation stops the
// intake of new inputs; tasks already picked up run to completion so partial
// results stay consistent.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool with the given concurrency.
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{workers: workers, process: fn}
}

// Execute processes all inputs and returns outcomes in input order. Inputs
// never picked up before cancellation keep their zero outcome.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Outcome[T, R] {
	results := make([]Outcome[T, R], len(inputs))
	inputCh := make(chan int, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case idx, ok := <-inputCh:
					if !ok {
						return
					}
					result, err := p.process(ctx, inputs[idx])
					results[idx] = Outcome[T, R]{Input: inputs[idx], Result: result, Err: err}
					if err != nil {
						log.Error().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
					}
				}
			}
		}(w)
	}

send:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break send
		case inputCh <- i:
		}
	}
	close(inputCh)

	wg.Wait()
	return results
}
