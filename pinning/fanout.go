package pinning

import (
	"fmt"
	"sync"

	"github.com/ruteri/pinning-aggregation/interfaces"
	"golang.org/x/sync/errgroup"
)

// all runs fn on every backend concurrently and waits for all of them.
// It returns the first error observed, tagged with the failing backend id.
// Siblings of a failed call are not cancelled.
func all(backends []interfaces.Pinning, fn func(interfaces.Pinning) error) error {
	var g errgroup.Group
	for _, backend := range backends {
		g.Go(func() error {
			if err := fn(backend); err != nil {
				return fmt.Errorf("%s: %w", backend.ID(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// collect is all for calls producing a value. Results are ordered like backends.
func collect[T any](backends []interfaces.Pinning, fn func(interfaces.Pinning) (T, error)) ([]T, error) {
	results := make([]T, len(backends))
	var g errgroup.Group
	for i, backend := range backends {
		g.Go(func() error {
			res, err := fn(backend)
			if err != nil {
				return fmt.Errorf("%s: %w", backend.ID(), err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// settle runs fn on every backend concurrently and waits for all of them to finish.
// Failures go to onErr and are never returned.
func settle(backends []interfaces.Pinning, fn func(interfaces.Pinning) error, onErr func(interfaces.Pinning, error)) {
	var wg sync.WaitGroup
	for _, backend := range backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(backend); err != nil {
				onErr(backend, err)
			}
		}()
	}
	wg.Wait()
}
