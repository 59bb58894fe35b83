package pagefs

import (
	"fmt"
	"runtime"
	"sync"
)

// ParallelConfig controls batch key derivation
type ParallelConfig struct {
	// MaxWorkers is the maximum number of worker goroutines.
	// If 0, defaults to runtime.NumCPU()
	MaxWorkers int

	// MinRequestsForParallel is the batch size below which requests are
	// derived sequentially. Defaults to 2
	MinRequestsForParallel int
}

// Validate checks if the parallel configuration is valid
func (p *ParallelConfig) Validate() error {
	if p.MaxWorkers < 0 {
		return NewValidationError("max_workers", p.MaxWorkers, "cannot be negative")
	}
	if p.MaxWorkers > 1024 {
		return NewValidationError("max_workers", p.MaxWorkers, "must not exceed 1024")
	}
	if p.MinRequestsForParallel < 0 {
		return NewValidationError("min_requests_for_parallel", p.MinRequestsForParallel, "cannot be negative")
	}
	return nil
}

// DefaultParallelConfig returns the default batch derivation configuration
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxWorkers:             runtime.NumCPU(),
		MinRequestsForParallel: 2,
	}
}

// DeriveAll derives every request and returns the keys in request order.
// Requests are spread over a worker pool. Passwords are copied first and
// every request's Password is wiped, so several requests may share one
// password buffer. The first failure is returned and every key produced so
// far is wiped.
func DeriveAll(reqs []DerivedKeyRequest, cfg ParallelConfig) ([][]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	keys := make([][]byte, len(reqs))
	if len(reqs) == 0 {
		return keys, nil
	}

	numWorkers := cfg.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(reqs) {
		numWorkers = len(reqs)
	}
	minReqs := cfg.MinRequestsForParallel
	if minReqs == 0 {
		minReqs = 2
	}

	// Every password is copied before any is wiped, so requests may share
	// one buffer.
	work := make([]DerivedKeyRequest, len(reqs))
	for i, r := range reqs {
		r.Password = append([]byte(nil), r.Password...)
		work[i] = r
	}
	for i := range reqs {
		Wipe(reqs[i].Password)
	}

	fail := func(err error) ([][]byte, error) {
		for _, k := range keys {
			Wipe(k)
		}
		return nil, err
	}

	// Sequential processing
	if len(reqs) < minReqs || numWorkers == 1 {
		for i := range reqs {
			key, err := work[i].Derive()
			if err != nil {
				// Remaining passwords are still wiped.
				for j := i + 1; j < len(work); j++ {
					Wipe(work[j].Password)
				}
				return fail(fmt.Errorf("request %d: %w", i, err))
			}
			keys[i] = key
		}
		return keys, nil
	}

	var wg sync.WaitGroup
	jobChan := make(chan int, len(reqs))
	errChan := make(chan error, len(reqs))

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				func() {
					defer func() {
						if r := recover(); r != nil {
							errChan <- fmt.Errorf("request %d: panic in derivation worker: %v", idx, r)
						}
					}()
					key, err := work[idx].Derive()
					if err != nil {
						errChan <- fmt.Errorf("request %d: %w", idx, err)
						return
					}
					keys[idx] = key
				}()
			}
		}()
	}

	for i := range reqs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(errChan)

	if err, ok := <-errChan; ok {
		return fail(err)
	}
	return keys, nil
}
