// Package fetch retrieves batches of map tiles concurrently while keeping
// the results in request order, so downstream assembly never observes the
// concurrency.
package fetch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"tastopo/mapgrid"
)

// MaxWorkers bounds the number of concurrent tile requests.
const MaxWorkers = 8

// Getter performs a single blocking tile fetch. Retry and timeout policy
// live behind this boundary, not in the pool.
type Getter interface {
	GetTile(ctx context.Context, ref mapgrid.TileRef) ([]byte, error)
}

// Progress is called after each tile completes, successfully or not.
type Progress func(done, total int)

// PartialFetchError reports the tiles of a batch that failed. The rest of
// the batch completed and its bytes are still returned, so the caller can
// decide between aborting and rendering with gaps.
type PartialFetchError struct {
	Failed []mapgrid.TileRef
	Causes []error
}

func (e *PartialFetchError) Error() string {
	return fmt.Sprintf("%d of the requested tiles failed, first failure %v: %v",
		len(e.Failed), e.Failed[0], e.Causes[0])
}

// FetchAll retrieves every tile in refs using at most MaxWorkers
// concurrent fetches and blocks until all of them have either succeeded
// or failed. The returned slice is indexed identically to refs regardless
// of completion order. A failed tile never cancels its siblings; failures
// are collected and surfaced together as a *PartialFetchError.
func FetchAll(ctx context.Context, getter Getter, refs []mapgrid.TileRef, progress Progress) ([][]byte, error) {
	results := make([][]byte, len(refs))
	errs := make([]error, len(refs))

	workers := MaxWorkers
	if len(refs) < workers {
		workers = len(refs)
	}

	jobs := make(chan int)
	var done atomic.Int64
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				// Each index is written by exactly one worker.
				results[i], errs[i] = getter.GetTile(ctx, refs[i])
				if progress != nil {
					progress(int(done.Add(1)), len(refs))
				}
			}
		}()
	}

	for i := range refs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var failure *PartialFetchError
	for i, err := range errs {
		if err == nil {
			continue
		}
		if failure == nil {
			failure = &PartialFetchError{}
		}
		failure.Failed = append(failure.Failed, refs[i])
		failure.Causes = append(failure.Causes, err)
	}
	if failure != nil {
		return results, failure
	}
	return results, nil
}
