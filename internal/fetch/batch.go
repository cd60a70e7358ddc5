package fetch

import (
	"context"
	"log/slog"
	"sync"
)

// BatchOptions controls batch execution.
type BatchOptions struct {
	// Workers is the number of concurrent fetches (>=1). 1 runs the batch
	// fully serially.
	Workers int

	// FailFast cancels the remaining tasks after the first failure. The
	// default collects every per-burst outcome regardless of failures.
	FailFast bool
}

// Result is the outcome of one burst fetch: either decoded data or the
// error that stopped it, never both.
type Result struct {
	Data [][]complex64
	Err  error
}

// FetchBatch fetches every descriptor under a bounded worker pool and
// returns the outcomes keyed by burst identity. Completion order carries no
// meaning; the identity key makes ordering irrelevant. Each task opens its
// own stream, so one slow burst cannot stall another's reads.
func (f *Fetcher) FetchBatch(ctx context.Context, descriptors []Descriptor, opts BatchOptions) map[string]Result {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan Descriptor)
	type keyed struct {
		id  string
		res Result
	}
	results := make(chan keyed, opts.Workers)

	var wg sync.WaitGroup
	wg.Add(opts.Workers)
	for w := 0; w < opts.Workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-jobs:
					if !ok {
						return
					}
					data, err := f.Fetch(ctx, d)
					select {
					case results <- keyed{id: d.ID, res: Result{Data: data, Err: err}}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	// Collector: write-once per key.
	out := make(map[string]Result, len(descriptors))
	var cwg sync.WaitGroup
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for r := range results {
			if _, dup := out[r.id]; dup {
				continue
			}
			out[r.id] = r.res
			if r.res.Err != nil {
				if f.collect != nil {
					f.collect.BurstsFailed.Inc()
				}
				f.logger.ErrorContext(ctx, "burst fetch failed",
					slog.String("burst", r.id),
					slog.String("error", r.res.Err.Error()),
				)
				if opts.FailFast {
					cancel()
				}
			} else if f.collect != nil {
				f.collect.BurstsFetched.Inc()
			}
		}
	}()

	for _, d := range descriptors {
		select {
		case jobs <- d:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()
	close(results)
	cwg.Wait()

	// Bursts skipped by cancellation still get a per-item outcome.
	if err := ctx.Err(); err != nil {
		for _, d := range descriptors {
			if _, ok := out[d.ID]; !ok {
				out[d.ID] = Result{Err: err}
			}
		}
	}

	return out
}
