package assign

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-anchors/matcher"
)

// AssignBatch assigns every example on a pool of workers.
//
// Examples are independent, so the only coordination is writing each result at its
// example's index. The first error cancels the remaining work and is returned.
//
// Arguments:
//   - ctx: Cancels examples that have not started yet.
//   - examples: The batch.
//   - workers: Maximum concurrent examples; <= 0 means runtime.NumCPU().
//
// Returns:
//   - []*Result: One result per example, in input order.
//   - error: The first failure, or ctx.Err() if cancelled.
func (a *Assigner) AssignBatch(ctx context.Context, examples []*Example, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]*Result, len(examples))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, ex := range examples {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.Assign(ex)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := BatchSummary(results)
	a.log.Infof("assigned %d examples: %v", len(results), total)
	return results, nil
}

// BatchSummary adds up the per-example summaries. PerBox is left empty since box
// indices are per example.
func BatchSummary(results []*Result) matcher.Summary {
	var s matcher.Summary
	for _, r := range results {
		s.Positives += r.Summary.Positives
		s.Background += r.Summary.Background
		s.Ignored += r.Summary.Ignored
	}
	return s
}
