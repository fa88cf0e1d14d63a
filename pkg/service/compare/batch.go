package compare

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.keploy.io/comparator/pkg/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// JobResult is the outcome of one batch request. Err is set instead of
// Result when the comparison could not run.
type JobResult struct {
	ID     string
	Name   string
	Format string
	Result *models.Result
	Err    error
}

// Batch runs reqs with at most the configured number in parallel. Results
// keep the order of reqs; the failed jobs are also returned together as one
// error.
func (c *Compare) Batch(ctx context.Context, reqs []Request) ([]JobResult, error) {
	results := make([]JobResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, req := range reqs {
		results[i] = JobResult{ID: uuid.NewString(), Name: req.Name, Format: req.Format}
		g.Go(func() error {
			res, err := c.Compare(gctx, req)
			results[i].Result, results[i].Err = res, err
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	failed, errored := 0, 0
	for _, r := range results {
		if r.Err != nil {
			errored++
			merr = multierror.Append(merr, fmt.Errorf("job %q (%s): %w", r.Name, r.ID, r.Err))
			continue
		}
		if !r.Result.Passed() {
			failed++
		}
	}
	c.logger.Info("batch finished", zap.Int("jobs", len(reqs)), zap.Int("withDifferences", failed), zap.Int("errors", errored))
	return results, merr.ErrorOrNil()
}
