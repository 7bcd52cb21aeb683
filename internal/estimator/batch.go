// internal/estimator/batch.go
package estimator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EstimateAll measures several roots with the same configuration, running up
// to limit top-level calls at once (limit <= 0 means unbounded). Results are
// returned in input order. The Host must tolerate concurrent reads. The first
// failure cancels the remaining roots.
func (e *Estimator) EstimateAll(ctx context.Context, roots []Element, cfg Config, limit int) ([]float64, error) {
	results := make([]float64, len(roots))

	g, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, root := range roots {
		g.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			height, err := e.EstimateWithConfig(root, cfg)
			if err != nil {
				return fmt.Errorf("estimating root %d: %w", i, err)
			}
			results[i] = height
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Debug("Batch estimation aborted.", zap.Int("roots", len(roots)), zap.Error(err))
		return nil, err
	}
	return results, nil
}

// EstimateAll is the package-level form of Estimator.EstimateAll.
func EstimateAll(ctx context.Context, host Host, roots []Element, opts Options, limit int) ([]float64, error) {
	return New(host, nil).EstimateAll(ctx, roots, Resolve(opts), limit)
}
