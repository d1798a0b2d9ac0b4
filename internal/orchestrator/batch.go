package orchestrator

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

// RunBatch runs independent requirements on at most workers goroutines and
// returns their results in input order. A failing run never stops the others.
func (e Engine) RunBatch(ctx context.Context, requirements []pipeline.Requirement, workers int) []pipeline.PipelineResult {
	results := make([]pipeline.PipelineResult, len(requirements))
	if workers < 1 {
		workers = 1
	}
	e.logger().Info("batch started", zap.Int("requirements", len(requirements)), zap.Int("workers", workers))

	var group errgroup.Group
	group.SetLimit(workers)
	for idx, requirement := range requirements {
		group.Go(func() error {
			results[idx] = e.Run(ctx, requirement)
			return nil
		})
	}
	_ = group.Wait()
	return results
}
