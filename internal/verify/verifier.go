package verify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const (
	oracleErrorFormat = "oracle error: %v"
	oraclePanicFormat = "oracle panic: %v"
)

// OutcomeObserver is told about every finished outcome.
type OutcomeObserver func(outcome pipeline.VerificationOutcome)

// Verifier runs the enabled oracles in a fixed order. No oracle error or panic
// escapes Verify; each becomes a failed outcome.
type Verifier struct {
	Oracles  []Oracle
	Parallel bool
	Logger   *zap.Logger
	Observe  OutcomeObserver
}

// Verify returns one outcome per enabled oracle in oracle order. The caller
// sets the report's iteration.
func (v Verifier) Verify(ctx context.Context, code string, tests string) pipeline.VerificationReport {
	outcomes := make([]pipeline.VerificationOutcome, len(v.Oracles))
	if v.Parallel && len(v.Oracles) > 1 {
		var group errgroup.Group
		for idx, oracle := range v.Oracles {
			group.Go(func() error {
				outcomes[idx] = v.runOracle(ctx, oracle, code, tests)
				return nil
			})
		}
		_ = group.Wait()
	} else {
		for idx, oracle := range v.Oracles {
			outcomes[idx] = v.runOracle(ctx, oracle, code, tests)
		}
	}
	return pipeline.VerificationReport{Outcomes: outcomes}
}

func (v Verifier) runOracle(ctx context.Context, oracle Oracle, code string, tests string) (outcome pipeline.VerificationOutcome) {
	name := oracle.Name()
	started := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			message := fmt.Sprintf(oraclePanicFormat, recovered)
			outcome = pipeline.VerificationOutcome{Oracle: name, Passed: false, Diagnostic: message, Errors: []string{message}}
		}
		outcome.DurationMs = time.Since(started).Milliseconds()
		v.logger().Debug("oracle finished",
			zap.String("oracle", name),
			zap.Bool("passed", outcome.Passed),
			zap.Int64("duration_ms", outcome.DurationMs),
		)
		if v.Observe != nil {
			v.Observe(outcome)
		}
	}()

	verdict, err := oracle.Run(ctx, code, tests)
	if err != nil {
		message := fmt.Sprintf(oracleErrorFormat, err)
		return pipeline.VerificationOutcome{Oracle: name, Passed: false, Diagnostic: message, Errors: []string{message}}
	}
	return pipeline.VerificationOutcome{
		Oracle:     name,
		Passed:     verdict.Passed,
		Diagnostic: verdict.Diagnostic,
		Errors:     verdict.Errors,
		Warnings:   verdict.Warnings,
	}
}

func (v Verifier) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}
