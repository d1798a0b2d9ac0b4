// Package verify runs external oracles against generated code and aggregates
// their verdicts into a report.
package verify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

// Verdict is one oracle's judgement of one artifact.
type Verdict struct {
	Passed     bool
	Diagnostic string
	Errors     []string
	Warnings   []string
}

// Oracle checks code and tests. Returned errors are turned into failed
// outcomes by the Verifier.
type Oracle interface {
	Name() string
	Run(ctx context.Context, code string, tests string) (Verdict, error)
}

const timeoutDiagnosticFormat = "timeout after %s"

// commandStep is one external tool invocation inside a workspace.
type commandStep struct {
	runner  CommandRunner
	dir     string
	argv    []string
	timeout time.Duration
	parser  Parser
}

func (s commandStep) run(ctx context.Context) (Verdict, int, error) {
	runCtx := ctx
	cancel := func() {}
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	stdout, stderr, exitCode, err := s.runner.Run(runCtx, s.dir, s.argv)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Verdict{
			Passed:     false,
			Diagnostic: fmt.Sprintf(timeoutDiagnosticFormat, s.timeout),
			Errors:     []string{fmt.Sprintf(timeoutDiagnosticFormat, s.timeout)},
		}, -1, nil
	}
	if err != nil {
		return Verdict{}, exitCode, err
	}
	parsed := s.parser.Parse(stdout, stderr, exitCode)
	return Verdict{
		Passed:     exitCode == 0,
		Diagnostic: keepTail(combineOutput(stdout, stderr), maxOutputLen),
		Errors:     parsed.Errors,
		Warnings:   parsed.Warnings,
	}, exitCode, nil
}

func unavailable(oracle string, tools ...string) Verdict {
	err := &pipeline.OracleUnavailableError{Oracle: oracle, Tools: tools}
	return Verdict{Passed: false, Diagnostic: err.Error(), Errors: []string{err.Error()}}
}
