// Package orchestrator drives one requirement through clarification, design,
// generation and the verify/repair loop.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/clarify-verify/internal/generate"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/verify"
)

const (
	panicErrorFormat     = "unexpected panic: %v"
	noOraclesError       = "no verification oracles enabled"
	defaultMaxIterations = 1
)

type Options struct {
	UseClarification bool
	MaxQuestions     int
	GenerateDesign   bool
	// MaxIterations bounds verification rounds; values below 1 mean 1.
	MaxIterations int
	SummaryLimit  int
}

type Engine struct {
	Clarifier  Clarifier
	Answerer   Answerer
	Elaborator Elaborator
	Generator  Generator
	Verifier   Verifier
	Options    Options
	Logger     *zap.Logger
	Observer   Observer
	// NewID and Now default to uuid.NewString and time.Now.
	NewID func() string
	Now   func() time.Time
}

// runContext is the mutable state of one run. It is owned by a single Run
// call and passed by pointer through the transitions.
type runContext struct {
	runID       string
	requirement pipeline.Requirement
	questions   []pipeline.ClarificationQuestion
	answers     []pipeline.ClarificationAnswer
	designs     []pipeline.DesignArtifact
	code        pipeline.CodeArtifact
	reports     []pipeline.VerificationReport
	iterations  int
	status      pipeline.Status
	err         error
	logger      *zap.Logger
}

// Run executes the state machine for one requirement and returns exactly one
// result. It never panics and never returns an error; failures are encoded
// in the result's status and error.
func (e Engine) Run(ctx context.Context, requirement pipeline.Requirement) (result pipeline.PipelineResult) {
	now := e.Now
	if now == nil {
		now = time.Now
	}
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	if requirement.Refined == "" {
		requirement.Refined = requirement.Original
	}
	started := now()
	rc := &runContext{runID: newID(), requirement: requirement, status: pipeline.StatusUnknown}
	rc.logger = e.logger().With(zap.String("run_id", rc.runID), zap.String("requirement_id", requirement.ID))

	defer func() {
		if recovered := recover(); recovered != nil {
			rc.status = pipeline.StatusUnknown
			rc.err = fmt.Errorf(panicErrorFormat, recovered)
			rc.logger.Error("run aborted", zap.Error(rc.err))
		}
		result = rc.freeze(started, now())
		e.observer().Finished(result)
		rc.logger.Info("run finished",
			zap.String("status", string(result.FinalStatus)),
			zap.Int("iterations", result.Iterations),
		)
	}()

	state := StateStart
	for state != StateDone {
		next := e.step(ctx, rc, state)
		rc.logger.Debug("transition", zap.Stringer("from", state), zap.Stringer("state", next))
		e.observer().Transition(state, next)
		state = next
	}
	return result
}

func (e Engine) step(ctx context.Context, rc *runContext, state State) State {
	if err := ctx.Err(); err != nil {
		return rc.finish(pipeline.StatusUnknown, err)
	}
	switch state {
	case StateStart:
		if e.Options.UseClarification && e.Clarifier != nil {
			return StateClarifying
		}
		return e.afterClarification()
	case StateClarifying:
		e.clarify(ctx, rc)
		return e.afterClarification()
	case StateElaborating:
		rc.designs = e.Elaborator.Elaborate(ctx, rc.requirement.Refined)
		return StateGenerating
	case StateGenerating:
		code, err := e.Generator.Generate(ctx, rc.requirement.Refined, rc.designs)
		if err != nil {
			return rc.finish(statusForGenerationFailure(err), err)
		}
		rc.code = code
		return StateVerifying
	case StateVerifying:
		return e.verify(ctx, rc)
	case StateRepairing:
		last := rc.reports[len(rc.reports)-1]
		repaired, err := e.Generator.Repair(ctx, rc.code, generate.Failure{
			Requirement:   rc.requirement.Refined,
			FailedOracles: last.FailedOracles(),
			Summary:       verify.Summarize(last, e.Options.SummaryLimit),
		})
		if err != nil {
			return rc.finish(statusForGenerationFailure(err), err)
		}
		rc.code = repaired
		return StateVerifying
	default:
		return rc.finish(pipeline.StatusUnknown, fmt.Errorf("unexpected state %s", state))
	}
}

func (e Engine) afterClarification() State {
	if e.Options.GenerateDesign && e.Elaborator != nil {
		return StateElaborating
	}
	return StateGenerating
}

// clarify never fails the run: every stage error is logged and the original
// requirement is kept. A question cap of zero asks nothing.
func (e Engine) clarify(ctx context.Context, rc *runContext) {
	if e.Options.MaxQuestions <= 0 {
		rc.logger.Debug("clarification skipped", zap.Int("max_questions", e.Options.MaxQuestions))
		return
	}
	questions, ambiguous, err := e.Clarifier.Clarify(ctx, rc.requirement.Original, e.Options.MaxQuestions)
	if err != nil {
		rc.logger.Warn("clarification failed", zap.Error(err))
		return
	}
	rc.questions = questions
	if !ambiguous || len(questions) == 0 || e.Answerer == nil {
		return
	}
	answers, err := e.Answerer.Answer(ctx, rc.requirement.Original, questions)
	if err != nil {
		rc.logger.Warn("answering clarification questions failed", zap.Error(err))
	}
	rc.answers = answers
	if len(answers) == 0 {
		return
	}
	refined, err := e.Clarifier.Refine(ctx, rc.requirement.Original, answers)
	if err != nil {
		rc.logger.Warn("refinement failed", zap.Error(err))
		return
	}
	rc.requirement.Refined = refined
}

func (e Engine) verify(ctx context.Context, rc *runContext) State {
	report := e.Verifier.Verify(ctx, rc.code.Code, rc.code.Tests)
	rc.iterations++
	report.Iteration = rc.iterations
	rc.reports = append(rc.reports, report)
	logger := rc.logger.With(zap.Int("iteration", rc.iterations))

	if len(report.Outcomes) == 0 {
		logger.Warn(noOraclesError)
		return rc.finish(pipeline.StatusUnknown, errors.New(noOraclesError))
	}
	if report.Passed() {
		logger.Info("verification passed")
		return rc.finish(pipeline.StatusSuccess, nil)
	}
	logger.Info("verification failed", zap.Strings("oracles", report.FailedOracles()))
	if rc.iterations < e.maxIterations() {
		return StateRepairing
	}
	return rc.finish(pipeline.StatusFailed, nil)
}

func (e Engine) maxIterations() int {
	if e.Options.MaxIterations < 1 {
		return defaultMaxIterations
	}
	return e.Options.MaxIterations
}

// statusForGenerationFailure maps a generate/repair error onto a terminal
// status: no extractable code fails the run, anything else is unknown.
func statusForGenerationFailure(err error) pipeline.Status {
	if pipeline.IsGenerationError(err) {
		return pipeline.StatusFailed
	}
	return pipeline.StatusUnknown
}

func (rc *runContext) finish(status pipeline.Status, err error) State {
	rc.status = status
	rc.err = err
	if err != nil {
		rc.logger.Warn("run ending", zap.String("status", string(status)), zap.Error(err))
	}
	return StateDone
}

func (rc *runContext) freeze(started time.Time, finished time.Time) pipeline.PipelineResult {
	result := pipeline.PipelineResult{
		RunID:                  rc.runID,
		RequirementID:          rc.requirement.ID,
		OriginalRequirement:    rc.requirement.Original,
		RefinedRequirement:     rc.requirement.Refined,
		ClarificationQuestions: rc.questions,
		ClarificationAnswers:   rc.answers,
		DesignArtifacts:        rc.designs,
		FinalCode:              rc.code,
		VerificationReports:    rc.reports,
		Iterations:             rc.iterations,
		FinalStatus:            rc.status,
		Metrics:                pipeline.ComputeMetrics(rc.reports, rc.iterations),
		StartedAt:              started,
		FinishedAt:             finished,
	}
	if rc.err != nil {
		result.Error = rc.err.Error()
	}
	return result
}

func (e Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func (e Engine) observer() Observer {
	if e.Observer == nil {
		return nopObserver{}
	}
	return e.Observer
}
