package orchestrator

import (
	"context"

	"github.com/temirov/clarify-verify/internal/generate"
	"github.com/temirov/clarify-verify/internal/pipeline"
)

// Stage capabilities the engine is built from. Implementations are chosen at
// construction and must be safe to share between concurrent runs.

type Clarifier interface {
	Clarify(ctx context.Context, requirement string, maxQuestions int) ([]pipeline.ClarificationQuestion, bool, error)
	Refine(ctx context.Context, requirement string, answers []pipeline.ClarificationAnswer) (string, error)
}

type Answerer interface {
	Answer(ctx context.Context, requirement string, questions []pipeline.ClarificationQuestion) ([]pipeline.ClarificationAnswer, error)
}

type Elaborator interface {
	Elaborate(ctx context.Context, refined string) []pipeline.DesignArtifact
}

type Generator interface {
	Generate(ctx context.Context, refined string, designs []pipeline.DesignArtifact) (pipeline.CodeArtifact, error)
	Repair(ctx context.Context, previous pipeline.CodeArtifact, failure generate.Failure) (pipeline.CodeArtifact, error)
}

type Verifier interface {
	Verify(ctx context.Context, code string, tests string) pipeline.VerificationReport
}

// Observer is notified of state transitions and finished runs.
type Observer interface {
	Transition(from State, to State)
	Finished(result pipeline.PipelineResult)
}

type nopObserver struct{}

func (nopObserver) Transition(State, State)          {}
func (nopObserver) Finished(pipeline.PipelineResult) {}
