package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/clarify-verify/internal/generate"
	"github.com/temirov/clarify-verify/internal/llm"
	"github.com/temirov/clarify-verify/internal/pipeline"
)

// selectiveGenerator panics for requirements containing "explode" and
// delegates everything else.
type selectiveGenerator struct {
	delegate Generator
}

func (s selectiveGenerator) Generate(ctx context.Context, refined string, designs []pipeline.DesignArtifact) (pipeline.CodeArtifact, error) {
	if strings.Contains(refined, "explode") {
		panic("boom")
	}
	return s.delegate.Generate(ctx, refined, designs)
}

func (s selectiveGenerator) Repair(ctx context.Context, previous pipeline.CodeArtifact, failure generate.Failure) (pipeline.CodeArtifact, error) {
	return s.delegate.Repair(ctx, previous, failure)
}

func TestRunBatchKeepsOrderAndIsolatesFailures(t *testing.T) {
	engine, observer := newEngine(t, llm.NewMockClient(), oracleVerifier(
		stubOracle{name: pipeline.OracleTests, passed: always(true)},
	), Options{MaxIterations: 2})
	engine.Generator = selectiveGenerator{delegate: engine.Generator}
	var mu sync.Mutex
	ids := 0
	engine.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		ids++
		return "run-" + strings.Repeat("x", ids)
	}

	requirements := []pipeline.Requirement{
		pipeline.NewRequirement("a", "sort numbers"),
		pipeline.NewRequirement("b", "explode please"),
		pipeline.NewRequirement("c", "reverse a string"),
		pipeline.NewRequirement("d", "sum values"),
	}
	results := engine.RunBatch(context.Background(), requirements, 3)

	require.Len(t, results, len(requirements))
	for idx, result := range results {
		require.Equal(t, requirements[idx].ID, result.RequirementID)
	}
	require.Equal(t, pipeline.StatusSuccess, results[0].FinalStatus)
	require.Equal(t, pipeline.StatusUnknown, results[1].FinalStatus)
	require.Contains(t, results[1].Error, "boom")
	require.Equal(t, pipeline.StatusSuccess, results[2].FinalStatus)
	require.Equal(t, pipeline.StatusSuccess, results[3].FinalStatus)
	require.Equal(t, len(requirements), observer.finished)

	seen := map[string]bool{}
	for _, result := range results {
		require.False(t, seen[result.RunID], "run ids must be unique")
		seen[result.RunID] = true
	}
}

func TestRunBatchEmptyAndSingleWorker(t *testing.T) {
	engine, _ := newEngine(t, llm.NewMockClient(), oracleVerifier(
		stubOracle{name: pipeline.OracleTests, passed: always(true)},
	), Options{})
	require.Empty(t, engine.RunBatch(context.Background(), nil, 0))

	results := engine.RunBatch(context.Background(), []pipeline.Requirement{pipeline.NewRequirement("only", "sort")}, 0)
	require.Len(t, results, 1)
	require.Equal(t, pipeline.StatusSuccess, results[0].FinalStatus)
}
