package analysis_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/temirov/clarify-verify/internal/analysis"
	"github.com/temirov/clarify-verify/internal/pipeline"
)

func result(id string, status pipeline.Status, iterations int, tests, linter bool, total, passed int) pipeline.PipelineResult {
	return pipeline.PipelineResult{
		RequirementID: id,
		FinalStatus:   status,
		Iterations:    iterations,
		Metrics: pipeline.Metrics{
			Iterations:          iterations,
			TestsPassed:         tests,
			LinterPassed:        linter,
			TotalVerifications:  total,
			PassedVerifications: passed,
		},
	}
}

func TestAnalyze(t *testing.T) {
	got := analysis.Analyze([]pipeline.PipelineResult{
		result("a", pipeline.StatusSuccess, 1, true, true, 2, 2),
		result("b", pipeline.StatusFailed, 3, false, true, 2, 1),
		result("c", pipeline.StatusUnknown, 0, false, false, 0, 0),
		result("d", pipeline.StatusSuccess, 2, true, true, 2, 2),
	})

	want := analysis.Analysis{
		Summary: analysis.Summary{
			TotalRequirements:    4,
			PassRate:             0.5,
			AverageIterations:    1.5,
			TestPassRate:         0.5,
			LinterPassRate:       0.75,
			VerificationCoverage: analysis.Coverage{Total: 6, Passed: 5, Coverage: 5.0 / 6.0},
		},
		FailedCases:   2,
		FailedCaseIDs: []string{"b", "c"},
		SuccessCases:  []string{"a", "d"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("analysis mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	got := analysis.Analyze(nil)
	require.Zero(t, got.Summary.TotalRequirements)
	require.Zero(t, got.Summary.PassRate)
	require.Zero(t, got.Summary.VerificationCoverage.Coverage)
	require.Empty(t, got.FailedCaseIDs)
	require.NotNil(t, got.FailedCaseIDs)
}

func TestPrintTruncatesFailedIDs(t *testing.T) {
	var results []pipeline.PipelineResult
	for index := 0; index < 12; index++ {
		results = append(results, result(fmt.Sprintf("r%02d", index), pipeline.StatusFailed, 1, false, false, 1, 0))
	}
	var out strings.Builder
	require.NoError(t, analysis.Print(&out, analysis.Analyze(results)))

	text := out.String()
	require.Contains(t, text, "Total requirements: 12")
	require.Contains(t, text, "Pass rate (Pass@1): 0.00%")
	require.Contains(t, text, "IDs: r00, r01")
	require.NotContains(t, text, "r10")
	require.Contains(t, text, "... and 2 more")
}
