package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const maxListedFailures = 10

type Coverage struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Coverage float64 `json:"coverage"`
}

type Summary struct {
	TotalRequirements    int      `json:"total_requirements"`
	PassRate             float64  `json:"pass_rate"`
	AverageIterations    float64  `json:"average_iterations"`
	TestPassRate         float64  `json:"test_pass_rate"`
	LinterPassRate       float64  `json:"linter_pass_rate"`
	VerificationCoverage Coverage `json:"verification_coverage"`
}

// Analysis is the aggregate view of a set of results.
type Analysis struct {
	Summary       Summary  `json:"summary"`
	FailedCases   int      `json:"failed_cases"`
	FailedCaseIDs []string `json:"failed_case_ids"`
	SuccessCases  []string `json:"success_cases"`
}

// Analyze computes Pass@1 style rates over results. Anything not marked
// success counts as failed. Rates over an empty set are zero.
func Analyze(results []pipeline.PipelineResult) Analysis {
	analysis := Analysis{
		Summary:       Summary{TotalRequirements: len(results)},
		FailedCaseIDs: []string{},
		SuccessCases:  []string{},
	}
	if len(results) == 0 {
		return analysis
	}

	var passed, iterations, testsPassed, linterPassed int
	for _, result := range results {
		iterations += result.Iterations
		if result.Metrics.TestsPassed {
			testsPassed++
		}
		if result.Metrics.LinterPassed {
			linterPassed++
		}
		analysis.Summary.VerificationCoverage.Total += result.Metrics.TotalVerifications
		analysis.Summary.VerificationCoverage.Passed += result.Metrics.PassedVerifications
		if result.FinalStatus == pipeline.StatusSuccess {
			passed++
			analysis.SuccessCases = append(analysis.SuccessCases, result.RequirementID)
		} else {
			analysis.FailedCaseIDs = append(analysis.FailedCaseIDs, result.RequirementID)
		}
	}

	total := float64(len(results))
	analysis.Summary.PassRate = float64(passed) / total
	analysis.Summary.AverageIterations = float64(iterations) / total
	analysis.Summary.TestPassRate = float64(testsPassed) / total
	analysis.Summary.LinterPassRate = float64(linterPassed) / total
	if coverage := &analysis.Summary.VerificationCoverage; coverage.Total > 0 {
		coverage.Coverage = float64(coverage.Passed) / float64(coverage.Total)
	}
	analysis.FailedCases = len(analysis.FailedCaseIDs)
	return analysis
}

// Print writes a human-readable report.
func Print(w io.Writer, analysis Analysis) error {
	summary := analysis.Summary
	var b strings.Builder
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(&b, "%s\nRESULTS ANALYSIS\n%s\n", rule, rule)
	fmt.Fprintf(&b, "Total requirements: %d\n", summary.TotalRequirements)
	fmt.Fprintf(&b, "Pass rate (Pass@1): %.2f%%\n", summary.PassRate*100)
	fmt.Fprintf(&b, "Average iterations: %.2f\n", summary.AverageIterations)
	fmt.Fprintf(&b, "Test pass rate: %.2f%%\n", summary.TestPassRate*100)
	fmt.Fprintf(&b, "Linter pass rate: %.2f%%\n", summary.LinterPassRate*100)
	fmt.Fprintf(&b, "\nVerification coverage:\n  Total: %d\n  Passed: %d\n  Coverage: %.2f%%\n",
		summary.VerificationCoverage.Total, summary.VerificationCoverage.Passed, summary.VerificationCoverage.Coverage*100)
	fmt.Fprintf(&b, "\nFailed cases: %d\n", analysis.FailedCases)
	if ids := analysis.FailedCaseIDs; len(ids) > 0 {
		shown := ids
		if len(shown) > maxListedFailures {
			shown = shown[:maxListedFailures]
		}
		fmt.Fprintf(&b, "IDs: %s\n", strings.Join(shown, ", "))
		if rest := len(ids) - len(shown); rest > 0 {
			fmt.Fprintf(&b, "... and %d more\n", rest)
		}
	}
	fmt.Fprintf(&b, "%s\n", rule)
	_, err := io.WriteString(w, b.String())
	return err
}
