package verify

import (
	"strings"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

const (
	DefaultSummaryLimit = 4000

	summaryErrorCount   = 3
	diagnosticTailLimit = 600
)

// Summarize describes every failed outcome as "[oracle] excerpt" for a repair
// prompt. Each oracle gets an equal share of limit and the whole is capped at
// limit. Passed reports summarise to "".
func Summarize(report pipeline.VerificationReport, limit int) string {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	var failed []pipeline.VerificationOutcome
	for _, outcome := range report.Outcomes {
		if !outcome.Passed {
			failed = append(failed, outcome)
		}
	}
	if len(failed) == 0 {
		return ""
	}
	perOracle := limit / len(failed)
	blocks := make([]string, 0, len(failed))
	for _, outcome := range failed {
		blocks = append(blocks, keepHead("["+outcome.Oracle+"] "+excerpt(outcome), perOracle))
	}
	return keepHead(strings.Join(blocks, "\n\n"), limit)
}

func excerpt(outcome pipeline.VerificationOutcome) string {
	var lines []string
	for _, line := range outcome.Errors {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
		if len(lines) == summaryErrorCount {
			break
		}
	}
	if len(lines) > 0 {
		return strings.Join(lines, "\n")
	}
	diagnostic := strings.TrimSpace(outcome.Diagnostic)
	if diagnostic == "" {
		return "failed without output"
	}
	return keepTail(diagnostic, diagnosticTailLimit)
}
