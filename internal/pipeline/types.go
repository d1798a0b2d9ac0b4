package pipeline

import (
	"strings"
	"time"
)

// Priority tags a clarification question.
type Priority string

const (
	PriorityRequired  Priority = "required"
	PriorityDesirable Priority = "desirable"
)

// ParsePriority maps free-form model output onto a Priority.
// Anything that is not recognisably mandatory is desirable.
func ParsePriority(raw string) Priority {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(normalized, "required"),
		strings.HasPrefix(normalized, "mandatory"),
		strings.HasPrefix(normalized, "must"),
		strings.HasPrefix(normalized, "obrigat"):
		return PriorityRequired
	default:
		return PriorityDesirable
	}
}

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusUnknown Status = "unknown"
)

// Oracle names used in reports and metrics.
const (
	OracleTests  = "tests"
	OracleLinter = "linter"
	OracleFormal = "formal"
)

// Requirement holds the original text and its refined form.
type Requirement struct {
	ID       string `json:"id"`
	Original string `json:"original"`
	Refined  string `json:"refined"`
}

// NewRequirement returns a requirement whose refined text equals the original.
func NewRequirement(id string, text string) Requirement {
	return Requirement{ID: id, Original: text, Refined: text}
}

type ClarificationQuestion struct {
	Text      string   `json:"question"`
	Priority  Priority `json:"priority"`
	Rationale string   `json:"reason,omitempty"`
}

// ClarificationAnswer is bound to the question it answers.
type ClarificationAnswer struct {
	Question ClarificationQuestion `json:"question"`
	Text     string                `json:"answer"`
}

const (
	DesignKindSequence = "sequence"
	DesignKindClass    = "class"
)

type DesignArtifact struct {
	Kind          string `json:"type"`
	Specification string `json:"plantuml_code"`
	Description   string `json:"description"`
	Requirement   string `json:"requirement"`
}

// CodeArtifact is one generated (code, tests) pair. Version 0 is the first
// generation; every repair produces Version+1.
type CodeArtifact struct {
	Version     int    `json:"version"`
	Language    string `json:"language"`
	Code        string `json:"code"`
	Tests       string `json:"tests"`
	Explanation string `json:"explanation,omitempty"`
}

type VerificationOutcome struct {
	Oracle     string   `json:"tool"`
	Passed     bool     `json:"passed"`
	Diagnostic string   `json:"output"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	DurationMs int64    `json:"duration_ms"`
}

type VerificationReport struct {
	Iteration int                   `json:"iteration"`
	Outcomes  []VerificationOutcome `json:"results"`
}

// Passed is the aggregate verdict: at least one enabled oracle ran and every
// one of them passed.
func (r VerificationReport) Passed() bool {
	if len(r.Outcomes) == 0 {
		return false
	}
	for _, outcome := range r.Outcomes {
		if !outcome.Passed {
			return false
		}
	}
	return true
}

// Outcome returns the outcome recorded for the named oracle.
func (r VerificationReport) Outcome(oracle string) (VerificationOutcome, bool) {
	for _, outcome := range r.Outcomes {
		if outcome.Oracle == oracle {
			return outcome, true
		}
	}
	return VerificationOutcome{}, false
}

// FailedOracles lists failing oracle names in report order.
func (r VerificationReport) FailedOracles() []string {
	var failed []string
	for _, outcome := range r.Outcomes {
		if !outcome.Passed {
			failed = append(failed, outcome.Oracle)
		}
	}
	return failed
}

type Metrics struct {
	Iterations          int  `json:"iterations"`
	TestsPassed         bool `json:"tests_passed"`
	LinterPassed        bool `json:"linter_passed"`
	TotalVerifications  int  `json:"total_verifications"`
	PassedVerifications int  `json:"passed_verifications"`
}

// ComputeMetrics summarises the last report of a run.
func ComputeMetrics(reports []VerificationReport, iterations int) Metrics {
	metrics := Metrics{Iterations: iterations}
	if len(reports) == 0 {
		return metrics
	}
	last := reports[len(reports)-1]
	for _, outcome := range last.Outcomes {
		metrics.TotalVerifications++
		if outcome.Passed {
			metrics.PassedVerifications++
		}
		switch outcome.Oracle {
		case OracleTests:
			metrics.TestsPassed = outcome.Passed
		case OracleLinter:
			metrics.LinterPassed = outcome.Passed
		}
	}
	return metrics
}

// PipelineResult is the frozen record of one requirement's run.
type PipelineResult struct {
	RunID                  string                  `json:"run_id"`
	RequirementID          string                  `json:"requirement_id"`
	OriginalRequirement    string                  `json:"original_requirement"`
	RefinedRequirement     string                  `json:"refined_requirement"`
	ClarificationQuestions []ClarificationQuestion `json:"clarification_questions"`
	ClarificationAnswers   []ClarificationAnswer   `json:"clarification_answers,omitempty"`
	DesignArtifacts        []DesignArtifact        `json:"uml_diagrams"`
	FinalCode              CodeArtifact            `json:"final_code"`
	VerificationReports    []VerificationReport    `json:"verification_results"`
	Iterations             int                     `json:"iterations"`
	FinalStatus            Status                  `json:"final_status"`
	Metrics                Metrics                 `json:"metrics"`
	Error                  string                  `json:"error,omitempty"`
	StartedAt              time.Time               `json:"started_at"`
	FinishedAt             time.Time               `json:"finished_at"`
}

// LastReport returns the most recent verification report, if any.
func (r PipelineResult) LastReport() (VerificationReport, bool) {
	if len(r.VerificationReports) == 0 {
		return VerificationReport{}, false
	}
	return r.VerificationReports[len(r.VerificationReports)-1], true
}
