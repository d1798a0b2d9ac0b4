package verify

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxOutputLen caps how much tool output an outcome keeps.
const maxOutputLen = 8000

const truncatedMarker = "…(truncated)\n"

// ParseResult is the normalised view of one tool run.
type ParseResult struct {
	Errors   []string
	Warnings []string
}

// Parser turns raw tool output into errors and warnings.
type Parser interface {
	Parse(stdout string, stderr string, exitCode int) ParseResult
}

// PytestParser keeps failure lines and the final summary line.
type PytestParser struct{}

var pytestFailurePattern = regexp.MustCompile(`^(FAILED|ERROR)\s`)

func (PytestParser) Parse(stdout string, stderr string, exitCode int) ParseResult {
	var result ParseResult
	if exitCode == 0 {
		return result
	}
	for _, line := range strings.Split(combineOutput(stdout, stderr), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case pytestFailurePattern.MatchString(trimmed):
			result.Errors = append(result.Errors, trimmed)
		case strings.HasPrefix(trimmed, "E "):
			result.Errors = append(result.Errors, trimmed)
		case strings.Contains(trimmed, "Warning"):
			result.Warnings = append(result.Warnings, trimmed)
		}
	}
	return result
}

// PylintParser classifies messages by their category letter.
type PylintParser struct{}

var pylintMessagePattern = regexp.MustCompile(`^[^:]+:\d+:\d+: ([A-Z])\d{4}: `)

func (PylintParser) Parse(stdout string, stderr string, exitCode int) ParseResult {
	var result ParseResult
	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		match := pylintMessagePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		switch match[1] {
		case "E", "F":
			result.Errors = append(result.Errors, trimmed)
		case "W":
			result.Warnings = append(result.Warnings, trimmed)
		}
	}
	if len(result.Errors) == 0 && strings.TrimSpace(stderr) != "" && exitCode != 0 {
		result.Errors = append(result.Errors, strings.TrimSpace(stderr))
	}
	return result
}

// Flake8Parser treats every reported line as an error.
type Flake8Parser struct{}

func (Flake8Parser) Parse(stdout string, stderr string, exitCode int) ParseResult {
	var result ParseResult
	for _, line := range strings.Split(stdout, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result.Errors = append(result.Errors, trimmed)
		}
	}
	if len(result.Errors) == 0 && exitCode != 0 && strings.TrimSpace(stderr) != "" {
		result.Errors = append(result.Errors, strings.TrimSpace(stderr))
	}
	return result
}

func combineOutput(stdout string, stderr string) string {
	combined := stdout
	if stderr != "" {
		if combined != "" {
			combined += "\n"
		}
		combined += stderr
	}
	return combined
}

// keepTail keeps at most limit runes from the end, marker included.
// Tracebacks and summaries sit at the end.
func keepTail(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	room := limit - utf8.RuneCountInString(truncatedMarker)
	if room <= 0 {
		return string(runes[len(runes)-limit:])
	}
	return truncatedMarker + string(runes[len(runes)-room:])
}

// keepHead keeps at most limit runes from the start, marker included.
func keepHead(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	marker := "\n" + strings.TrimSuffix(truncatedMarker, "\n")
	room := limit - utf8.RuneCountInString(marker)
	if room <= 0 {
		return string(runes[:limit])
	}
	return string(runes[:room]) + marker
}
