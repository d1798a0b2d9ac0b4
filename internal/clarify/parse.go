package clarify

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

var errNoQuestions = errors.New("no questions found")

type questionsPayload struct {
	Ambiguous *bool `json:"ambiguous"`
	Questions []struct {
		Question string `json:"question"`
		Priority string `json:"priority"`
		Reason   string `json:"reason"`
	} `json:"questions"`
}

// ParseQuestions reads questions from a completion. The outermost JSON object
// is tried first, then Q:/Question: lines. The returned error is a
// *pipeline.ParseError when neither form yields a question.
func ParseQuestions(raw string) ([]pipeline.ClarificationQuestion, error) {
	questions, jsonErr := parseJSONQuestions(raw)
	if jsonErr == nil {
		return questions, nil
	}
	questions = parseLineQuestions(raw)
	if len(questions) > 0 {
		return questions, nil
	}
	return nil, &pipeline.ParseError{Subject: "clarification questions", Err: jsonErr}
}

func parseJSONQuestions(raw string) ([]pipeline.ClarificationQuestion, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, errNoQuestions
	}
	var payload questionsPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, err
	}
	questions := make([]pipeline.ClarificationQuestion, 0, len(payload.Questions))
	for _, item := range payload.Questions {
		text := strings.TrimSpace(item.Question)
		if text == "" {
			continue
		}
		questions = append(questions, pipeline.ClarificationQuestion{
			Text:      text,
			Priority:  pipeline.ParsePriority(item.Priority),
			Rationale: strings.TrimSpace(item.Reason),
		})
	}
	return questions, nil
}

var (
	questionPrefixes  = []string{"q:", "question:"}
	priorityPrefixes  = []string{"priority:"}
	rationalePrefixes = []string{"reason:", "rationale:"}
)

func parseLineQuestions(raw string) []pipeline.ClarificationQuestion {
	var (
		questions []pipeline.ClarificationQuestion
		current   *pipeline.ClarificationQuestion
	)
	flush := func() {
		if current != nil && current.Text != "" {
			questions = append(questions, *current)
		}
		current = nil
	}
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimLeft(strings.TrimSpace(line), "-*0123456789. ")
		if value, ok := cutPrefix(trimmed, questionPrefixes); ok {
			flush()
			current = &pipeline.ClarificationQuestion{Text: value, Priority: pipeline.PriorityDesirable}
			continue
		}
		if current == nil {
			continue
		}
		if value, ok := cutPrefix(trimmed, priorityPrefixes); ok {
			current.Priority = pipeline.ParsePriority(value)
			continue
		}
		if value, ok := cutPrefix(trimmed, rationalePrefixes); ok {
			current.Rationale = value
		}
	}
	flush()
	return questions
}

func cutPrefix(line string, prefixes []string) (string, bool) {
	lower := strings.ToLower(line)
	for _, prefix := range prefixes {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}
