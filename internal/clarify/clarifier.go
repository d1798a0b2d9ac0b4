// Package clarify asks the backend for clarification questions and folds the
// answers back into the requirement.
package clarify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/prompts"
)

const (
	clarifyOperation = "clarify"
	refineOperation  = "refine"
)

type Clarifier struct {
	Client      pipeline.LLMClient
	Prompts     prompts.Set
	Model       string
	Temperature float64
	Logger      *zap.Logger
}

// Clarify returns at most maxQuestions questions and whether the requirement
// was judged ambiguous. Unparseable output yields no questions and no error.
func (c Clarifier) Clarify(ctx context.Context, requirement string, maxQuestions int) ([]pipeline.ClarificationQuestion, bool, error) {
	if maxQuestions <= 0 {
		return nil, false, nil
	}
	system, user, err := c.Prompts.Render(prompts.Clarify, prompts.Vars{
		"requirement":   requirement,
		"max_questions": fmt.Sprint(maxQuestions),
	})
	if err != nil {
		return nil, false, err
	}
	resp, err := c.Client.Chat(ctx, pipeline.LLMRequest{SystemPrompt: system, UserPrompt: user, Model: c.Model, Temperature: c.Temperature})
	if err != nil {
		return nil, false, wrapBackend(clarifyOperation, err)
	}
	questions, parseErr := ParseQuestions(resp.RawText)
	if parseErr != nil {
		c.logger().Warn("clarification output not understood", zap.Error(parseErr))
		return nil, false, nil
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return questions, len(questions) > 0, nil
}

// Refine folds answers into the requirement. Without answers the requirement
// is returned unchanged and the backend is not called.
func (c Clarifier) Refine(ctx context.Context, requirement string, answers []pipeline.ClarificationAnswer) (string, error) {
	if len(answers) == 0 {
		return requirement, nil
	}
	system, user, err := c.Prompts.Render(prompts.Refine, prompts.Vars{
		"requirement": requirement,
		"answers":     FormatAnswers(answers),
	})
	if err != nil {
		return requirement, err
	}
	resp, err := c.Client.Chat(ctx, pipeline.LLMRequest{SystemPrompt: system, UserPrompt: user, Model: c.Model, Temperature: c.Temperature})
	if err != nil {
		return requirement, wrapBackend(refineOperation, err)
	}
	refined := strings.TrimSpace(resp.RawText)
	if refined == "" {
		return requirement, nil
	}
	return refined, nil
}

// FormatAnswers renders answers as Q:/A: pairs in question order.
func FormatAnswers(answers []pipeline.ClarificationAnswer) string {
	var sb strings.Builder
	for idx, answer := range answers {
		if idx > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("Q: ")
		sb.WriteString(answer.Question.Text)
		sb.WriteString("\nA: ")
		sb.WriteString(answer.Text)
	}
	return sb.String()
}

func (c Clarifier) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func wrapBackend(operation string, err error) error {
	if pipeline.IsBackendError(err) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return &pipeline.BackendError{Operation: operation, Err: err}
}
