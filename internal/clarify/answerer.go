package clarify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/prompts"
)

const (
	AnswerModeSimulate    = "simulate"
	AnswerModeInteractive = "interactive"
	AnswerModeNone        = "none"

	answerOperation = "answer"
)

// Answerer produces one answer per question, in question order. Questions it
// cannot answer are skipped.
type Answerer interface {
	Answer(ctx context.Context, requirement string, questions []pipeline.ClarificationQuestion) ([]pipeline.ClarificationAnswer, error)
}

// NoAnswerer never answers, which makes refinement a no-op.
type NoAnswerer struct{}

func (NoAnswerer) Answer(context.Context, string, []pipeline.ClarificationQuestion) ([]pipeline.ClarificationAnswer, error) {
	return nil, nil
}

// SimulatedAnswerer asks the backend to play the stakeholder, one call per
// question.
type SimulatedAnswerer struct {
	Client  pipeline.LLMClient
	Prompts prompts.Set
	Model   string
	Logger  *zap.Logger
}

func (a SimulatedAnswerer) Answer(ctx context.Context, requirement string, questions []pipeline.ClarificationQuestion) ([]pipeline.ClarificationAnswer, error) {
	answers := make([]pipeline.ClarificationAnswer, 0, len(questions))
	for _, question := range questions {
		system, user, err := a.Prompts.Render(prompts.Answer, prompts.Vars{
			"requirement": requirement,
			"question":    question.Text,
			"priority":    string(question.Priority),
		})
		if err != nil {
			return answers, err
		}
		resp, err := a.Client.Chat(ctx, pipeline.LLMRequest{SystemPrompt: system, UserPrompt: user, Model: a.Model})
		if err != nil {
			return answers, wrapBackend(answerOperation, err)
		}
		text := strings.TrimSpace(resp.RawText)
		if text == "" {
			if a.Logger != nil {
				a.Logger.Debug("empty simulated answer", zap.String("question", question.Text))
			}
			continue
		}
		answers = append(answers, pipeline.ClarificationAnswer{Question: question, Text: text})
	}
	return answers, nil
}

// InteractiveAnswerer prompts a person on Out and reads one line per answer
// from In. A blank line skips the question. One answerer owns its input for
// the whole process, so consecutive requirements read consecutive lines.
type InteractiveAnswerer struct {
	in  *bufio.Reader
	out io.Writer
	mu  sync.Mutex
}

func NewInteractiveAnswerer(in io.Reader, out io.Writer) *InteractiveAnswerer {
	return &InteractiveAnswerer{in: bufio.NewReader(in), out: out}
}

func (a *InteractiveAnswerer) Answer(ctx context.Context, _ string, questions []pipeline.ClarificationQuestion) ([]pipeline.ClarificationAnswer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	answers := make([]pipeline.ClarificationAnswer, 0, len(questions))
	for idx, question := range questions {
		if err := ctx.Err(); err != nil {
			return answers, err
		}
		if _, err := fmt.Fprintf(a.out, "\n[%d/%d] (%s) %s\n", idx+1, len(questions), question.Priority, question.Text); err != nil {
			return answers, err
		}
		if question.Rationale != "" {
			_, _ = fmt.Fprintf(a.out, "    reason: %s\n", question.Rationale)
		}
		_, _ = fmt.Fprint(a.out, "> ")
		line, err := a.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return answers, err
		}
		if text := strings.TrimSpace(line); text != "" {
			answers = append(answers, pipeline.ClarificationAnswer{Question: question, Text: text})
		}
		if err != nil {
			return answers, nil
		}
	}
	return answers, nil
}
