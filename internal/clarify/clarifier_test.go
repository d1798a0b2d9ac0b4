package clarify

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/temirov/clarify-verify/internal/llm"
	"github.com/temirov/clarify-verify/internal/pipeline"
	"github.com/temirov/clarify-verify/internal/prompts"
)

func newClarifier(t *testing.T, client pipeline.LLMClient) Clarifier {
	return Clarifier{Client: client, Prompts: prompts.Default(), Logger: zaptest.NewLogger(t)}
}

func TestParseQuestions(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  []pipeline.ClarificationQuestion
		expectErr bool
	}{
		{
			name: "json wrapped in prose",
			raw:  "Sure!\n{\"ambiguous\": true, \"questions\": [{\"question\": \"Sort order?\", \"priority\": \"Required\", \"reason\": \"unclear\"}, {\"question\": \"Stable?\", \"priority\": \"nice\"}]}\nThanks",
			expected: []pipeline.ClarificationQuestion{
				{Text: "Sort order?", Priority: pipeline.PriorityRequired, Rationale: "unclear"},
				{Text: "Stable?", Priority: pipeline.PriorityDesirable},
			},
		},
		{
			name:     "json without questions",
			raw:      `{"ambiguous": false, "questions": []}`,
			expected: []pipeline.ClarificationQuestion{},
		},
		{
			name: "line fallback",
			raw:  "1. Q: What encoding?\n   Priority: mandatory\n   Reason: bytes vs text\nQuestion: Max size?",
			expected: []pipeline.ClarificationQuestion{
				{Text: "What encoding?", Priority: pipeline.PriorityRequired, Rationale: "bytes vs text"},
				{Text: "Max size?", Priority: pipeline.PriorityDesirable},
			},
		},
		{
			name:      "prose only",
			raw:       "The requirement looks fine to me.",
			expectErr: true,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			questions, err := ParseQuestions(testCase.raw)
			if testCase.expectErr {
				var parseErr *pipeline.ParseError
				require.ErrorAs(t, err, &parseErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(testCase.expected, questions); diff != "" {
				t.Fatalf("questions mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClarifyTruncatesAndDetectsAmbiguity(t *testing.T) {
	mock := llm.NewMockClient().Script(llm.MockRoute{Response: `{"questions": [{"question": "a"}, {"question": "b"}, {"question": "c"}]}`})
	questions, ambiguous, err := newClarifier(t, mock).Clarify(context.Background(), "do things", 2)
	require.NoError(t, err)
	require.True(t, ambiguous)
	require.Len(t, questions, 2)
	require.Equal(t, "b", questions[1].Text)
	require.Contains(t, mock.Requests()[0].UserPrompt, "do things")
}

func TestClarifyRecoversFromUnparseableOutput(t *testing.T) {
	mock := llm.NewMockClient().Script(llm.MockRoute{Response: "no idea"})
	questions, ambiguous, err := newClarifier(t, mock).Clarify(context.Background(), "req", 3)
	require.NoError(t, err)
	require.False(t, ambiguous)
	require.Empty(t, questions)
}

func TestClarifyReturnsBackendErrors(t *testing.T) {
	mock := llm.NewMockClient().Script(llm.MockRoute{Err: errors.New("unauthorized")})
	_, _, err := newClarifier(t, mock).Clarify(context.Background(), "req", 3)
	require.True(t, pipeline.IsBackendError(err))
}

func TestRefineWithoutAnswersSkipsBackend(t *testing.T) {
	mock := llm.NewMockClient()
	refined, err := newClarifier(t, mock).Refine(context.Background(), "original", nil)
	require.NoError(t, err)
	require.Equal(t, "original", refined)
	require.Empty(t, mock.Requests())
}

func TestRefineEmbedsAnswersAndTrims(t *testing.T) {
	mock := llm.NewMockClient().Script(llm.MockRoute{Response: "  refined text \n"})
	answers := []pipeline.ClarificationAnswer{{Question: pipeline.ClarificationQuestion{Text: "Order?"}, Text: "Ascending"}}
	refined, err := newClarifier(t, mock).Refine(context.Background(), "sort", answers)
	require.NoError(t, err)
	require.Equal(t, "refined text", refined)
	require.Contains(t, mock.Requests()[0].UserPrompt, "Q: Order?\nA: Ascending")
}

func TestRefineEmptyResponseKeepsOriginal(t *testing.T) {
	mock := llm.NewMockClient().Script(llm.MockRoute{Response: "   "})
	answers := []pipeline.ClarificationAnswer{{Question: pipeline.ClarificationQuestion{Text: "q"}, Text: "a"}}
	refined, err := newClarifier(t, mock).Refine(context.Background(), "sort", answers)
	require.NoError(t, err)
	require.Equal(t, "sort", refined)
}

func TestSimulatedAnswererOneCallPerQuestion(t *testing.T) {
	mock := llm.NewMockClient().Script(llm.MockRoute{Response: "first"}, llm.MockRoute{Response: ""})
	questions := []pipeline.ClarificationQuestion{{Text: "q1", Priority: pipeline.PriorityRequired}, {Text: "q2"}}
	answers, err := SimulatedAnswerer{Client: mock, Prompts: prompts.Default()}.Answer(context.Background(), "req", questions)
	require.NoError(t, err)
	require.Len(t, mock.Requests(), 2)
	require.Equal(t, []pipeline.ClarificationAnswer{{Question: questions[0], Text: "first"}}, answers)
}

func TestInteractiveAnswererReadsLines(t *testing.T) {
	questions := []pipeline.ClarificationQuestion{
		{Text: "q1", Priority: pipeline.PriorityRequired, Rationale: "why"},
		{Text: "q2", Priority: pipeline.PriorityDesirable},
		{Text: "q3", Priority: pipeline.PriorityDesirable},
	}
	var out bytes.Buffer
	answerer := NewInteractiveAnswerer(strings.NewReader("yes\n\nthird\n"), &out)
	answers, err := answerer.Answer(context.Background(), "req", questions)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	require.Equal(t, "third", answers[1].Text)
	require.Equal(t, "q3", answers[1].Question.Text)
	require.Contains(t, out.String(), "(required) q1")
	require.Contains(t, out.String(), "reason: why")
}

func TestInteractiveAnswererContinuesAcrossRequirements(t *testing.T) {
	answerer := NewInteractiveAnswerer(strings.NewReader("answer one\nanswer two\nlast without newline"), io.Discard)
	question := []pipeline.ClarificationQuestion{{Text: "q", Priority: pipeline.PriorityRequired}}

	first, err := answerer.Answer(context.Background(), "first requirement", question)
	require.NoError(t, err)
	second, err := answerer.Answer(context.Background(), "second requirement", question)
	require.NoError(t, err)
	third, err := answerer.Answer(context.Background(), "third requirement", question)
	require.NoError(t, err)
	exhausted, err := answerer.Answer(context.Background(), "fourth requirement", question)
	require.NoError(t, err)

	require.Equal(t, []pipeline.ClarificationAnswer{{Question: question[0], Text: "answer one"}}, first)
	require.Equal(t, []pipeline.ClarificationAnswer{{Question: question[0], Text: "answer two"}}, second)
	require.Equal(t, []pipeline.ClarificationAnswer{{Question: question[0], Text: "last without newline"}}, third)
	require.Empty(t, exhausted)
}

func TestNoAnswerer(t *testing.T) {
	answers, err := NoAnswerer{}.Answer(context.Background(), "req", []pipeline.ClarificationQuestion{{Text: "q"}})
	require.NoError(t, err)
	require.Empty(t, answers)
}
