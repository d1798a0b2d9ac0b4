package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/temirov/clarify-verify/internal/pipeline"
)

// MockRoute answers any prompt containing Keyword (case-insensitive).
type MockRoute struct {
	Keyword  string
	Response string
	Err      error
}

// MockClient is a deterministic backend. Scripted responses are consumed in
// order first; after that the first matching route answers, then Fallback.
type MockClient struct {
	Routes   []MockRoute
	Fallback string

	mu       sync.Mutex
	script   []MockRoute
	requests []pipeline.LLMRequest
}

const (
	mockClarifyResponse = `{"ambiguous": true, "questions": [{"question": "What should happen when the input is empty?", "priority": "required", "reason": "Edge case behaviour is unspecified"}]}`
	mockAnswerResponse  = "Return an empty result without raising an error."
	mockDiagramResponse = "```plantuml\n@startuml\nactor User\nUser -> Solution : call\nSolution --> User : result\n@enduml\n```\nThe caller invokes the solution and receives the result."
	mockCodeResponse    = "```python\ndef solve(values):\n    return sorted(values)\n```\n\n```python test\nfrom solution import solve\n\n\ndef test_solve_sorts():\n    assert solve([3, 1, 2]) == [1, 2, 3]\n\n\ndef test_solve_empty():\n    assert solve([]) == []\n```\nSorts the input values."
)

// NewMockClient returns a mock whose routes drive a full run to completion.
func NewMockClient() *MockClient {
	return &MockClient{
		Routes: []MockRoute{
			// Empty refinement keeps the original requirement.
			{Keyword: "refine the requirement", Response: ""},
			{Keyword: "answer the clarification question", Response: mockAnswerResponse},
			{Keyword: "clarification questions", Response: mockClarifyResponse},
			{Keyword: "class diagram", Response: "NOT APPLICABLE"},
			{Keyword: "sequence diagram", Response: mockDiagramResponse},
			{Keyword: "repair", Response: mockCodeResponse},
			{Keyword: "implement", Response: mockCodeResponse},
		},
		Fallback: "mock response",
	}
}

// Script queues responses that take precedence over routes.
func (m *MockClient) Script(responses ...MockRoute) *MockClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, responses...)
	return m
}

// Requests returns a copy of every request received so far.
func (m *MockClient) Requests() []pipeline.LLMRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pipeline.LLMRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockClient) Chat(ctx context.Context, req pipeline.LLMRequest) (pipeline.LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.LLMResponse{}, &pipeline.BackendError{Operation: chatOperation, Err: err}
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var route *MockRoute
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		route = &next
	}
	m.mu.Unlock()

	if route == nil {
		route = m.match(req)
	}
	if route == nil {
		return pipeline.LLMResponse{RawText: m.Fallback}, nil
	}
	if route.Err != nil {
		var backendErr *pipeline.BackendError
		if errors.As(route.Err, &backendErr) {
			return pipeline.LLMResponse{}, route.Err
		}
		return pipeline.LLMResponse{}, &pipeline.BackendError{Operation: chatOperation, Err: route.Err}
	}
	return pipeline.LLMResponse{RawText: route.Response}, nil
}

func (m *MockClient) match(req pipeline.LLMRequest) *MockRoute {
	prompt := strings.ToLower(req.SystemPrompt + "\n" + req.UserPrompt)
	for idx := range m.Routes {
		if strings.Contains(prompt, strings.ToLower(m.Routes[idx].Keyword)) {
			route := m.Routes[idx]
			return &route
		}
	}
	return nil
}
