package llm

import (
	"context"
	"sync"
)

// MockCompleter provides a scriptable Completer for testing without API
// calls. Responses are consumed in order; when the queue is exhausted the
// last response repeats. A non-nil Err is returned for every call instead.
type MockCompleter struct {
	mu        sync.Mutex
	responses []string
	next      int

	Err error

	// Prompts records every prompt received, in call order.
	Prompts []string
	// Operations records the operation tag of every call.
	Operations []string
}

// NewMockCompleter creates a mock that replays the given responses.
func NewMockCompleter(responses ...string) *MockCompleter {
	return &MockCompleter{responses: responses}
}

// Complete records the call and returns the next scripted response.
func (m *MockCompleter) Complete(ctx context.Context, operation, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	m.Operations = append(m.Operations, operation)

	if m.Err != nil {
		return "", m.Err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	resp := m.responses[m.next]
	if m.next < len(m.responses)-1 {
		m.next++
	}
	return resp, nil
}

// Calls returns how many times Complete was invoked.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
