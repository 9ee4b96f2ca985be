package triage

import "context"

// MockProvider is a scripted provider for tests. Responses are returned in
// order; once exhausted, the last response repeats.
type MockProvider struct {
	Responses []string
	Errors    []error

	// Calls records every user prompt for assertions.
	Calls []string

	index int
}

// Complete implements Provider.
func (m *MockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	m.Calls = append(m.Calls, user)

	i := m.index
	m.index++

	if i < len(m.Errors) && m.Errors[i] != nil {
		return "", m.Errors[i]
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}
