package llm

import "context"

// MockProvider returns a canned judgment for development and tests.
type MockProvider struct {
	Response string
	Err      error
}

// NewMockProvider creates a mock that classifies every pair as
// independent unless a response is injected.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Response: `{"relation":"independent","confidence":0.5,"reasoning":"mock provider","suggested_action":"none"}`,
	}
}

// IsAvailable always reports true.
func (p *MockProvider) IsAvailable() bool {
	return true
}

// Complete returns the injected response or error.
func (p *MockProvider) Complete(_ context.Context, _ string, _ CompletionOptions) (string, error) {
	if p.Err != nil {
		return "", p.Err
	}
	return p.Response, nil
}
