// Package testutil provides test utilities for the llm package.
package testutil

import (
	"context"
	"sync"

	"github.com/newghostisfun/dailypost/llm"
)

// MockGenerator is a thread-safe llm.Generator for tests.
// It records every request and returns configured responses in sequence.
//
// Usage:
//
//	mock := &MockGenerator{
//	    Responses: []*llm.Response{{Content: "#tank tide is out", Model: "test-model"}},
//	}
//
//	// Error response
//	mock := &MockGenerator{Err: errors.New("connection failed")}
type MockGenerator struct {
	mu            sync.Mutex
	requests      []llm.Request
	Responses     []*llm.Response // Responses to return in sequence
	Err           error           // Error to return (takes precedence over Responses)
	responseIndex int
}

// Generate implements llm.Generator.
func (m *MockGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}

	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}

	return &llm.Response{Content: "", Model: "test-model"}, nil
}

// Requests returns a copy of the requests received so far.
func (m *MockGenerator) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]llm.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Reset clears recorded requests and rewinds the response sequence.
func (m *MockGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.responseIndex = 0
}
