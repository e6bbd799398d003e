package vision

import (
	"context"
	"sync"
	"time"
)

// Mock implements Backend for testing.
type Mock struct {
	// DescribeFunc is called when Describe is invoked. When nil, a
	// canned response is returned.
	DescribeFunc func(ctx context.Context, req Request) (string, error)

	mu    sync.Mutex
	calls []MockCall
}

// MockCall records a Describe invocation.
type MockCall struct {
	Request Request
	Time    time.Time
}

// NewMock creates a mock backend with a canned response.
func NewMock() *Mock {
	return &Mock{
		DescribeFunc: func(ctx context.Context, req Request) (string, error) {
			return "mock description", nil
		},
	}
}

// Describe calls DescribeFunc and records the call.
func (m *Mock) Describe(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Request: req, Time: time.Now()})
	m.mu.Unlock()

	if m.DescribeFunc != nil {
		return m.DescribeFunc(ctx, req)
	}
	return "mock description", nil
}

// Name identifies the backend for logging.
func (m *Mock) Name() string { return "mock" }

// Calls returns a copy of the recorded invocations.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Describe invocations.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
