package testing

import (
	"context"
	"sync"

	"github.com/aristath/petracker/internal/domain"
)

// MockSymbolSource is a scripted domain.SymbolSource. Unknown symbols are
// unavailable. Calls are recorded for assertions.
type MockSymbolSource struct {
	mu       sync.Mutex
	tier     domain.Tier
	outcomes map[string]domain.FetchOutcome
	calls    []string
	hook     func(ctx context.Context, symbol string)
}

// NewMockSymbolSource creates a source for tier
func NewMockSymbolSource(tier domain.Tier) *MockSymbolSource {
	return &MockSymbolSource{
		tier:     tier,
		outcomes: make(map[string]domain.FetchOutcome),
	}
}

// SetValue makes symbol resolve to v
func (m *MockSymbolSource) SetValue(symbol string, v float64) *MockSymbolSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[symbol] = domain.Available(v)
	return m
}

// SetHook runs fn at the start of every Fetch
func (m *MockSymbolSource) SetHook(fn func(ctx context.Context, symbol string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// Tier returns the configured tier
func (m *MockSymbolSource) Tier() domain.Tier {
	return m.tier
}

// Fetch returns the scripted outcome for symbol
func (m *MockSymbolSource) Fetch(ctx context.Context, symbol string) domain.FetchOutcome {
	m.mu.Lock()
	m.calls = append(m.calls, symbol)
	hook := m.hook
	out, ok := m.outcomes[symbol]
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, symbol)
	}
	if !ok {
		return domain.Unavailable(domain.ReasonBadStatus, "status 404")
	}
	return out
}

// Calls returns the symbols requested so far
func (m *MockSymbolSource) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockBatchSource is a scripted domain.BatchSource
type MockBatchSource struct {
	mu       sync.Mutex
	outcomes map[string]domain.FetchOutcome
	err      error
	calls    int
}

// NewMockBatchSource creates a batch source that succeeds with no outcomes
func NewMockBatchSource() *MockBatchSource {
	return &MockBatchSource{outcomes: make(map[string]domain.FetchOutcome)}
}

// SetValue reports symbol as a success with v
func (m *MockBatchSource) SetValue(symbol string, v float64) *MockBatchSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[symbol] = domain.Available(v)
	return m
}

// SetFailed reports symbol as a per-symbol failure inside a valid envelope
func (m *MockBatchSource) SetFailed(symbol string) *MockBatchSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[symbol] = domain.Unavailable(domain.ReasonMissing, "batch reported failure")
	return m
}

// SetError makes the whole tier fail
func (m *MockBatchSource) SetError(err error) *MockBatchSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FetchBatch returns the scripted outcomes
func (m *MockBatchSource) FetchBatch(ctx context.Context, symbols []string) (map[string]domain.FetchOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]domain.FetchOutcome, len(m.outcomes))
	for k, v := range m.outcomes {
		out[k] = v
	}
	return out, nil
}

// Calls returns how many times FetchBatch ran
func (m *MockBatchSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
