package stats

import "github.com/stretchr/testify/mock"

type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) Incr(metric string) {
	m.Called(metric)
}

func (m *MockStatsProvider) Decr(metric string) {
	m.Called(metric)
}

// Noop satisfies StatsProvider for tests that do not assert on metrics.
type Noop struct{}

func (Noop) Incr(string) {}
func (Noop) Decr(string) {}
