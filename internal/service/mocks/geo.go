package mocks

import (
	"context"
	"sync"

	"github.com/SergeiKhy/linktrack/internal/service"
)

// MockGeoLocator implements service.GeoLocator for testing
type MockGeoLocator struct {
	mu sync.Mutex
	// Result is returned when no trusted-header hints are present
	Result service.GeoResult
	calls  int
}

func (m *MockGeoLocator) Locate(ctx context.Context, ip string, hints service.GeoHints) service.GeoResult {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if hints.City != "" || hints.Country != "" {
		return service.GeoResult{City: hints.City, Country: hints.Country}
	}
	return m.Result
}

func (m *MockGeoLocator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
