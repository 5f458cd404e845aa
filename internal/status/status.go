// Package status provides operational status checks for the gateway
// and CLI: is storage reachable, are the sources healthy.
package status

import (
	"context"
	"sync"
)

// StatusResult represents the result of a status check.
type StatusResult struct {
	Ready            bool     `json:"ready"`
	Reason           string   `json:"reason,omitempty"`
	GatewayReady     bool     `json:"gateway_ready"`
	StorageHealth    string   `json:"storage_health"`
	SourcesAvailable int      `json:"sources_available"`
	SourcesMessage   string   `json:"sources_message"`
	UnhealthySources []string `json:"unhealthy_sources,omitempty"`
	Version          string   `json:"version"`
}

// StatusChecker provides status checking functionality.
type StatusChecker interface {
	GetStatus(ctx context.Context) (*StatusResult, error)
}

// ReadinessResult represents gateway readiness.
type ReadinessResult struct {
	Ready            bool
	Components       map[string]ComponentStatus
	SourcesAvailable int
}

// ComponentStatus represents the status of a component.
type ComponentStatus struct {
	Ready   bool
	Message string
}

// FuncStatusChecker implements StatusChecker using functions.
// This allows adapting any gateway implementation.
type FuncStatusChecker struct {
	getReadiness func(ctx context.Context) *ReadinessResult
	getVersion   func() string
}

// NewFuncStatusChecker creates a new functional status checker.
func NewFuncStatusChecker(
	getReadiness func(ctx context.Context) *ReadinessResult,
	getVersion func() string,
) *FuncStatusChecker {
	return &FuncStatusChecker{
		getReadiness: getReadiness,
		getVersion:   getVersion,
	}
}

// GetStatus implements StatusChecker.
func (c *FuncStatusChecker) GetStatus(ctx context.Context) (*StatusResult, error) {
	readiness := c.getReadiness(ctx)

	result := &StatusResult{
		Ready:            readiness.Ready,
		GatewayReady:     readiness.Ready,
		SourcesAvailable: readiness.SourcesAvailable,
		Version:          c.getVersion(),
	}

	if storage, ok := readiness.Components["storage"]; ok {
		result.StorageHealth = storage.Message
		if !storage.Ready {
			result.Ready = false
			result.Reason = "storage not ready: " + storage.Message
		}
	}

	if srcs, ok := readiness.Components["sources"]; ok {
		result.SourcesMessage = srcs.Message
		if !srcs.Ready {
			result.Ready = false
			if result.Reason == "" {
				result.Reason = "sources not ready: " + srcs.Message
			}
		}
	}

	return result, nil
}

// MockStatusChecker is a test implementation of StatusChecker.
type MockStatusChecker struct {
	mu             sync.RWMutex
	storageReady   bool
	storageMessage string
	sourcesReady   bool
	sourcesMessage string
	version        string
}

// NewMockStatusChecker creates a new mock status checker.
func NewMockStatusChecker() *MockStatusChecker {
	return &MockStatusChecker{
		storageReady:   true,
		storageMessage: "connected",
		sourcesReady:   true,
		sourcesMessage: "available",
		version:        "v1.0.0",
	}
}

// SetStorageStatus sets the storage status.
func (m *MockStatusChecker) SetStorageStatus(ready bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.storageReady = ready
	m.storageMessage = message
}

// SetSourcesStatus sets the sources status.
func (m *MockStatusChecker) SetSourcesStatus(ready bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sourcesReady = ready
	m.sourcesMessage = message
}

// GetStatus implements StatusChecker.
func (m *MockStatusChecker) GetStatus(ctx context.Context) (*StatusResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := &StatusResult{
		Ready:          true,
		GatewayReady:   true,
		StorageHealth:  m.storageMessage,
		SourcesMessage: m.sourcesMessage,
		Version:        m.version,
	}

	if !m.storageReady {
		result.Ready = false
		result.Reason = "storage not ready: " + m.storageMessage
	}
	if !m.sourcesReady {
		result.Ready = false
		if result.Reason == "" {
			result.Reason = "sources not ready: " + m.sourcesMessage
		}
	}

	return result, nil
}
