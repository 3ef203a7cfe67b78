package syncer

import (
	"sync"
	"time"
)

// Status is the process-wide sync state shown by status indicators.
type Status struct {
	DeviceID     string     `json:"deviceId"`
	InProgress   bool       `json:"inProgress"`
	LastSyncAt   *time.Time `json:"lastSyncAt,omitempty"`
	LastError    string     `json:"lastError,omitempty"`
	PendingCount int        `json:"pendingCount"`
	Online       bool       `json:"online"`
}

type statusTracker struct {
	mu         sync.RWMutex
	lastSyncAt *time.Time
	lastError  string
	pending    int
}

func (s *statusTracker) succeeded(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSyncAt = &at
	s.lastError = ""
}

func (s *statusTracker) failed(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = msg
}

func (s *statusTracker) setPending(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = n
}

func (s *statusTracker) snapshot() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{LastError: s.lastError, PendingCount: s.pending}
	if s.lastSyncAt != nil {
		t := *s.lastSyncAt
		st.LastSyncAt = &t
	}
	return st
}
