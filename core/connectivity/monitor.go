package connectivity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tenant-sync/core/docstore"
	"tenant-sync/core/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNotReady is returned by WaitReady when every attempt failed.
var ErrNotReady = errors.New("remote store not ready")

const probeKey = "probe"

// Event is delivered to subscribers after every health check.
type Event struct {
	Online  bool
	Changed bool
	Err     error
	At      time.Time
}

// Monitor tracks whether the remote store is reachable.
type Monitor struct {
	remote  docstore.Store
	timeout time.Duration
	log     *zap.Logger
	sf      singleflight.Group

	mu        sync.RWMutex
	online    bool
	checked   bool
	lastCheck time.Time
	lastErr   error
	listeners []func(Event)
}

// NewMonitor creates a monitor probing remote with the given per-probe timeout.
func NewMonitor(remote docstore.Store, probeTimeout time.Duration, log *zap.Logger) *Monitor {
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	return &Monitor{remote: remote, timeout: probeTimeout, log: logger.OrNop(log)}
}

// Subscribe registers fn to be called after every check.
func (m *Monitor) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Online returns the result of the latest check. Before the first check the
// device is assumed offline.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// LastCheck returns when the latest check finished and its error.
func (m *Monitor) LastCheck() (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCheck, m.lastErr
}

// CheckHealth pings the remote store and records the outcome.
// Concurrent callers share a single probe.
func (m *Monitor) CheckHealth(ctx context.Context) bool {
	// The shared probe must not die with whichever caller started it.
	probeCtx := context.WithoutCancel(ctx)
	ch := m.sf.DoChan(probeKey, func() (interface{}, error) {
		return m.probe(probeCtx), nil
	})
	select {
	case res := <-ch:
		return res.Val.(bool)
	case <-ctx.Done():
		return m.Online()
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.remote.Ping(ctx)
	online := err == nil

	m.mu.Lock()
	changed := !m.checked || m.online != online
	m.online = online
	m.checked = true
	m.lastCheck = time.Now()
	m.lastErr = err
	listeners := append([]func(Event){}, m.listeners...)
	m.mu.Unlock()

	if changed {
		if online {
			m.log.Info("Remote store reachable")
		} else {
			m.log.Warn("Remote store unreachable, working offline", zap.Error(err))
		}
	}

	ev := Event{Online: online, Changed: changed, Err: err, At: time.Now()}
	for _, fn := range listeners {
		fn(ev)
	}
	return online
}

// Run checks health once after initialDelay and then every interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, initialDelay, interval time.Duration) {
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	m.CheckHealth(ctx)

	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckHealth(ctx)
		}
	}
}

// WaitReady polls the remote store up to attempts times, sleeping backoff
// between tries. It returns nil as soon as a check succeeds.
func (m *Monitor) WaitReady(ctx context.Context, attempts int, backoff time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		if m.CheckHealth(ctx) {
			return nil
		}
		m.log.Debug("Remote store not ready", zap.Int("attempt", i), zap.Int("of", attempts))
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	_, err := m.LastCheck()
	return fmt.Errorf("%w after %d attempts: %v", ErrNotReady, attempts, err)
}
