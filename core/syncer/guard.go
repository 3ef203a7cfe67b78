package syncer

import (
	"fmt"
	"sync/atomic"

	"github.com/gofrs/flock"
)

// Guard allows at most one sync in flight. With a lock file it also excludes
// other processes on the same device, such as a CLI run next to the agent.
type Guard struct {
	busy atomic.Bool
	file *flock.Flock
}

// NewGuard creates a guard backed by lockPath. An empty path guards this
// process only.
func NewGuard(lockPath string) *Guard {
	g := &Guard{}
	if lockPath != "" {
		g.file = flock.New(lockPath)
	}
	return g
}

// TryAcquire takes the guard, reporting false if it is already held or the
// lock file cannot be taken.
func (g *Guard) TryAcquire() bool {
	ok, _ := g.acquire()
	return ok
}

func (g *Guard) acquire() (bool, error) {
	if !g.busy.CompareAndSwap(false, true) {
		return false, nil
	}
	if g.file == nil {
		return true, nil
	}
	locked, err := g.file.TryLock()
	if err != nil || !locked {
		g.busy.Store(false)
		if err != nil {
			return false, fmt.Errorf("failed to lock %s: %w", g.file.Path(), err)
		}
		return false, nil
	}
	return true, nil
}

// Release frees the guard.
func (g *Guard) Release() {
	if g.file != nil {
		_ = g.file.Unlock()
	}
	g.busy.Store(false)
}

// Held reports whether a sync is in flight in this process.
func (g *Guard) Held() bool {
	return g.busy.Load()
}
