package tombstone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
	"tenant-sync/core/logger"

	"go.uber.org/zap"
)

var (
	// ErrProtected is returned when deleting an allow-listed identity.
	ErrProtected = errors.New("identity is protected from deletion")
	// ErrEmptyIdentity is returned when deleting without an identity.
	ErrEmptyIdentity = errors.New("identity is required")
)

// ledger is the local form of a set. Deleted maps each identity to the time
// this device learned of its deletion; PurgedAt is the last purge applied.
type ledger struct {
	Deleted  map[string]time.Time `json:"deleted"`
	PurgedAt *time.Time           `json:"purgedAt,omitempty"`
}

func (l ledger) set() Set {
	s := make(Set, len(l.Deleted))
	for id := range l.Deleted {
		s.Add(id)
	}
	return s
}

// Registry is the device-local tombstone store. Sets only grow, except
// through a purge.
type Registry struct {
	store     docstore.Store
	protected map[string]struct{}
	log       *zap.Logger
	now       func() time.Time
	mu        sync.Mutex
}

// NewRegistry creates a registry persisted in store.
// protected lists identities that may never be tombstoned.
func NewRegistry(store docstore.Store, protected []string, log *zap.Logger) *Registry {
	p := make(map[string]struct{}, len(protected))
	for _, id := range protected {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			p[id] = struct{}{}
		}
	}
	return &Registry{store: store, protected: p, log: logger.OrNop(log), now: time.Now}
}

// Key returns the local document key holding the set of kind.
func Key(kind entity.Kind) docstore.Key {
	return docstore.Local(docstore.DeletedName(kind.Name))
}

// RemoteKey returns the remote document key holding the set of kind.
func RemoteKey(kind entity.Kind) docstore.Key {
	return docstore.Global(docstore.DeletedName(kind.Name))
}

// PurgeKey returns the remote document key holding the purge marker of kind.
func PurgeKey(kind entity.Kind) docstore.Key {
	return docstore.Global(docstore.PurgedName(kind.Name))
}

// IsProtected reports whether identity is on the allow-list.
func (r *Registry) IsProtected(kind entity.Kind, identity string) bool {
	_, ok := r.protected[strings.ToLower(kind.Normalize(identity))]
	return ok
}

// Load returns the local set of kind.
func (r *Registry) Load(ctx context.Context, kind entity.Kind) (Set, error) {
	l, err := r.load(ctx, kind)
	if err != nil {
		return nil, err
	}
	return l.set(), nil
}

// Contains reports whether identity is tombstoned locally.
func (r *Registry) Contains(ctx context.Context, kind entity.Kind, identity string) (bool, error) {
	set, err := r.Load(ctx, kind)
	if err != nil {
		return false, err
	}
	return set.Contains(kind.Normalize(identity)), nil
}

// RecordDeletion tombstones identity. Protected identities are rejected
// before anything is written.
func (r *Registry) RecordDeletion(ctx context.Context, kind entity.Kind, identity string) error {
	id := kind.Normalize(identity)
	if id == "" {
		return ErrEmptyIdentity
	}
	if r.IsProtected(kind, id) {
		return fmt.Errorf("%w: %s %s", ErrProtected, kind.Name, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.load(ctx, kind)
	if err != nil {
		return err
	}
	if _, ok := l.Deleted[id]; ok {
		return nil
	}
	l.Deleted[id] = r.now().UTC()
	if err := r.save(ctx, kind, l); err != nil {
		return err
	}
	r.log.Info("Recorded deletion", zap.String("kind", kind.Name), zap.String("identity", id))
	return nil
}

// UnionWith merges the remote view into the local set, persists the result
// and returns it. A remote purge newer than the last one applied here first
// drops every local tombstone learned before it. Protected identities
// arriving from remote are ignored.
func (r *Registry) UnionWith(ctx context.Context, kind entity.Kind, remote Remote) (Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, err := r.load(ctx, kind)
	if err != nil {
		return nil, err
	}

	changed := false
	if p := remote.PurgedAt; p != nil && (l.PurgedAt == nil || p.After(*l.PurgedAt)) {
		dropped := 0
		for id, at := range l.Deleted {
			if !at.After(*p) {
				delete(l.Deleted, id)
				dropped++
			}
		}
		purgedAt := p.UTC()
		l.PurgedAt = &purgedAt
		changed = true
		r.log.Info("Applied remote tombstone purge",
			zap.String("kind", kind.Name),
			zap.Time("purged_at", purgedAt),
			zap.Int("dropped", dropped),
		)
	}

	now := r.now().UTC()
	added := 0
	for raw := range remote.Deleted {
		id := kind.Normalize(raw)
		if id == "" {
			continue
		}
		if r.IsProtected(kind, id) {
			r.log.Warn("Ignoring tombstone for protected identity", zap.String("kind", kind.Name), zap.String("identity", id))
			continue
		}
		if _, ok := l.Deleted[id]; !ok {
			l.Deleted[id] = now
			added++
		}
	}
	if added > 0 {
		changed = true
		r.log.Debug("Merged remote tombstones", zap.String("kind", kind.Name), zap.Int("added", added))
	}
	if changed {
		if err := r.save(ctx, kind, l); err != nil {
			return nil, err
		}
	}
	return l.set(), nil
}

// Purge clears the local set of kind and remembers at as the last purge, so
// a later remote view carrying the same purge changes nothing. It is the only
// way a deleted identity can return.
func (r *Registry) Purge(ctx context.Context, kind entity.Kind, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at = at.UTC()
	if err := r.save(ctx, kind, ledger{Deleted: map[string]time.Time{}, PurgedAt: &at}); err != nil {
		return fmt.Errorf("failed to purge tombstones for %s: %w", kind.Name, err)
	}
	r.log.Warn("Purged tombstones", zap.String("kind", kind.Name), zap.Time("purged_at", at))
	return nil
}

func (r *Registry) load(ctx context.Context, kind entity.Kind) (ledger, error) {
	doc, err := r.store.Get(ctx, Key(kind))
	if err != nil {
		return ledger{}, fmt.Errorf("failed to load tombstones for %s: %w", kind.Name, err)
	}
	var l ledger
	if err := doc.Decode(&l); err != nil {
		return ledger{}, fmt.Errorf("failed to load tombstones for %s: %w", kind.Name, err)
	}
	if l.Deleted == nil {
		l.Deleted = map[string]time.Time{}
	}
	return l, nil
}

func (r *Registry) save(ctx context.Context, kind entity.Kind, l ledger) error {
	doc, err := docstore.NewDocument(l, nil)
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, Key(kind), doc); err != nil {
		return fmt.Errorf("failed to save tombstones for %s: %w", kind.Name, err)
	}
	return nil
}
