package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
)

// Confirmer asks an operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

var (
	// AutoConfirm approves everything.
	AutoConfirm = ConfirmFunc(func(context.Context, string) bool { return true })
	// Deny refuses everything.
	Deny = ConfirmFunc(func(context.Context, string) bool { return false })
)

// Domain is the collaborator owning the live entity collections.
type Domain interface {
	// LocalSnapshot returns the device's current collection of kind.
	LocalSnapshot(ctx context.Context, kind entity.Kind) ([]entity.Entity, error)
	// ApplyMergedSnapshot replaces the device's collection of kind.
	ApplyMergedSnapshot(ctx context.Context, kind entity.Kind, entities []entity.Entity) error
}

// StoreDomain keeps collections in the local store at local/<kind> and
// notifies listeners after every apply.
type StoreDomain struct {
	store     docstore.Store
	now       func() time.Time
	mu        sync.RWMutex
	listeners []func(kind string, entities []entity.Entity)
}

// NewStoreDomain creates a StoreDomain over the local store.
func NewStoreDomain(store docstore.Store) *StoreDomain {
	return &StoreDomain{store: store, now: time.Now}
}

// OnApply registers fn to run after a merged snapshot is stored.
func (d *StoreDomain) OnApply(fn func(kind string, entities []entity.Entity)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

func (d *StoreDomain) LocalSnapshot(ctx context.Context, kind entity.Kind) ([]entity.Entity, error) {
	doc, err := d.store.Get(ctx, docstore.Local(kind.Name))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return entity.Decode(doc.Value)
}

func (d *StoreDomain) ApplyMergedSnapshot(ctx context.Context, kind entity.Kind, entities []entity.Entity) error {
	if err := d.write(ctx, kind, entities); err != nil {
		return err
	}
	d.mu.RLock()
	listeners := append([]func(string, []entity.Entity){}, d.listeners...)
	d.mu.RUnlock()
	for _, fn := range listeners {
		fn(kind.Name, entities)
	}
	return nil
}

// Put stores a collection as a local edit, without notifying listeners.
func (d *StoreDomain) Put(ctx context.Context, kind entity.Kind, entities []entity.Entity) error {
	return d.write(ctx, kind, entities)
}

// Upsert replaces or appends one entity by identity and stamps updatedAt.
func (d *StoreDomain) Upsert(ctx context.Context, kind entity.Kind, e entity.Entity) error {
	id := kind.Identity(e)
	if id == "" {
		return entity.ErrMissingIdentity
	}
	current, err := d.LocalSnapshot(ctx, kind)
	if err != nil {
		return err
	}
	e = e.Clone()
	e.Touch(d.now())

	replaced := false
	for i, existing := range current {
		if kind.Identity(existing) == id {
			current[i] = e
			replaced = true
		}
	}
	if !replaced {
		current = append(current, e)
	}
	return d.write(ctx, kind, current)
}

func (d *StoreDomain) write(ctx context.Context, kind entity.Kind, entities []entity.Entity) error {
	data, err := entity.Encode(entities)
	if err != nil {
		return err
	}
	now := d.now().UTC()
	if err := d.store.Set(ctx, docstore.Local(kind.Name), docstore.Document{Value: data, SyncedAt: &now}); err != nil {
		return fmt.Errorf("failed to store %s: %w", kind.Name, err)
	}
	return nil
}
