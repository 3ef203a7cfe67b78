package syncer

import (
	"context"
	"errors"
	"fmt"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
	"tenant-sync/core/reconcile"
	"tenant-sync/core/scope"
	"tenant-sync/core/tombstone"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// sides holds the three inputs of a merge.
type sides struct {
	local         []entity.Entity
	remote        []entity.Entity
	remoteDeleted tombstone.Remote
}

// loadSides reads the local snapshot, the remote snapshot and the remote
// tombstone set of kind concurrently.
func (o *Orchestrator) loadSides(ctx context.Context, kind entity.Kind) (sides, error) {
	var s sides
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		local, err := o.domain.LocalSnapshot(gctx, kind)
		if err != nil {
			return localErr(fmt.Sprintf("failed to read local %s", kind.Name), err)
		}
		s.local = local
		return nil
	})

	g.Go(func() error {
		remote, _, err := o.remoteEntities(gctx, docstore.Global(kind.Name))
		s.remote = remote
		return err
	})

	g.Go(func() error {
		deleted, err := o.remoteTombstones(gctx, kind)
		s.remoteDeleted = deleted
		return err
	})

	if err := g.Wait(); err != nil {
		return sides{}, err
	}
	return s, nil
}

// remoteEntities reads an entity collection document. A malformed document
// aborts the sync rather than being overwritten by a partial merge.
func (o *Orchestrator) remoteEntities(ctx context.Context, key docstore.Key) ([]entity.Entity, bool, error) {
	doc, err := o.remote.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if doc == nil {
		return nil, false, nil
	}
	entities, err := entity.Decode(doc.Value)
	if err != nil {
		return nil, true, newError(CodeValidation, fmt.Sprintf("remote document %s is malformed", key), err)
	}
	return entities, true, nil
}

// remoteTombstones reads the remote tombstone set of kind and its purge marker.
func (o *Orchestrator) remoteTombstones(ctx context.Context, kind entity.Kind) (tombstone.Remote, error) {
	doc, err := o.remote.Get(ctx, tombstone.RemoteKey(kind))
	if err != nil {
		return tombstone.Remote{}, err
	}
	set, err := tombstone.Decode(kind, doc)
	if err != nil {
		return tombstone.Remote{}, newError(CodeValidation, fmt.Sprintf("remote document %s is malformed", tombstone.RemoteKey(kind)), err)
	}
	marker, err := o.remote.Get(ctx, tombstone.PurgeKey(kind))
	if err != nil {
		return tombstone.Remote{}, err
	}
	purgedAt, err := tombstone.DecodeMarker(marker)
	if err != nil {
		return tombstone.Remote{}, newError(CodeValidation, fmt.Sprintf("remote document %s is malformed", tombstone.PurgeKey(kind)), err)
	}
	return tombstone.Remote{Deleted: set, PurgedAt: purgedAt}, nil
}

// mergeKind runs merge-sync for one kind: union tombstones, merge, then push
// tombstones and entities to the remote in one write and apply locally.
func (o *Orchestrator) mergeKind(ctx context.Context, kind entity.Kind, res *Result) ([]entity.Entity, error) {
	s, err := o.loadSides(ctx, kind)
	if err != nil {
		return nil, err
	}
	deleted, err := o.registry.UnionWith(ctx, kind, s.remoteDeleted)
	if err != nil {
		return nil, localErr("failed to merge tombstones", err)
	}

	merged := reconcile.Merge(kind, s.local, s.remote, deleted)
	o.logIssues(kind, merged.Issues)
	res.addMerge(merged)

	if err := o.pushRemote(ctx, kind, merged.Entities, deleted); err != nil {
		return nil, err
	}
	if err := o.domain.ApplyMergedSnapshot(ctx, kind, merged.Entities); err != nil {
		return nil, localErr(fmt.Sprintf("failed to apply merged %s", kind.Name), err)
	}
	return merged.Entities, nil
}

// pushKind overwrites the remote collection of kind with the local one minus
// tombstoned identities. Concurrent unsynced edits on other devices are lost.
func (o *Orchestrator) pushKind(ctx context.Context, kind entity.Kind, res *Result) error {
	local, err := o.domain.LocalSnapshot(ctx, kind)
	if err != nil {
		return localErr(fmt.Sprintf("failed to read local %s", kind.Name), err)
	}
	remoteDeleted, err := o.remoteTombstones(ctx, kind)
	if err != nil {
		return err
	}
	deleted, err := o.registry.UnionWith(ctx, kind, remoteDeleted)
	if err != nil {
		return localErr("failed to merge tombstones", err)
	}

	// Merging against nothing validates, de-duplicates and drops tombstoned entities.
	pushed := reconcile.Merge(kind, local, nil, deleted)
	o.logIssues(kind, pushed.Issues)
	res.addMerge(pushed)

	if err := o.pushRemote(ctx, kind, pushed.Entities, deleted); err != nil {
		return err
	}
	if err := o.domain.ApplyMergedSnapshot(ctx, kind, pushed.Entities); err != nil {
		return localErr(fmt.Sprintf("failed to apply %s", kind.Name), err)
	}
	return nil
}

// pullKind merges the caller-visible part of the remote collection into the local one.
func (o *Orchestrator) pullKind(ctx context.Context, kind entity.Kind, caller scope.Scope, res *Result) error {
	s, err := o.loadSides(ctx, kind)
	if err != nil {
		return err
	}
	deleted, err := o.registry.UnionWith(ctx, kind, s.remoteDeleted)
	if err != nil {
		return localErr("failed to merge tombstones", err)
	}
	visible, err := scope.Filter(kind, s.remote, caller)
	if err != nil {
		return err
	}

	merged := reconcile.Merge(kind, s.local, visible, deleted)
	o.logIssues(kind, merged.Issues)
	res.addMerge(merged)

	if err := o.domain.ApplyMergedSnapshot(ctx, kind, merged.Entities); err != nil {
		return localErr(fmt.Sprintf("failed to apply merged %s", kind.Name), err)
	}
	return nil
}

// pushRemote writes the collection and its tombstone set in a single SetMany.
func (o *Orchestrator) pushRemote(ctx context.Context, kind entity.Kind, entities []entity.Entity, deleted tombstone.Set) error {
	data, err := entity.Encode(entities)
	if err != nil {
		return err
	}
	tombDoc, err := deleted.Document()
	if err != nil {
		return err
	}
	now := o.now().UTC()
	return o.remote.SetMany(ctx, map[docstore.Key]docstore.Document{
		docstore.Global(kind.Name): {Value: data, SyncedAt: &now},
		tombstone.RemoteKey(kind):  tombDoc,
	})
}

// removeLocally resolves ref against the local collection, records the
// tombstone under the entity's identity and drops the entity locally.
func (o *Orchestrator) removeLocally(ctx context.Context, kind entity.Kind, ref string) error {
	current, err := o.domain.LocalSnapshot(ctx, kind)
	if err != nil {
		return localErr(fmt.Sprintf("failed to read local %s", kind.Name), err)
	}
	target, ok := kind.Find(current, ref)
	switch {
	case ok:
	case kind.Normalize(ref) == "":
		return tombstone.ErrEmptyIdentity
	case o.registry.IsProtected(kind, ref):
		return fmt.Errorf("%w: %s %s", tombstone.ErrProtected, kind.Name, kind.Normalize(ref))
	default:
		return newError(CodeNotFound, fmt.Sprintf("no local %s matches %q", kind.Name, ref), nil)
	}

	identity := kind.Identity(target)
	if err := o.registry.RecordDeletion(ctx, kind, identity); err != nil {
		if errors.Is(err, tombstone.ErrProtected) || errors.Is(err, tombstone.ErrEmptyIdentity) {
			return err
		}
		return localErr("failed to record deletion", err)
	}
	remaining := reconcile.Without(kind, current, tombstone.NewSet(identity))
	if err := o.domain.ApplyMergedSnapshot(ctx, kind, remaining); err != nil {
		return localErr(fmt.Sprintf("failed to apply %s", kind.Name), err)
	}
	o.log.Info("Deleted locally", zap.String("kind", kind.Name), zap.String("identity", identity))
	return nil
}

func (o *Orchestrator) fullSync(ctx context.Context, res *Result) error {
	merged := make(map[string][]entity.Entity, len(o.kinds))
	for _, kind := range o.kinds {
		entities, err := o.mergeKind(ctx, kind, res)
		if err != nil {
			return err
		}
		merged[kind.Name] = entities
	}
	if err := o.publishTenantData(ctx, merged); err != nil {
		return err
	}
	return localErr("failed to clear pending queue", o.queue.Clear(ctx))
}

func (o *Orchestrator) logIssues(kind entity.Kind, issues []reconcile.Issue) {
	for _, issue := range issues {
		o.log.Warn("Dropped invalid entity",
			zap.String("code", string(CodeValidation)),
			zap.String("kind", kind.Name),
			zap.String("side", string(issue.Side)),
			zap.Int("index", issue.Index),
			zap.String("identity", issue.Identity),
			zap.String("reason", issue.Reason),
		)
	}
}
