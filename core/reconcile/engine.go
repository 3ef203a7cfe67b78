package reconcile

import (
	"sort"
	"time"

	"tenant-sync/core/entity"
	"tenant-sync/core/utils"
)

// indexed is a validated entity keyed for merging.
type indexed struct {
	identity string
	ts       time.Time
	entity   entity.Entity
}

// Merge reconciles a local and a remote snapshot of one entity kind.
//
// Tombstoned identities are removed from both sides first, so a deletion
// always beats a concurrent edit. Ordinary fields are overlaid remote then
// local. Privileged fields and updatedAt come from the side with the newer
// timestamp; an exact tie goes to local. Malformed entities are dropped and
// reported in Result.Issues. Merge never fails and never mutates its input.
func Merge(kind entity.Kind, local, remote []entity.Entity, deleted Deleted) Result {
	res := Result{Report: Report{Kind: kind.Name}}

	remoteIndex := index(kind, SideRemote, remote, deleted, &res)
	localIndex := index(kind, SideLocal, local, deleted, &res)

	merged := make(map[string]entity.Entity, len(remoteIndex)+len(localIndex))
	for id, r := range remoteIndex {
		merged[id] = r.entity.Clone()
	}

	for id, l := range localIndex {
		r, exists := remoteIndex[id]
		if !exists {
			merged[id] = l.entity.Clone()
			res.Report.LocalOnly++
			continue
		}
		useLocal := !l.ts.Before(r.ts)
		if useLocal {
			res.Report.LocalWins++
		} else {
			res.Report.RemoteWins++
		}
		merged[id] = resolve(kind, l.entity, r.entity, useLocal)
	}

	for id := range remoteIndex {
		if _, exists := localIndex[id]; !exists {
			res.Report.RemoteOnly++
		}
	}

	// Sort results by identity for deterministic output
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res.Entities = make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		res.Entities = append(res.Entities, merged[id])
	}
	res.Report.Total = len(res.Entities)
	return res
}

// resolve builds the merged entity for an identity present on both sides.
func resolve(kind entity.Kind, local, remote entity.Entity, useLocal bool) entity.Entity {
	out := remote.Clone()
	for k, v := range local {
		out[k] = v
	}

	winner, loser := remote, local
	if useLocal {
		winner, loser = local, remote
	}

	for _, field := range kind.Privileged {
		setPreferred(out, field, winner, loser)
	}

	if v, ok := winner[entity.FieldUpdatedAt]; ok {
		out[entity.FieldUpdatedAt] = v
	} else {
		delete(out, entity.FieldUpdatedAt)
	}
	return out
}

// setPreferred copies field from winner if populated there, else from loser.
func setPreferred(out entity.Entity, field string, winner, loser entity.Entity) {
	switch {
	case utils.IsPopulated(winner[field]):
		out[field] = winner[field]
	case utils.IsPopulated(loser[field]):
		out[field] = loser[field]
	default:
		if v, ok := winner[field]; ok {
			out[field] = v
		} else if v, ok := loser[field]; ok {
			out[field] = v
		} else {
			delete(out, field)
		}
	}
}

// index validates one snapshot and keys it by identity, dropping tombstoned
// and malformed entities. Repeated identities keep the newest entry.
func index(kind entity.Kind, side Side, entities []entity.Entity, deleted Deleted, res *Result) map[string]indexed {
	out := make(map[string]indexed, len(entities))
	for i, e := range entities {
		if e == nil {
			res.Report.Invalid++
			res.Issues = append(res.Issues, Issue{Side: side, Index: i, Reason: "null entity", Err: entity.ErrMissingIdentity})
			continue
		}
		id := kind.Identity(e)
		if err := kind.Validate(e); err != nil {
			res.Report.Invalid++
			res.Issues = append(res.Issues, Issue{Side: side, Index: i, Identity: id, Reason: err.Error(), Err: err})
			continue
		}
		if deleted != nil && deleted.Contains(id) {
			res.Report.Tombstoned++
			continue
		}
		ts, _ := e.Timestamp()
		if prev, dup := out[id]; dup {
			res.Report.Duplicates++
			if ts.Before(prev.ts) {
				continue
			}
		}
		out[id] = indexed{identity: id, ts: ts, entity: e}
	}
	return out
}

// Identities returns the identity set of a collection.
func Identities(kind entity.Kind, entities []entity.Entity) map[string]struct{} {
	out := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		if id := kind.Identity(e); id != "" {
			out[id] = struct{}{}
		}
	}
	return out
}

// Without returns the entities whose identity is not deleted.
func Without(kind entity.Kind, entities []entity.Entity, deleted Deleted) []entity.Entity {
	out := make([]entity.Entity, 0, len(entities))
	for _, e := range entities {
		if deleted != nil && deleted.Contains(kind.Identity(e)) {
			continue
		}
		out = append(out, e)
	}
	return out
}
