// Package reconcile is the merge engine: it reconciles a local and a remote
// snapshot of one entity kind into a single collection.
//
// # Algorithm
//
//  1. Drop malformed entities (missing identity, unparsable timestamp) and
//     every entity whose identity is tombstoned, on both sides.
//  2. Seed a map keyed by identity with the remote entries.
//  3. Insert local-only entries as they are (created offline).
//  4. For identities on both sides, overlay local over remote for ordinary
//     fields. Privileged fields (plan, role, permissions, status...) and
//     updatedAt come from the side whose timestamp is newer, falling back to
//     the other side when the winner leaves the field empty.
//
// An exact timestamp tie is won by local. This is deliberate: the device
// performing the sync keeps its own view when nothing orders the two edits.
//
// # Properties
//
//   - Idempotent: merging a result with itself yields the same result.
//   - Identity-set commutative: swapping local and remote yields the same
//     identities, though not necessarily the same field values on a tie.
//   - No resurrection: no tombstoned identity appears in the output.
//
// Merge is pure. It does not log; dropped entities come back as Issues for
// the caller to report.
//
// # Usage
//
//	res := reconcile.Merge(entity.Users, local, remote, tombstones)
//	for _, issue := range res.Issues {
//	    log.Warn("Dropped entity", zap.String("reason", issue.Reason))
//	}
package reconcile
