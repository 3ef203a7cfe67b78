// Package syncer is the sync orchestrator: the operations a device invokes to
// replicate its entity collections with the shared remote store.
//
// # Operations
//
//   - FullSync: merge-sync every kind, publish tenant_full_data documents,
//     clear the pending queue.
//   - UploadOnly(ModeMerge): merge-sync every kind.
//   - UploadOnly(ModeAuthoritative): overwrite remote with local minus
//     tombstones. Requires confirmation.
//   - DownloadOnly(scope): merge the caller-visible remote data into the
//     local store; nothing is written remotely.
//   - SyncByShareCode: onboard a device into one tenant.
//   - DeleteEntity / PurgeTombstones: deletion and its operator override.
//
// Every operation returns a Result; none returns a bare error or panics.
// A single-flight Guard keeps at most one sync in flight; a concurrent call
// returns immediately with Skipped set.
//
// # Merge-sync
//
// For each kind the local snapshot, remote snapshot and remote tombstones are
// read concurrently, tombstones are unioned into the local registry, the
// merge engine reconciles both sides, and the merged collection is written to
// the remote together with the unioned tombstone set in one SetMany before
// being applied locally.
//
// # Offline behaviour
//
// When the remote store is unreachable, sync operations are recorded in the
// pending queue and return Queued with code CONNECTIVITY. The orchestrator
// subscribes to the connectivity monitor and replays the queue with a full
// sync on the next successful health check.
//
// # Deletion policy
//
// DeleteEntity uses merge-sync by default: the tombstone travels with the
// merged collection, so the delete sticks and concurrent edits to other
// entities survive. Authoritative push is an explicit operator choice for
// when the remote copy must match this device exactly; it discards unsynced
// edits other devices made to the same collection.
package syncer
