// Package tombstone records which entity identities have been deleted.
//
// The remote store holds one set per entity kind at global/deleted_<kind>, a
// plain list of identities shared by every device. Each device keeps its own
// ledger at local/deleted_<kind> that also remembers when it learned of each
// deletion. Sets are unioned on every sync and only ever grow.
//
// # Purge
//
// Purge is the explicit operator action that lets deleted identities return.
// The purging device writes an empty remote set together with a marker at
// global/purged_<kind> holding the purge time. Other devices apply the marker
// on their next sync: tombstones they learned of before the purge are
// dropped, later ones survive. Without the marker another device would push
// its old tombstones back and delete the re-created entities everywhere.
//
// Identities on the protected allow-list (for example the sole platform
// administrator) are rejected by RecordDeletion and ignored when they
// arrive from a remote set.
package tombstone
