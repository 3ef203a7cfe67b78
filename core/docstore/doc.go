// Package docstore is durable key/value document access for the replication engine.
//
// A document is addressed by a Key (realm, name) and holds a JSON value plus an
// optional sync timestamp. The same Store interface serves the device-local store
// and the shared remote store, so the orchestrator can be exercised end to end
// against MemoryStore in tests.
//
// # Backends
//
//   - MemoryStore: in-process, with offline and failure toggles for tests.
//   - GormStore: sqlite or mysql table sync_documents; the local store.
//   - ObjectStore: one JSON object per document in S3/MinIO.
//   - RedisStore: one string key per document; SetMany runs in MULTI/EXEC.
//   - PostgresStore: JSONB table; SetMany runs in a transaction.
//
// # Remote layout
//
//	global/<kind>             entity snapshot {value, syncedAt}
//	global/deleted_<kind>     tombstone set {value: [identity...]}
//	<tenantId>/tenant_full_data
//
// # Errors
//
// Transport failures wrap ErrUnavailable (test with IsUnavailable). Reachable
// backends that refuse a request return *BackendError carrying the backend's
// own error code. A missing document is not an error: Get returns nil, nil.
package docstore
