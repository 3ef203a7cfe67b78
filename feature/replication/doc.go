// Package replication exposes the device's sync orchestrator over HTTP.
//
// Routes are grouped under /sync. Every response body is a syncer.Result or a
// syncer.Status; the HTTP status code follows the result code:
//
//	success              200
//	queued while offline 202
//	already running      409
//	VALIDATION           400
//	PERMISSION_DENIED    403
//	PROTECTED            403
//	NOT_FOUND            404
//	AMBIGUOUS_CODE       409
//	NOT_CONFIRMED        428
//	BACKEND_REJECTED     502
//	CONNECTIVITY         503
//
// Destructive operations (authoritative upload, entity deletion, tombstone
// purge) need ?confirm=true and an unrestricted caller.
package replication
