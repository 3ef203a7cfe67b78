// Package queue is the pending sync queue: sync attempts deferred while the
// remote store was unreachable.
//
// The queue is a JSON list stored at local/pending_sync so it survives a
// restart. Entries are deduplicated per operation within a coarse time
// bucket (one minute by default) and bounded to the newest N entries, so a
// device that stays offline for days does not grow the queue without limit.
package queue
