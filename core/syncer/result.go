package syncer

import "tenant-sync/core/reconcile"

// Operation names used in results, logs and the pending queue.
const (
	OpFullSync     = "full_sync"
	OpUpload       = "upload"
	OpDownload     = "download"
	OpShareCode    = "share_code"
	OpDelete       = "delete"
	OpPurge        = "purge_tombstones"
	OpFlush        = "flush"
	offlineMessage = "working offline, will sync later"
)

// Result is returned by every public orchestrator operation instead of an error.
type Result struct {
	Operation string `json:"operation"`
	Success   bool   `json:"success"`
	// Skipped is set when another sync was already running.
	Skipped bool `json:"skipped,omitempty"`
	// Queued is set when the operation was deferred to the pending queue.
	Queued bool   `json:"queued,omitempty"`
	Code   Code   `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
	// Report aggregates the merge reports of every kind.
	Report reconcile.Report            `json:"report"`
	Kinds  map[string]reconcile.Report `json:"kinds,omitempty"`
	// Issues counts entities dropped by validation.
	Issues int `json:"issues,omitempty"`
	// TenantID is the tenant resolved by a share code.
	TenantID string `json:"tenantId,omitempty"`

	err error
}

// Err returns the classified failure, or nil on success.
func (r Result) Err() error {
	return r.err
}

func (r *Result) addMerge(res reconcile.Result) {
	if r.Kinds == nil {
		r.Kinds = make(map[string]reconcile.Report)
	}
	prev := r.Kinds[res.Report.Kind]
	prev.Kind = res.Report.Kind
	prev.Add(res.Report)
	r.Kinds[res.Report.Kind] = prev
	r.Report.Add(res.Report)
	r.Issues += len(res.Issues)
}

func (r *Result) fail(err error) {
	se := classify(err)
	r.Success = false
	r.Code = se.Code
	r.Error = se.Error()
	r.err = se
}
