package reconcile

import "tenant-sync/core/entity"

// Side names which snapshot an entity came from.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Deleted reports whether an identity has been tombstoned.
type Deleted interface {
	Contains(identity string) bool
}

// Issue describes an entity that was dropped instead of merged.
type Issue struct {
	// Side is the snapshot the entity was read from.
	Side Side `json:"side"`

	// Index is the entity's position in that snapshot.
	Index int `json:"index"`

	// Identity is empty when the entity had none.
	Identity string `json:"identity,omitempty"`

	// Reason is a human readable validation failure.
	Reason string `json:"reason"`

	Err error `json:"-"`
}

// Report provides aggregate counts for one merge.
type Report struct {
	// Kind is the entity kind that was merged.
	Kind string `json:"kind"`

	// Total is the number of entities in the merged collection.
	Total int `json:"total"`

	// LocalOnly counts entities only present locally (created offline).
	LocalOnly int `json:"localOnly"`

	// RemoteOnly counts entities only present remotely.
	RemoteOnly int `json:"remoteOnly"`

	// LocalWins counts conflicts where the local timestamp won.
	LocalWins int `json:"localWins"`

	// RemoteWins counts conflicts where the remote timestamp won.
	RemoteWins int `json:"remoteWins"`

	// Tombstoned counts entities removed because their identity is deleted.
	Tombstoned int `json:"tombstoned"`

	// Invalid counts entities dropped by validation.
	Invalid int `json:"invalid"`

	// Duplicates counts repeated identities collapsed within one snapshot.
	Duplicates int `json:"duplicates"`
}

// Add folds another report into r.
func (r *Report) Add(o Report) {
	r.Total += o.Total
	r.LocalOnly += o.LocalOnly
	r.RemoteOnly += o.RemoteOnly
	r.LocalWins += o.LocalWins
	r.RemoteWins += o.RemoteWins
	r.Tombstoned += o.Tombstoned
	r.Invalid += o.Invalid
	r.Duplicates += o.Duplicates
}

// Result is the output of Merge.
type Result struct {
	// Entities is the merged collection, sorted by identity.
	Entities []entity.Entity `json:"entities"`

	Report Report  `json:"report"`
	Issues []Issue `json:"issues,omitempty"`
}
