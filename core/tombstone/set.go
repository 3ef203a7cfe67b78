package tombstone

import (
	"fmt"
	"sort"
	"time"

	"tenant-sync/core/docstore"
	"tenant-sync/core/entity"
)

// Set is a set of deleted identities for one entity kind.
type Set map[string]struct{}

// NewSet builds a set from ids, skipping empty strings.
func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id.
func (s Set) Add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

// Contains reports whether id is tombstoned. A nil set contains nothing.
func (s Set) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Union returns a new set holding the members of s and o.
func (s Set) Union(o Set) Set {
	out := make(Set, len(s)+len(o))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range o {
		out[id] = struct{}{}
	}
	return out
}

// Slice returns the members sorted.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Document encodes the set as {value: [ids...]}.
func (s Set) Document() (docstore.Document, error) {
	return docstore.NewDocument(s.Slice(), nil)
}

// Decode reads a set of kind from a tombstone document, normalizing every
// identity. A nil document is an empty set.
func Decode(kind entity.Kind, doc *docstore.Document) (Set, error) {
	var ids []string
	if err := doc.Decode(&ids); err != nil {
		return nil, err
	}
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(kind.Normalize(id))
	}
	return s, nil
}

// Remote is the remote view of one kind's deletions: the shared set and the
// time of the last purge, if any.
type Remote struct {
	Deleted  Set
	PurgedAt *time.Time
}

// purgeMarker is the value of the global/purged_<kind> document.
type purgeMarker struct {
	PurgedAt time.Time `json:"purgedAt"`
}

// MarkerDocument encodes a purge marker for at.
func MarkerDocument(at time.Time) (docstore.Document, error) {
	at = at.UTC()
	return docstore.NewDocument(purgeMarker{PurgedAt: at}, &at)
}

// DecodeMarker reads a purge marker. A nil document means no purge happened.
func DecodeMarker(doc *docstore.Document) (*time.Time, error) {
	if doc == nil {
		return nil, nil
	}
	var m purgeMarker
	if err := doc.Decode(&m); err != nil {
		return nil, err
	}
	if m.PurgedAt.IsZero() {
		return nil, fmt.Errorf("purge marker has no purgedAt")
	}
	return &m.PurgedAt, nil
}
