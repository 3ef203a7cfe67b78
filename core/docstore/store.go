package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
)

// Realm and document names shared by every backend.
const (
	RealmGlobal = "global"
	RealmLocal  = "local"

	DeletedPrefix  = "deleted_"
	PurgedPrefix   = "purged_"
	TenantFullData = "tenant_full_data"
	PendingSync    = "pending_sync"
)

// Key addresses one document: (realm, name).
type Key struct {
	Realm string
	Name  string
}

// Global returns the key of a document in the shared global realm.
func Global(name string) Key {
	return Key{Realm: RealmGlobal, Name: name}
}

// Local returns the key of a device-local document.
func Local(name string) Key {
	return Key{Realm: RealmLocal, Name: name}
}

// ErrInvalidRealm is returned for realm names that cannot address documents safely.
var ErrInvalidRealm = errors.New("invalid realm")

// ValidateRealm rejects realm names that are empty, dot segments, padded, or
// that contain path separators or control characters. Backends that map
// realms onto paths rely on it.
func ValidateRealm(realm string) error {
	switch {
	case realm == "", realm == ".", realm == "..",
		strings.TrimSpace(realm) != realm,
		strings.ContainsAny(realm, "/\\"),
		strings.IndexFunc(realm, unicode.IsControl) >= 0:
		return fmt.Errorf("%w: %q", ErrInvalidRealm, realm)
	}
	return nil
}

// ValidateTenantRealm checks that a tenant id can name its own realm. Besides
// ValidateRealm it rejects the global and local realms.
func ValidateTenantRealm(tenantID string) error {
	if err := ValidateRealm(tenantID); err != nil {
		return err
	}
	if strings.EqualFold(tenantID, RealmGlobal) || strings.EqualFold(tenantID, RealmLocal) {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidRealm, tenantID)
	}
	return nil
}

// TenantKey returns the key of a tenant's full-data document.
func TenantKey(tenantID string) Key {
	return Key{Realm: tenantID, Name: TenantFullData}
}

// DeletedName returns the tombstone document name for an entity kind.
func DeletedName(kind string) string {
	return DeletedPrefix + kind
}

// PurgedName returns the name of the purge marker document for an entity kind.
func PurgedName(kind string) string {
	return PurgedPrefix + kind
}

// IsTombstone reports whether the key holds a tombstone set.
func (k Key) IsTombstone() bool {
	return strings.HasPrefix(k.Name, DeletedPrefix)
}

func (k Key) String() string {
	return k.Realm + "/" + k.Name
}

// Document is the unit persisted under a Key.
type Document struct {
	Value    json.RawMessage `json:"value"`
	SyncedAt *time.Time      `json:"syncedAt,omitempty"`
}

// NewDocument encodes v as the document value.
func NewDocument(v any, syncedAt *time.Time) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode document value: %w", err)
	}
	return Document{Value: data, SyncedAt: syncedAt}, nil
}

// Decode unmarshals the document value into v. A nil document or empty value leaves v untouched.
func (d *Document) Decode(v any) error {
	if d == nil || len(d.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Value, v); err != nil {
		return fmt.Errorf("failed to decode document value: %w", err)
	}
	return nil
}

func (d Document) clone() Document {
	out := Document{Value: append(json.RawMessage(nil), d.Value...)}
	if d.SyncedAt != nil {
		t := *d.SyncedAt
		out.SyncedAt = &t
	}
	return out
}

// Store is durable key/value document access, local or remote.
type Store interface {
	// Get returns the document stored under key, or nil when there is none.
	Get(ctx context.Context, key Key) (*Document, error)
	// Set stores doc under key.
	Set(ctx context.Context, key Key, doc Document) error
	// SetMany stores every document in one unit of work. Backends that cannot
	// write atomically write tombstone documents before anything else.
	SetMany(ctx context.Context, docs map[Key]Document) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error
	// Ping performs the cheapest possible round trip.
	Ping(ctx context.Context) error
}

// RealmDeleter is implemented by stores that can drop every document of a realm at once.
type RealmDeleter interface {
	DeleteRealm(ctx context.Context, realm string) error
}

// orderedKeys returns tombstone keys first, then everything else, each sorted.
func orderedKeys(docs map[Key]Document) []Key {
	keys := make([]Key, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ti, tj := keys[i].IsTombstone(), keys[j].IsTombstone()
		if ti != tj {
			return ti
		}
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// ErrUnavailable marks failures caused by the store being unreachable.
var ErrUnavailable = errors.New("store unavailable")

// UnavailableError wraps a transport failure from a backend.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Backend, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// BackendError is a structured rejection returned by a reachable backend.
type BackendError struct {
	Backend string
	Code    string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s rejected request (%s): %s", e.Backend, e.Code, e.Message)
	}
	return fmt.Sprintf("%s rejected request: %s", e.Backend, e.Message)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err means the store could not be reached.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsBackendError reports whether err is a structured backend rejection.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
