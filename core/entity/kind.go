package entity

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tenant-sync/core/utils"
)

var (
	ErrMissingIdentity  = errors.New("missing identity")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrUnknownKind      = errors.New("unknown entity kind")
)

// Kind describes how one replicated entity type is identified, scoped and protected.
type Kind struct {
	// Name is the document name of the collection, e.g. "users".
	Name string
	// TenantField holds the owning tenant id.
	TenantField string
	// Privileged lists fields whose conflicts are settled by timestamp only.
	Privileged []string

	identity      func(Entity) string
	requiresEmail bool
}

// Identity returns the stable identity key of e, or "" when e has none.
func (k Kind) Identity(e Entity) string {
	return k.identity(e)
}

// Normalize canonicalizes an identity supplied by a caller, e.g. a user email.
func (k Kind) Normalize(identity string) string {
	if k.requiresEmail && strings.Contains(identity, "@") {
		return NormalizeEmail(identity)
	}
	return strings.TrimSpace(identity)
}

// Find returns the entity ref points at. ref may be the identity itself or,
// for kinds identified by something else, the entity's id. Identity matches
// take precedence over id matches.
func (k Kind) Find(entities []Entity, ref string) (Entity, bool) {
	id := k.Normalize(ref)
	if id == "" {
		return nil, false
	}
	for _, e := range entities {
		if e != nil && k.Identity(e) == id {
			return e, true
		}
	}
	raw := strings.TrimSpace(ref)
	for _, e := range entities {
		if e != nil && byID(e) == raw {
			return e, true
		}
	}
	return nil, false
}

// Tenant returns the tenant id e belongs to.
func (k Kind) Tenant(e Entity) string {
	return strings.TrimSpace(e.String(k.TenantField))
}

// IsPrivileged reports whether field is privileged for this kind.
func (k Kind) IsPrivileged(field string) bool {
	for _, f := range k.Privileged {
		if f == field {
			return true
		}
	}
	return false
}

// Validate checks the minimum shape an entity needs to take part in a merge.
func (k Kind) Validate(e Entity) error {
	if k.Identity(e) == "" {
		return ErrMissingIdentity
	}
	if _, err := e.Timestamp(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
	}
	if k.requiresEmail {
		if email, ok := e[FieldEmail]; ok && utils.IsPopulated(email) && !strings.Contains(utils.ToString(email), "@") {
			return fmt.Errorf("%w: %q", ErrInvalidEmail, utils.ToString(email))
		}
	}
	return nil
}

// Field names shared by the catalog.
const (
	FieldID        = "id"
	FieldEmail     = "email"
	FieldTenantID  = "tenantId"
	FieldShareCode = "shareCode"
	FieldRole      = "role"
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func byID(e Entity) string {
	return strings.TrimSpace(e.String(FieldID))
}

// userIdentity is the normalized email, falling back to the opaque id.
func userIdentity(e Entity) string {
	if email := NormalizeEmail(e.String(FieldEmail)); email != "" {
		return email
	}
	return byID(e)
}

var (
	Users = Kind{
		Name:          "users",
		TenantField:   FieldTenantID,
		Privileged:    []string{"role", "permissions", "active", "plan"},
		identity:      userIdentity,
		requiresEmail: true,
	}
	Tenants = Kind{
		Name:        "tenants",
		TenantField: FieldID,
		Privileged:  []string{"plan", "active"},
		identity:    byID,
	}
	Subscriptions = Kind{
		Name:        "subscriptions",
		TenantField: FieldTenantID,
		Privileged:  []string{"plan", "status", "active", "expiresAt"},
		identity:    byID,
	}
)

var catalog = map[string]Kind{
	Users.Name:         Users,
	Tenants.Name:       Tenants,
	Subscriptions.Name: Subscriptions,
}

// Lookup returns the kind registered under name.
func Lookup(name string) (Kind, error) {
	k, ok := catalog[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Kind{}, fmt.Errorf("%w: %s", ErrUnknownKind, name)
	}
	return k, nil
}

// LookupAll resolves names in order, rejecting unknown or duplicate names.
func LookupAll(names []string) ([]Kind, error) {
	seen := make(map[string]bool, len(names))
	out := make([]Kind, 0, len(names))
	for _, name := range names {
		k, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		if seen[k.Name] {
			return nil, fmt.Errorf("duplicate entity kind: %s", k.Name)
		}
		seen[k.Name] = true
		out = append(out, k)
	}
	return out, nil
}

// Names lists every registered kind name, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
