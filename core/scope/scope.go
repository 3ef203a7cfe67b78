package scope

import (
	"errors"
	"strings"

	"tenant-sync/core/entity"
)

// ErrPermissionDenied is returned for a tenant-bound scope without a tenant.
var ErrPermissionDenied = errors.New("permission denied")

// Roles that see every tenant.
const (
	RolePlatformAdmin = "platform_admin"
	RoleSuperAdmin    = "superadmin"
)

// Scope is a caller's visibility boundary.
type Scope struct {
	// Unrestricted callers see everything.
	Unrestricted bool `json:"unrestricted"`
	// TenantID bounds a restricted caller.
	TenantID string `json:"tenantId,omitempty"`
	// Self is the caller's own user identity, visible regardless of tenant.
	Self string `json:"self,omitempty"`
}

// All returns the unrestricted scope.
func All() Scope {
	return Scope{Unrestricted: true}
}

// Tenant returns a scope bound to tenantID. self may be empty.
func Tenant(tenantID, self string) Scope {
	return Scope{TenantID: strings.TrimSpace(tenantID), Self: entity.Users.Normalize(self)}
}

// ForRole derives a scope from a caller's role and membership.
func ForRole(role, tenantID, self string) Scope {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case RolePlatformAdmin, RoleSuperAdmin:
		return Scope{Unrestricted: true, Self: entity.Users.Normalize(self)}
	}
	return Tenant(tenantID, self)
}

// Validate rejects a tenant-bound scope that names no tenant.
func (s Scope) Validate() error {
	if !s.Unrestricted && s.TenantID == "" {
		return ErrPermissionDenied
	}
	return nil
}

// Allows reports whether an entity of kind is visible in s.
func (s Scope) Allows(kind entity.Kind, e entity.Entity) bool {
	if s.Unrestricted {
		return true
	}
	if s.TenantID == "" {
		return false
	}
	if kind.Tenant(e) == s.TenantID {
		return true
	}
	return kind.Name == entity.Users.Name && s.Self != "" && kind.Identity(e) == s.Self
}

// Filter returns the entities visible in s. Unrestricted scopes return the
// input unchanged; an invalid scope is refused rather than yielding nothing.
func Filter(kind entity.Kind, entities []entity.Entity, s Scope) ([]entity.Entity, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.Unrestricted {
		return entities, nil
	}
	out := make([]entity.Entity, 0, len(entities))
	for _, e := range entities {
		if s.Allows(kind, e) {
			out = append(out, e)
		}
	}
	return out, nil
}
