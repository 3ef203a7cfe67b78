// Package scope decides which replicated entities a caller may pull.
//
// A scope is either unrestricted (platform administrators) or bound to one
// tenant. A tenant-bound caller sees entities whose tenant matches, plus their
// own user record regardless of tenant so they keep access during a tenant
// transition. Nothing from another tenant is ever returned.
package scope
