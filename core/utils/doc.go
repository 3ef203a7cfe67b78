// Package utils holds loose conversions applied to entity fields.
// Entities arrive as decoded JSON maps, so timestamps and identities may be
// strings, numbers or missing; these helpers normalize them.
package utils
