// Package entity defines the replicated record and the catalog of entity kinds.
//
// Entities are schemaless JSON objects so that fields added by newer clients
// survive a round trip through older devices. Each Kind knows how to derive
// an entity's identity and tenant and which of its fields are privileged:
//
//	users          identity: email (lowercased), else id   tenant: tenantId
//	tenants        identity: id                            tenant: id
//	subscriptions  identity: id                            tenant: tenantId
//
// Timestamps are read from updatedAt, falling back to createdAt, and may be
// RFC3339 strings or epoch milliseconds.
package entity
