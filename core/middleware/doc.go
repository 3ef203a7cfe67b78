// Package middleware contains HTTP middleware for the Fiber application.
//
// It provides cross-cutting concerns that sit between the request and the handler.
//
// # Components
//
//   - Auth: validates the API key and, when a JWT secret is configured, the
//     caller's bearer token. The token's role and tenant become the caller's
//     replication scope.
//   - RayID: Generates a unique Request ID (RayID) for every incoming request,
//     injecting it into the context and response headers for tracing.
//
// RayID is registered first so that every later log line carries the id.
package middleware
