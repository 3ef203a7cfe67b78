// Package server holds the HTTP server configuration.
//
// The agent started by `tenant-sync start` serves the replication API on the
// configured port. Requests must carry the API key; when a JWT secret is set,
// callers may also present a bearer token whose claims define their scope.
package server
