// Package storage declares persistence contracts for web-owned visitor sessions.
//
// The only durable visitor state is the backend session token; everything else
// in the auth flow is transient and lives in request-scoped cookies.
package storage
