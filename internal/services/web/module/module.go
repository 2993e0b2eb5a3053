// Package module defines the feature contract used by web composition.
package module

import "net/http"

// Mount describes a module route mount.
type Mount struct {
	Prefix  string
	Handler http.Handler
}

// Module declares the minimum contract required by web composition.
type Module interface {
	ID() string
	Mount() (Mount, error)
}

// HealthReporter is an optional interface for modules that can report their
// operational availability. Modules with backend dependencies implement this
// so the health route can derive service health without knowing the clients.
type HealthReporter interface {
	Healthy() bool
}

// ResolveVisitor returns the visitor id bound to a request, or "".
type ResolveVisitor func(*http.Request) string
