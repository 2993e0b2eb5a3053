// Package dashboard serves the authenticated landing screen.
package dashboard

import (
	"net/http"

	module "github.com/louisbranch/parley/internal/services/web/module"
	"github.com/louisbranch/parley/internal/services/web/routepath"
)

// Module provides authenticated dashboard routes.
type Module struct{}

// New returns a dashboard module.
func New() Module {
	return Module{}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "dashboard" }

// Mount wires dashboard route handlers.
func (Module) Mount() (module.Mount, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, newHandlers())
	return module.Mount{Prefix: routepath.Dashboard, Handler: mux}, nil
}
