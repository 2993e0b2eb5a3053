// Package publicauth serves the signup, verification, login and logout
// screens.
package publicauth

import (
	"net/http"

	"github.com/louisbranch/parley/internal/services/web/flow"
	module "github.com/louisbranch/parley/internal/services/web/module"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/parley/internal/services/web/routepath"
)

// Config carries the module's collaborators.
type Config struct {
	Controller *flow.Controller
	Codec      *flow.Codec
	Policy     requestmeta.SchemePolicy
	// Healthy reports backend availability for the health route.
	Healthy func() bool
}

// Module provides the public auth routes.
type Module struct {
	cfg Config
}

// New returns a public auth module.
func New(cfg Config) Module {
	return Module{cfg: cfg}
}

// ID returns a stable module identifier.
func (Module) ID() string { return "publicauth" }

// Healthy reports whether the auth backend is configured.
func (m Module) Healthy() bool {
	if m.cfg.Healthy == nil {
		return true
	}
	return m.cfg.Healthy()
}

// Mount wires public auth route handlers.
func (m Module) Mount() (module.Mount, error) {
	h, err := newHandlers(m.cfg)
	if err != nil {
		return module.Mount{}, err
	}
	mux := http.NewServeMux()
	registerRoutes(mux, h)
	return module.Mount{Prefix: routepath.Root, Handler: mux}, nil
}
