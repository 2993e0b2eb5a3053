package modules

import (
	"github.com/louisbranch/parley/internal/services/web/modules/dashboard"
	"github.com/louisbranch/parley/internal/services/web/modules/publicauth"
)

// DefaultPublicModules returns modules reachable without a session.
func DefaultPublicModules(deps Dependencies) []Module {
	return []Module{
		publicauth.New(publicauth.Config{
			Controller: deps.Controller,
			Codec:      deps.Codec,
			Policy:     deps.Policy,
			Healthy:    deps.BackendHealthy,
		}),
	}
}

// DefaultProtectedModules returns modules that need a session token.
func DefaultProtectedModules(Dependencies) []Module {
	return []Module{
		dashboard.New(),
	}
}
