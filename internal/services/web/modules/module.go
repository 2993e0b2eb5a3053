// Package modules defines web module registry helpers.
package modules

import (
	"github.com/louisbranch/parley/internal/services/web/flow"
	module "github.com/louisbranch/parley/internal/services/web/module"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
)

// Mount aliases the module mount contract.
type Mount = module.Mount

// Module aliases the module interface contract.
type Module = module.Module

// Dependencies carries what the registry needs to compose web modules.
type Dependencies struct {
	Controller *flow.Controller
	Codec      *flow.Codec
	Policy     requestmeta.SchemePolicy
	// BackendHealthy reports whether the auth backend is configured.
	BackendHealthy func() bool
}
