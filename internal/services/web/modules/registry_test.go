package modules

import (
	"testing"

	module "github.com/louisbranch/parley/internal/services/web/module"
)

func TestDefaultModules(t *testing.T) {
	t.Parallel()

	public := DefaultPublicModules(Dependencies{})
	protected := DefaultProtectedModules(Dependencies{})
	if len(public) != 1 {
		t.Fatalf("public module count = %d, want %d", len(public), 1)
	}
	if len(protected) != 1 {
		t.Fatalf("protected module count = %d, want %d", len(protected), 1)
	}
	if got := public[0].ID(); got != "publicauth" {
		t.Fatalf("default public module id = %q, want %q", got, "publicauth")
	}
	if got := protected[0].ID(); got != "dashboard" {
		t.Fatalf("default protected module id = %q, want %q", got, "dashboard")
	}
}

func TestPublicModuleReportsBackendHealth(t *testing.T) {
	t.Parallel()

	public := DefaultPublicModules(Dependencies{BackendHealthy: func() bool { return false }})
	reporter, ok := public[0].(module.HealthReporter)
	if !ok {
		t.Fatal("expected publicauth to report health")
	}
	if reporter.Healthy() {
		t.Fatal("expected unhealthy backend to be reported")
	}
}

func TestProtectedModulesMount(t *testing.T) {
	t.Parallel()

	for _, mod := range DefaultProtectedModules(Dependencies{}) {
		mount, err := mod.Mount()
		if err != nil {
			t.Fatalf("%s Mount() error = %v", mod.ID(), err)
		}
		if mount.Prefix == "" || mount.Handler == nil {
			t.Fatalf("%s mount = %+v", mod.ID(), mount)
		}
	}
}
