// Package app mounts web modules onto one guarded root handler.
package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/parley/internal/services/web/guard"
	module "github.com/louisbranch/parley/internal/services/web/module"
	"github.com/louisbranch/parley/internal/services/web/routepath"
	"github.com/louisbranch/parley/internal/services/web/session"
)

// ComposeInput carries module groups and shared composition contracts.
type ComposeInput struct {
	PublicModules    []module.Module
	ProtectedModules []module.Module
	// Sessions answers the guard's auth questions.
	Sessions guard.StateReader
	// ResolveVisitor names the request's visitor.
	ResolveVisitor module.ResolveVisitor
	// Placeholder renders while sessions are still loading.
	Placeholder http.Handler
}

// Compose builds a guarded root handler from module groups.
func Compose(input ComposeInput) (http.Handler, error) {
	root := http.NewServeMux()
	seen := make(map[string]string)
	var reporters []module.HealthReporter

	for _, feature := range input.PublicModules {
		if feature == nil {
			return nil, fmt.Errorf("public module is nil")
		}
		if err := mountModule(root, feature, seen, false); err != nil {
			return nil, err
		}
		if reporter, ok := feature.(module.HealthReporter); ok {
			reporters = append(reporters, reporter)
		}
	}
	for _, feature := range input.ProtectedModules {
		if feature == nil {
			return nil, fmt.Errorf("protected module is nil")
		}
		if err := mountModule(root, feature, seen, true); err != nil {
			return nil, err
		}
		if reporter, ok := feature.(module.HealthReporter); ok {
			reporters = append(reporters, reporter)
		}
	}
	root.Handle(http.MethodGet+" "+routepath.Health, healthHandler(reporters))

	sessions := input.Sessions
	if sessions == nil {
		sessions = anonymousSessions{}
	}
	visitor := input.ResolveVisitor
	if visitor == nil {
		visitor = func(*http.Request) string { return "" }
	}
	return guard.Middleware(sessions, visitor, input.Placeholder)(root), nil
}

func mountModule(root *http.ServeMux, feature module.Module, seen map[string]string, protected bool) error {
	mount, err := feature.Mount()
	if err != nil {
		return fmt.Errorf("mount module %q: %w", feature.ID(), err)
	}
	prefix := mount.Prefix
	if err := validatePrefix(prefix); err != nil {
		return fmt.Errorf("mount module %q has invalid prefix %q: %w", feature.ID(), prefix, err)
	}
	if mount.Handler == nil {
		return fmt.Errorf("mount module %q: handler is required", feature.ID())
	}
	isProtected := guard.Classify(prefix) == guard.Protected
	if protected && !isProtected {
		return fmt.Errorf("module %q must mount on a protected route, got %q", feature.ID(), prefix)
	}
	if !protected && isProtected {
		return fmt.Errorf("module %q has protected prefix %q in public group", feature.ID(), prefix)
	}
	if previous, ok := seen[prefix]; ok {
		return fmt.Errorf("module %q duplicates prefix %q owned by module %q", feature.ID(), prefix, previous)
	}
	seen[prefix] = feature.ID()
	root.Handle(prefix, mount.Handler)
	return nil
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix is required")
	}
	if strings.TrimSpace(prefix) != prefix {
		return fmt.Errorf("prefix must not include surrounding whitespace")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("prefix must begin with /")
	}
	return nil
}

// healthHandler answers "ok" while every reporting module is healthy.
func healthHandler(reporters []module.HealthReporter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		for _, reporter := range reporters {
			if !reporter.Healthy() {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
}

type anonymousSessions struct{}

func (anonymousSessions) State(string) session.State { return session.State{} }
