// Package composition assembles the web root handler: modules, guard and the
// shared middleware chain.
package composition

import (
	"log"
	"net/http"

	"github.com/a-h/templ"
	webapp "github.com/louisbranch/parley/internal/services/web/app"
	"github.com/louisbranch/parley/internal/services/web/guard"
	"github.com/louisbranch/parley/internal/services/web/modules"
	"github.com/louisbranch/parley/internal/services/web/platform/httpx"
	"github.com/louisbranch/parley/internal/services/web/platform/observability"
	"github.com/louisbranch/parley/internal/services/web/platform/pagerender"
	"github.com/louisbranch/parley/internal/services/web/platform/ratelimit"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/parley/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/parley/internal/services/web/platform/weberror"
	webtemplates "github.com/louisbranch/parley/internal/services/web/templates"
	"golang.org/x/text/message"
)

// ComposeInput describes the contracts needed to compose the application mux.
type ComposeInput struct {
	ModuleDependencies  modules.Dependencies
	Sessions            guard.StateReader
	Limiter             *ratelimit.Limiter
	RequestSchemePolicy requestmeta.SchemePolicy
	// Logger receives request logs; nil uses the standard logger.
	Logger *log.Logger
}

// ComposeAppHandler builds the web app handler wrapped in the middleware chain.
func ComposeAppHandler(input ComposeInput) (http.Handler, error) {
	deps := input.ModuleDependencies
	deps.Policy = input.RequestSchemePolicy

	appHandler, err := webapp.Compose(webapp.ComposeInput{
		PublicModules:    modules.DefaultPublicModules(deps),
		ProtectedModules: modules.DefaultProtectedModules(deps),
		Sessions:         input.Sessions,
		ResolveVisitor:   resolveVisitor,
		Placeholder:      placeholder(),
	})
	if err != nil {
		return nil, err
	}

	logger := input.Logger
	if logger == nil {
		logger = log.Default()
	}
	chain := []httpx.Middleware{
		httpx.RecoverPanic(),
		httpx.RequestID(),
		observability.Tracing(),
		observability.RequestLogger(logger),
		httpx.SecurityHeaders(),
		httpx.RequireSameOrigin(input.RequestSchemePolicy),
	}
	if input.Limiter != nil {
		chain = append(chain, input.Limiter.Middleware())
	}
	return httpx.Chain(appHandler, chain...), nil
}

func resolveVisitor(r *http.Request) string {
	visitorID, _ := sessioncookie.Read(r)
	return visitorID
}

// placeholder renders the loading page that retries the same URL.
func placeholder() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := pagerender.WritePage(w, r, http.StatusOK, func(page webtemplates.PageContext, _ *message.Printer) templ.Component {
			return webtemplates.LoadingPage(page)
		})
		if err != nil {
			weberror.WriteModuleError(w, r, err)
		}
	})
}
