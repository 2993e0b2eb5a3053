// Package guard decides whether a screen may render for a visitor.
//
// Decide is a pure function of the visitor's session state and the class of
// the requested route. It holds no state of its own.
package guard

import (
	"net/http"
	"slices"

	"github.com/louisbranch/parley/internal/services/web/routepath"
	"github.com/louisbranch/parley/internal/services/web/session"
)

// RouteClass groups routes by their access rule.
type RouteClass int

const (
	// Public routes render for everyone.
	Public RouteClass = iota
	// Entry is the root, which only ever redirects.
	Entry
	// AnonymousOnly routes are the signup and login screens.
	AnonymousOnly
	// Protected routes need a session token.
	Protected
)

func (c RouteClass) String() string {
	switch c {
	case Entry:
		return "entry"
	case AnonymousOnly:
		return "anonymous_only"
	case Protected:
		return "protected"
	default:
		return "public"
	}
}

// Classify maps a request path to its route class.
func Classify(path string) RouteClass {
	switch {
	case path == routepath.Root:
		return Entry
	case slices.Contains(routepath.AnonymousOnly, path):
		return AnonymousOnly
	case slices.Contains(routepath.Protected, path):
		return Protected
	default:
		return Public
	}
}

// Action is what the guard wants done with a request.
type Action int

const (
	// Render lets the screen render.
	Render Action = iota
	// Redirect sends the visitor to Decision.Location.
	Redirect
	// Placeholder renders a neutral page while the session is still loading.
	Placeholder
)

// Decision is the guard's verdict.
type Decision struct {
	Action   Action
	Location string
}

// Decide applies the access rules for class to state.
func Decide(state session.State, class RouteClass) Decision {
	if class == Public {
		return Decision{Action: Render}
	}
	if state.Loading {
		return Decision{Action: Placeholder}
	}
	switch class {
	case Entry:
		if state.Authenticated {
			return Decision{Action: Redirect, Location: routepath.Landing}
		}
		return Decision{Action: Redirect, Location: routepath.Login}
	case AnonymousOnly:
		if state.Authenticated {
			return Decision{Action: Redirect, Location: routepath.Landing}
		}
	case Protected:
		if !state.Authenticated {
			return Decision{Action: Redirect, Location: routepath.Login}
		}
	}
	return Decision{Action: Render}
}

// StateReader reads a visitor's session.
type StateReader interface {
	State(visitorID string) session.State
}

// Middleware enforces Decide on every request. visitor resolves the request's
// visitor id; placeholder renders the loading page.
func Middleware(sessions StateReader, visitor func(*http.Request) string, placeholder http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := Decide(sessions.State(visitor(r)), Classify(r.URL.Path))
			switch decision.Action {
			case Redirect:
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)
			case Placeholder:
				w.Header().Set("Cache-Control", "no-store")
				if placeholder == nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				placeholder.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
