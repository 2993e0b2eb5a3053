package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louisbranch/parley/internal/services/web/routepath"
	"github.com/louisbranch/parley/internal/services/web/session"
)

var (
	loading   = session.State{Loading: true}
	anonymous = session.State{}
	signedIn  = session.State{Token: "abc123", Authenticated: true}
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := map[string]RouteClass{
		routepath.Root:      Entry,
		routepath.Signup:    AnonymousOnly,
		routepath.VerifyOTP: AnonymousOnly,
		routepath.ResendOTP: AnonymousOnly,
		routepath.Login:     AnonymousOnly,
		routepath.Dashboard: Protected,
		routepath.Logout:    Protected,
		routepath.Health:    Public,
		"/nope":             Public,
	}
	for path, want := range tests {
		if got := Classify(path); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestDecide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state session.State
		class RouteClass
		want  Decision
	}{
		{name: "loading protected", state: loading, class: Protected, want: Decision{Action: Placeholder}},
		{name: "loading entry", state: loading, class: Entry, want: Decision{Action: Placeholder}},
		{name: "loading anonymous-only", state: loading, class: AnonymousOnly, want: Decision{Action: Placeholder}},
		{name: "loading public", state: loading, class: Public, want: Decision{Action: Render}},
		{name: "anonymous protected", state: anonymous, class: Protected, want: Decision{Action: Redirect, Location: routepath.Login}},
		{name: "anonymous login", state: anonymous, class: AnonymousOnly, want: Decision{Action: Render}},
		{name: "anonymous entry", state: anonymous, class: Entry, want: Decision{Action: Redirect, Location: routepath.Login}},
		{name: "signed in protected", state: signedIn, class: Protected, want: Decision{Action: Render}},
		{name: "signed in login", state: signedIn, class: AnonymousOnly, want: Decision{Action: Redirect, Location: routepath.Dashboard}},
		{name: "signed in entry", state: signedIn, class: Entry, want: Decision{Action: Redirect, Location: routepath.Dashboard}},
		{name: "signed in public", state: signedIn, class: Public, want: Decision{Action: Render}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Decide(tc.state, tc.class); got != tc.want {
				t.Fatalf("Decide = %+v, want %+v", got, tc.want)
			}
		})
	}
}

type fixedStates map[string]session.State

func (f fixedStates) State(visitorID string) session.State {
	return f[visitorID]
}

func visitorHeader(r *http.Request) string {
	return r.Header.Get("X-Visitor")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	states := fixedStates{"loading": loading, "anon": anonymous, "in": signedIn}
	placeholder := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := Middleware(states, visitorHeader, placeholder)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		visitor  string
		path     string
		status   int
		location string
	}{
		{visitor: "anon", path: routepath.Dashboard, status: http.StatusSeeOther, location: routepath.Login},
		{visitor: "in", path: routepath.Login, status: http.StatusSeeOther, location: routepath.Dashboard},
		{visitor: "in", path: routepath.Dashboard, status: http.StatusOK},
		{visitor: "anon", path: routepath.Signup, status: http.StatusOK},
		{visitor: "loading", path: routepath.Dashboard, status: http.StatusAccepted},
		{visitor: "loading", path: routepath.Health, status: http.StatusOK},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		req.Header.Set("X-Visitor", tc.visitor)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tc.status {
			t.Fatalf("%s %s status = %d, want %d", tc.visitor, tc.path, rr.Code, tc.status)
		}
		if got := rr.Header().Get("Location"); got != tc.location {
			t.Fatalf("%s %s Location = %q, want %q", tc.visitor, tc.path, got, tc.location)
		}
	}
}

func TestLogoutThenGuardRedirectsAwayFromProtected(t *testing.T) {
	t.Parallel()

	store := session.NewStore(nil, session.Options{})
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	ctx := context.Background()
	if err := store.SetToken(ctx, "v", "abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if got := Decide(store.State("v"), Protected); got.Action != Render {
		t.Fatalf("Decide before logout = %+v, want render", got)
	}
	if err := store.ClearToken(ctx, "v"); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if got := Decide(store.State("v"), Protected); got.Action != Redirect || got.Location != routepath.Login {
		t.Fatalf("Decide after logout = %+v, want redirect to login", got)
	}
}
