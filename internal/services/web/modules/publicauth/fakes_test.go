package publicauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/louisbranch/parley/internal/services/web/flow"
	"github.com/louisbranch/parley/internal/services/web/gateway"
	"github.com/louisbranch/parley/internal/services/web/session"
)

type fakeGateway struct {
	mu     sync.Mutex
	calls  []string
	signup gateway.Reply
	verify gateway.Reply
	resend gateway.Reply
	login  gateway.Reply
	err    error
}

func (f *fakeGateway) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeGateway) Signup(context.Context, gateway.SignupRequest) (gateway.Reply, error) {
	f.record("signup")
	return f.signup, f.err
}

func (f *fakeGateway) VerifyOTP(context.Context, string, string) (gateway.Reply, error) {
	f.record("verify_otp")
	return f.verify, f.err
}

func (f *fakeGateway) ResendOTP(context.Context, string) (gateway.Reply, error) {
	f.record("resend_otp")
	return f.resend, f.err
}

func (f *fakeGateway) Login(context.Context, string, string) (gateway.Reply, error) {
	f.record("login")
	return f.login, f.err
}

func okGateway() *fakeGateway {
	return &fakeGateway{
		signup: gateway.Reply{Message: "User registered. Check your email.", StatusCode: http.StatusCreated},
		verify: gateway.Reply{Message: gateway.MessageVerified, StatusCode: http.StatusOK},
		resend: gateway.Reply{Message: "OTP sent again.", StatusCode: http.StatusOK},
		login:  gateway.Reply{Message: "Welcome", Token: "tok-1", StatusCode: http.StatusOK},
	}
}

type testEnv struct {
	store *session.Store
	mux   *http.ServeMux
}

func newTestEnv(t *testing.T, gw gateway.Gateway) testEnv {
	t.Helper()
	store := session.NewStore(nil, session.Options{})
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	codec, err := flow.NewCodec([]byte("test-secret"), 0)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	h, err := newHandlers(Config{
		Controller: flow.NewController(gw, store, flow.Options{}),
		Codec:      codec,
	})
	if err != nil {
		t.Fatalf("newHandlers() error = %v", err)
	}
	mux := http.NewServeMux()
	registerRoutes(mux, h)
	return testEnv{store: store, mux: mux}
}

// browser carries cookies between requests like a real user agent.
type browser struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, handler http.Handler) *browser {
	return &browser{t: t, handler: handler, cookies: map[string]*http.Cookie{}}
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	b.handler.ServeHTTP(rr, req)
	for _, cookie := range rr.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(b.cookies, cookie.Name)
			continue
		}
		b.cookies[cookie.Name] = cookie
	}
	return rr
}

func (b *browser) cookie(name string) string {
	if cookie, ok := b.cookies[name]; ok {
		return cookie.Value
	}
	return ""
}

func signupForm() url.Values {
	return url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"email":      {"ada@example.com"},
		"password":   {"secret"},
	}
}
