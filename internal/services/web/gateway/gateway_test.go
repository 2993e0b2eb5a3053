package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/louisbranch/parley/internal/services/web/platform/errors"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type capturedRequest struct {
	Method      string
	Path        string
	ContentType string
	Auth        string
	Body        map[string]string
}

// backend serves one canned response and records the request it saw.
func backend(t *testing.T, status int, body string) (*HTTPGateway, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Method = r.Method
		captured.Path = r.URL.Path
		captured.ContentType = r.Header.Get("Content-Type")
		captured.Auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	gw, err := NewHTTPGateway(srv.URL+"/", srv.Client(), time.Second)
	if err != nil {
		t.Fatalf("NewHTTPGateway: %v", err)
	}
	return gw, captured
}

// deadGateway points at a server that is already closed.
func deadGateway(t *testing.T) *HTTPGateway {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()
	gw, err := NewHTTPGateway(addr, &http.Client{}, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPGateway: %v", err)
	}
	return gw
}

func assertAppError(t *testing.T, err error, kind apperrors.Kind, message string) {
	t.Helper()
	if err == nil {
		t.Fatalf("err = nil, want %s %q", kind, message)
	}
	if got := apperrors.KindOf(err); got != kind {
		t.Fatalf("kind = %q, want %q (err=%v)", got, kind, err)
	}
	if got := apperrors.PublicMessage(err, ""); got != message {
		t.Fatalf("message = %q, want %q", got, message)
	}
}

func TestNewHTTPGatewayValidatesURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://backend", "http://", "://bad"} {
		if _, err := NewHTTPGateway(raw, nil, 0); err == nil {
			t.Fatalf("NewHTTPGateway(%q) err = nil, want error", raw)
		}
	}
	gw, err := NewHTTPGateway(" http://127.0.0.1:8000/ ", nil, 0)
	if err != nil {
		t.Fatalf("NewHTTPGateway: %v", err)
	}
	if gw.baseURL != "http://127.0.0.1:8000" {
		t.Fatalf("baseURL = %q, want trailing slash trimmed", gw.baseURL)
	}
	if gw.timeout <= 0 || gw.client == nil {
		t.Fatalf("defaults not applied: timeout=%s client=%v", gw.timeout, gw.client)
	}
}

func TestSignupSendsDraftAndReturnsMessage(t *testing.T) {
	t.Parallel()

	gw, captured := backend(t, http.StatusCreated, `{"message":"OTP sent to your email"}`)
	reply, err := gw.Signup(context.Background(), SignupRequest{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if reply.Message != "OTP sent to your email" {
		t.Fatalf("Message = %q", reply.Message)
	}
	if captured.Method != http.MethodPost || captured.Path != PathSignup {
		t.Fatalf("request = %s %s, want POST %s", captured.Method, captured.Path, PathSignup)
	}
	if captured.ContentType != "application/json" {
		t.Fatalf("Content-Type = %q", captured.ContentType)
	}
	if captured.Auth != "" {
		t.Fatalf("Authorization = %q, want none on pre-auth calls", captured.Auth)
	}
	want := map[string]string{"first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com", "password": "pw"}
	for key, value := range want {
		if captured.Body[key] != value {
			t.Fatalf("body[%s] = %q, want %q", key, captured.Body[key], value)
		}
	}
}

func TestSignupRejection(t *testing.T) {
	t.Parallel()

	gw, _ := backend(t, http.StatusBadRequest, `{"message":"Email already registered"}`)
	_, err := gw.Signup(context.Background(), SignupRequest{Email: "a@b.c"})
	assertAppError(t, err, apperrors.KindRejected, "Email already registered")

	gw, _ = backend(t, http.StatusBadRequest, `{}`)
	_, err = gw.Signup(context.Background(), SignupRequest{Email: "a@b.c"})
	assertAppError(t, err, apperrors.KindRejected, MessageSignupFailed)
}

func TestVerifyOTPUsesFixedSuccessMessage(t *testing.T) {
	t.Parallel()

	gw, captured := backend(t, http.StatusOK, `{"message":"whatever the server says"}`)
	reply, err := gw.VerifyOTP(context.Background(), "ada@example.com", "123456")
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if reply.Message != MessageVerified {
		t.Fatalf("Message = %q, want %q", reply.Message, MessageVerified)
	}
	if captured.Path != PathVerifyOTP || captured.Body["email"] != "ada@example.com" || captured.Body["otp"] != "123456" {
		t.Fatalf("request = %s %+v", captured.Path, captured.Body)
	}
}

func TestVerifyOTPRejection(t *testing.T) {
	t.Parallel()

	gw, _ := backend(t, http.StatusBadRequest, `{"message":"OTP expired"}`)
	_, err := gw.VerifyOTP(context.Background(), "a@b.c", "000000")
	assertAppError(t, err, apperrors.KindRejected, "OTP expired")

	gw, _ = backend(t, http.StatusBadRequest, `{"message":""}`)
	_, err = gw.VerifyOTP(context.Background(), "a@b.c", "000000")
	assertAppError(t, err, apperrors.KindRejected, MessageInvalidOTP)
}

func TestResendOTPReturnsMessageForAnyCompletedResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{name: "success", status: http.StatusOK, body: `{"message":"A new OTP was sent"}`, wantMessage: "A new OTP was sent"},
		{name: "success without message", status: http.StatusOK, body: `{}`, wantMessage: MessageOTPResent},
		{name: "failure status still surfaces message", status: http.StatusTooManyRequests, body: `{"message":"Wait before requesting another code"}`, wantMessage: "Wait before requesting another code"},
		{name: "failure status without message", status: http.StatusNotFound, body: `{}`, wantMessage: MessageOTPResent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			gw, captured := backend(t, tc.status, tc.body)
			reply, err := gw.ResendOTP(context.Background(), "ada@example.com")
			if err != nil {
				t.Fatalf("ResendOTP: %v", err)
			}
			if reply.Message != tc.wantMessage {
				t.Fatalf("Message = %q, want %q", reply.Message, tc.wantMessage)
			}
			if reply.StatusCode != tc.status {
				t.Fatalf("StatusCode = %d, want %d", reply.StatusCode, tc.status)
			}
			if captured.Path != PathResendOTP || captured.Body["email"] != "ada@example.com" {
				t.Fatalf("request = %s %+v", captured.Path, captured.Body)
			}
		})
	}
}

func TestLoginReturnsToken(t *testing.T) {
	t.Parallel()

	gw, captured := backend(t, http.StatusOK, `{"token":"abc123"}`)
	reply, err := gw.Login(context.Background(), "ada@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if reply.Token != "abc123" {
		t.Fatalf("Token = %q, want %q", reply.Token, "abc123")
	}
	if !reply.OK() {
		t.Fatalf("OK() = false for status %d", reply.StatusCode)
	}
	if captured.Path != PathLogin || captured.Body["password"] != "pw" {
		t.Fatalf("request = %s %+v", captured.Path, captured.Body)
	}
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	gw, _ := backend(t, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	_, err := gw.Login(context.Background(), "a@b.c", "x")
	assertAppError(t, err, apperrors.KindRejected, "Invalid credentials")

	gw, _ = backend(t, http.StatusUnauthorized, `{}`)
	_, err = gw.Login(context.Background(), "a@b.c", "x")
	assertAppError(t, err, apperrors.KindRejected, MessageLoginFailed)

	gw, _ = backend(t, http.StatusOK, `{"message":"ok"}`)
	_, err = gw.Login(context.Background(), "a@b.c", "x")
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
}

func TestTransportFailuresUseGenericMessage(t *testing.T) {
	t.Parallel()

	gw := deadGateway(t)
	ctx := context.Background()

	_, err := gw.Signup(ctx, SignupRequest{Email: "a@b.c"})
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
	_, err = gw.VerifyOTP(ctx, "a@b.c", "123456")
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
	_, err = gw.Login(ctx, "a@b.c", "x")
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
	_, err = gw.ResendOTP(ctx, "a@b.c")
	assertAppError(t, err, apperrors.KindUnavailable, MessageResendFailed)
}

func TestNonJSONBodyIsTransportFailure(t *testing.T) {
	t.Parallel()

	gw, _ := backend(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	_, err := gw.Login(context.Background(), "a@b.c", "x")
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)

	gw, _ = backend(t, http.StatusOK, `not json`)
	_, err = gw.ResendOTP(context.Background(), "a@b.c")
	assertAppError(t, err, apperrors.KindUnavailable, MessageResendFailed)
}

func TestTimeoutIsTransportFailure(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	gw, err := NewHTTPGateway(srv.URL, srv.Client(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewHTTPGateway: %v", err)
	}
	_, err = gw.Login(context.Background(), "a@b.c", "x")
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
	if got := hits.Load(); got != 1 {
		t.Fatalf("backend hits = %d, want exactly 1 (no retry)", got)
	}
}

func TestUnavailableGatewayFailsEveryCall(t *testing.T) {
	t.Parallel()

	var gw Gateway = Unavailable{}
	ctx := context.Background()
	_, err := gw.Signup(ctx, SignupRequest{})
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
	_, err = gw.VerifyOTP(ctx, "", "")
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
	_, err = gw.ResendOTP(ctx, "")
	assertAppError(t, err, apperrors.KindUnavailable, MessageResendFailed)
	_, err = gw.Login(ctx, "", "")
	assertAppError(t, err, apperrors.KindUnavailable, MessageServerError)
}
