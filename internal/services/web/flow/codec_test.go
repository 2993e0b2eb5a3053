package flow

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	codec, err := NewCodec([]byte("test-secret-test-secret-test-sec"), time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec
}

func TestCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	raw, err := codec.Encode("v-1", awaiting("ada@example.com"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode("v-1", raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != awaiting("ada@example.com") {
		t.Fatalf("Decode = %+v, want awaiting ada@example.com", got)
	}
}

func TestCodecRejectsTamperedAndForeignTokens(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	raw, err := codec.Encode("v-1", awaiting("ada@example.com"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	other, err := NewCodec([]byte("another-secret-another-secret-00"), time.Minute)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	forged, err := other.Encode("v-1", awaiting("mallory@example.com"))
	if err != nil {
		t.Fatalf("Encode forged: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, stateClaims{Step: StepAwaitingVerification, Email: "x@y.z"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	tests := []struct {
		name      string
		visitorID string
		raw       string
	}{
		{name: "other visitor", visitorID: "v-2", raw: raw},
		{name: "other key", visitorID: "v-1", raw: forged},
		{name: "truncated", visitorID: "v-1", raw: raw[:len(raw)-4]},
		{name: "alg none", visitorID: "v-1", raw: unsigned},
		{name: "garbage", visitorID: "v-1", raw: "not-a-jwt"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := codec.Decode(tc.visitorID, tc.raw); !errors.Is(err, ErrInvalidState) {
				t.Fatalf("Decode err = %v, want ErrInvalidState", err)
			}
		})
	}
}

func TestCodecRejectsExpiredState(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	issued := time.Unix(1_700_000_000, 0)
	codec.now = func() time.Time { return issued }
	raw, err := codec.Encode("v-1", awaiting("a@b.c"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	codec.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := codec.Decode("v-1", raw); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("Decode err = %v, want ErrInvalidState", err)
	}
}

func TestNewCodecGeneratesSecretWhenEmpty(t *testing.T) {
	t.Parallel()

	a, err := NewCodec(nil, 0)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	b, err := NewCodec(nil, 0)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	raw, err := a.Encode("v", awaiting("a@b.c"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := b.Decode("v", raw); err == nil {
		t.Fatal("expected independent random secrets")
	}
	if a.ttl != DefaultStateTTL {
		t.Fatalf("ttl = %s, want %s", a.ttl, DefaultStateTTL)
	}
}

func TestCookieWriteReadAndClear(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	req := httptest.NewRequest(http.MethodPost, "http://example.com/signup", nil)
	rr := httptest.NewRecorder()
	if err := codec.Write(rr, req, "v-1", awaiting("a@b.c"), requestmeta.SchemePolicy{}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cookie, err := http.ParseSetCookie(rr.Header().Get("Set-Cookie"))
	if err != nil {
		t.Fatalf("ParseSetCookie: %v", err)
	}
	if cookie.Name != CookieName || !cookie.HttpOnly || cookie.MaxAge != 60 {
		t.Fatalf("cookie = %+v", cookie)
	}

	next := httptest.NewRequest(http.MethodGet, "http://example.com/verify-otp", nil)
	next.AddCookie(cookie)
	if got := codec.Read(next, "v-1"); got != awaiting("a@b.c") {
		t.Fatalf("Read = %+v", got)
	}
	if got := codec.Read(next, "v-2"); !got.IsAnonymous() {
		t.Fatalf("Read(other visitor) = %+v, want anonymous", got)
	}

	clearRR := httptest.NewRecorder()
	if err := codec.Write(clearRR, next, "v-1", Anonymous(), requestmeta.SchemePolicy{}); err != nil {
		t.Fatalf("Write anonymous: %v", err)
	}
	if got := clearRR.Header().Get("Set-Cookie"); !strings.Contains(got, "Max-Age=0") {
		t.Fatalf("Set-Cookie = %q, want expiry", got)
	}
}

func TestReadWithoutCookieIsAnonymous(t *testing.T) {
	t.Parallel()

	codec := newTestCodec(t)
	if got := codec.Read(httptest.NewRequest(http.MethodGet, "/", nil), "v"); !got.IsAnonymous() {
		t.Fatalf("Read = %+v, want anonymous", got)
	}
	if got := codec.Read(nil, "v"); !got.IsAnonymous() {
		t.Fatalf("Read(nil) = %+v, want anonymous", got)
	}
}
