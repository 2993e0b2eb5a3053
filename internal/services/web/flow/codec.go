package flow

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
)

// CookieName carries the signed flow state between requests.
const CookieName = "parley_flow"

// DefaultStateTTL bounds how long a pending verification is remembered.
const DefaultStateTTL = 15 * time.Minute

const stateIssuer = "parley-web"

// ErrInvalidState reports a flow cookie that is malformed, forged, expired or
// issued to another visitor.
var ErrInvalidState = errors.New("invalid flow state")

type stateClaims struct {
	Step  Step   `json:"step,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies flow state with HS256.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec builds a codec keyed by secret. An empty secret gets a random
// per-process key, which invalidates in-flight flows on restart.
func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate flow secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &Codec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Encode signs state for visitorID.
func (c *Codec) Encode(visitorID string, state State) (string, error) {
	now := c.now()
	claims := stateClaims{
		Step:  state.Step,
		Email: state.PendingEmail,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    stateIssuer,
			Subject:   visitorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign flow state: %w", err)
	}
	return signed, nil
}

// Decode verifies raw and returns the state it carries for visitorID.
func (c *Codec) Decode(visitorID, raw string) (State, error) {
	var claims stateClaims
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithSubject(visitorID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !claims.Step.Valid() {
		return State{}, fmt.Errorf("%w: unknown step %q", ErrInvalidState, claims.Step)
	}
	return State{Step: claims.Step, PendingEmail: claims.Email}, nil
}

// Read returns the visitor's flow state. A missing or invalid cookie reads as
// Anonymous.
func (c *Codec) Read(r *http.Request, visitorID string) State {
	if r == nil {
		return Anonymous()
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil {
		return Anonymous()
	}
	state, err := c.Decode(visitorID, cookie.Value)
	if err != nil {
		return Anonymous()
	}
	return state
}

// Write stores state for the next request, clearing the cookie for Anonymous.
func (c *Codec) Write(w http.ResponseWriter, r *http.Request, visitorID string, state State, policy requestmeta.SchemePolicy) error {
	if w == nil {
		return nil
	}
	if state.IsAnonymous() {
		c.Clear(w, r, policy)
		return nil
	}
	value, err := c.Encode(visitorID, state)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl / time.Second),
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the flow cookie.
func (c *Codec) Clear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	})
}
