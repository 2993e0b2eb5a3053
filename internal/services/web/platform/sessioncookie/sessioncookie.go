// Package sessioncookie owns the browser-session cookie that names a visitor.
//
// The cookie carries no Max-Age, so it lives exactly as long as the browser
// session; the token it keys is held server-side.
package sessioncookie

import (
	"net/http"
	"strings"

	"github.com/louisbranch/parley/internal/platform/id"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
)

// Name is the canonical visitor cookie name.
const Name = "parley_session"

// Read returns the trimmed visitor id when the cookie is present.
func Read(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(Name)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Ensure returns the request's visitor id, minting and setting a new one when
// the cookie is missing.
func Ensure(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) (string, error) {
	if visitorID, ok := Read(r); ok {
		return visitorID, nil
	}
	visitorID, err := id.NewID()
	if err != nil {
		return "", err
	}
	Write(w, r, visitorID, policy)
	return visitorID, nil
}

// Write sets the visitor cookie.
func Write(w http.ResponseWriter, r *http.Request, visitorID string, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    strings.TrimSpace(visitorID),
		Path:     "/",
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires the visitor cookie so the next request starts a new visitor.
func Clear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPSWithPolicy(r, policy),
		SameSite: http.SameSiteLaxMode,
	})
}
