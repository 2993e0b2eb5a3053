// Package ratelimit throttles auth form submissions per visitor.
package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/parley/internal/services/web/platform/errors"
	"github.com/louisbranch/parley/internal/services/web/platform/httpx"
	"github.com/louisbranch/parley/internal/services/web/platform/sessioncookie"
	"golang.org/x/time/rate"
)

// idleTTL is how long an untouched limiter survives a Prune.
const idleTTL = 5 * time.Minute

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per visitor.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

// New builds a limiter allowing perSecond sustained requests with burst.
// A non-positive rate disables limiting.
func New(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		entries: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether key may make one more request now.
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()
	return e.limiter.AllowN(now, 1)
}

// Prune drops limiters idle since before now minus the idle TTL and returns
// how many were removed.
func (l *Limiter) Prune(now time.Time) int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(l.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked visitors.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Middleware rejects POSTs over the limit with 429. Other methods pass through.
func (l *Limiter) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l == nil || r.Method != http.MethodPost || l.Allow(Key(r)) {
				next.ServeHTTP(w, r)
				return
			}
			retryAfter := 1
			if l.limit != rate.Inf && l.limit > 0 {
				retryAfter = max(int(1.0/float64(l.limit)), 1)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httpx.WriteError(w, apperrors.E(apperrors.KindRateLimited, "Too many attempts. Please wait a moment and try again."))
		})
	}
}

// Key identifies the caller: the visitor cookie when present, else the peer IP.
func Key(r *http.Request) string {
	if visitorID, ok := sessioncookie.Read(r); ok {
		return "visitor:" + visitorID
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	return "ip:" + host
}
