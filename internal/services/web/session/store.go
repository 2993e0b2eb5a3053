package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/parley/internal/services/web/storage"
)

// DefaultTTL bounds how long a stored token is honoured.
const DefaultTTL = 24 * time.Hour

// State is the read view of one visitor's session.
type State struct {
	Token         string
	Authenticated bool
	// Loading is true only while persisted tokens are being hydrated at startup.
	Loading bool
}

// Change is delivered to observers after a write has been applied.
type Change struct {
	VisitorID string
	State     State
}

type record struct {
	token     string
	createdAt time.Time
	expiresAt time.Time
}

// Options tunes a Store.
type Options struct {
	TTL time.Duration
	Now func() time.Time
}

// Store holds session tokens per visitor.
type Store struct {
	mu      sync.RWMutex
	records map[string]record
	loading bool

	persist storage.SessionStore
	ttl     time.Duration
	now     func() time.Time

	// writers orders storage writes per visitor so mu is never held across I/O.
	writersMu sync.Mutex
	writers   map[string]*writer

	observersMu  sync.Mutex
	observers    map[int]func(Change)
	nextObserver int
}

// NewStore builds a Store in the loading state; call Hydrate to resolve it.
// A nil persist keeps tokens in memory only.
func NewStore(persist storage.SessionStore, opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		records:   make(map[string]record),
		loading:   true,
		persist:   persist,
		ttl:       ttl,
		now:       now,
		observers: make(map[int]func(Change)),
		writers:   make(map[string]*writer),
	}
}

type writer struct {
	mu   sync.Mutex
	refs int
}

// lockVisitor serializes writes for one visitor and returns the unlock func.
func (s *Store) lockVisitor(visitorID string) func() {
	s.writersMu.Lock()
	w, ok := s.writers[visitorID]
	if !ok {
		w = &writer{}
		s.writers[visitorID] = w
	}
	w.refs++
	s.writersMu.Unlock()

	w.mu.Lock()
	return func() {
		w.mu.Unlock()
		s.writersMu.Lock()
		w.refs--
		if w.refs == 0 {
			delete(s.writers, visitorID)
		}
		s.writersMu.Unlock()
	}
}

// Hydrate loads unexpired persisted tokens and ends the loading phase. Loading
// ends even when storage fails so the guard never waits forever.
func (s *Store) Hydrate(ctx context.Context) error {
	var (
		loaded []storage.SessionRecord
		err    error
	)
	if s.persist != nil {
		loaded, err = s.persist.ListSessions(ctx, s.now())
	}

	s.mu.Lock()
	for _, rec := range loaded {
		if _, ok := s.records[rec.VisitorID]; ok {
			continue
		}
		s.records[rec.VisitorID] = record{token: rec.Token, createdAt: rec.CreatedAt, expiresAt: rec.ExpiresAt}
	}
	s.loading = false
	s.mu.Unlock()

	if err != nil {
		log.Printf("web: session hydrate failed, starting empty: %v", err)
		return fmt.Errorf("hydrate sessions: %w", err)
	}
	return nil
}

// Loading reports whether hydration is still in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// State returns the visitor's session as of the last completed write.
func (s *Store) State(visitorID string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked(strings.TrimSpace(visitorID))
}

func (s *Store) stateLocked(visitorID string) State {
	if s.loading {
		return State{Loading: true}
	}
	rec, ok := s.records[visitorID]
	if !ok || !s.now().Before(rec.expiresAt) {
		return State{}
	}
	return State{Token: rec.token, Authenticated: true}
}

// SetToken stores token for the visitor and notifies observers. The token is
// persisted before it becomes visible, and readers are never blocked on storage.
func (s *Store) SetToken(ctx context.Context, visitorID, token string) error {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return fmt.Errorf("visitor id is required")
	}
	if token == "" {
		return fmt.Errorf("session token is required")
	}

	unlock := s.lockVisitor(visitorID)
	defer unlock()

	now := s.now().UTC()
	rec := record{token: token, createdAt: now, expiresAt: now.Add(s.ttl)}
	s.mu.RLock()
	if existing, ok := s.records[visitorID]; ok {
		rec.createdAt = existing.createdAt
	}
	s.mu.RUnlock()
	if s.persist != nil {
		err := s.persist.PutSession(ctx, storage.SessionRecord{
			VisitorID: visitorID,
			Token:     token,
			CreatedAt: rec.createdAt,
			ExpiresAt: rec.expiresAt,
		})
		if err != nil {
			return fmt.Errorf("persist session: %w", err)
		}
	}

	s.mu.Lock()
	s.records[visitorID] = rec
	state := s.stateLocked(visitorID)
	s.mu.Unlock()

	s.notify(Change{VisitorID: visitorID, State: state})
	return nil
}

// ClearToken removes the visitor's token and notifies observers. Clearing an
// absent token is not an error.
func (s *Store) ClearToken(ctx context.Context, visitorID string) error {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return fmt.Errorf("visitor id is required")
	}

	unlock := s.lockVisitor(visitorID)
	defer unlock()

	if s.persist != nil {
		if err := s.persist.DeleteSession(ctx, visitorID); err != nil {
			return fmt.Errorf("delete persisted session: %w", err)
		}
	}

	s.mu.Lock()
	delete(s.records, visitorID)
	state := s.stateLocked(visitorID)
	s.mu.Unlock()

	s.notify(Change{VisitorID: visitorID, State: state})
	return nil
}

// Sweep drops tokens expired at now from memory and storage and returns how
// many in-memory sessions ended.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	var expired []string
	for visitorID, rec := range s.records {
		if !now.Before(rec.expiresAt) {
			delete(s.records, visitorID)
			expired = append(expired, visitorID)
		}
	}
	s.mu.Unlock()

	for _, visitorID := range expired {
		s.notify(Change{VisitorID: visitorID})
	}
	if s.persist == nil {
		return len(expired), nil
	}
	if _, err := s.persist.DeleteExpiredSessions(ctx, now); err != nil {
		return len(expired), fmt.Errorf("delete expired sessions: %w", err)
	}
	return len(expired), nil
}

// Subscribe registers fn for every applied change and returns a function that
// removes it. fn runs on the writer's goroutine after the write is visible.
func (s *Store) Subscribe(fn func(Change)) func() {
	if fn == nil {
		return func() {}
	}
	s.observersMu.Lock()
	key := s.nextObserver
	s.nextObserver++
	s.observers[key] = fn
	s.observersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.observersMu.Lock()
			delete(s.observers, key)
			s.observersMu.Unlock()
		})
	}
}

func (s *Store) notify(change Change) {
	s.observersMu.Lock()
	observers := make([]func(Change), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.observersMu.Unlock()

	for _, fn := range observers {
		fn(change)
	}
}
