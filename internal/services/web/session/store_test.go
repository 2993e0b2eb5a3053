package session

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/parley/internal/services/web/storage"
	"github.com/louisbranch/parley/internal/services/web/storage/sqlite"
)

type fakePersist struct {
	mu        sync.Mutex
	rows      map[string]storage.SessionRecord
	listErr   error
	putErr    error
	deleteErr error
	// putGate, when set, holds PutSession for blockedID until closed.
	blockedID string
	putStart  chan struct{}
	putGate   chan struct{}
}

func newFakePersist() *fakePersist {
	return &fakePersist{rows: make(map[string]storage.SessionRecord)}
}

func (f *fakePersist) Close() error { return nil }

func (f *fakePersist) ListSessions(_ context.Context, now time.Time) ([]storage.SessionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []storage.SessionRecord
	for _, rec := range f.rows {
		if !rec.Expired(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakePersist) PutSession(_ context.Context, rec storage.SessionRecord) error {
	if f.putGate != nil && rec.VisitorID == f.blockedID {
		close(f.putStart)
		<-f.putGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.rows[rec.VisitorID] = rec
	return nil
}

func (f *fakePersist) DeleteSession(_ context.Context, visitorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, visitorID)
	return nil
}

func (f *fakePersist) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for id, rec := range f.rows {
		if rec.Expired(now) {
			delete(f.rows, id)
			removed++
		}
	}
	return removed, nil
}

func hydratedStore(t *testing.T, persist storage.SessionStore, now func() time.Time) *Store {
	t.Helper()
	store := NewStore(persist, Options{TTL: time.Hour, Now: now})
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	return store
}

func TestStoreStartsLoadingUntilHydrated(t *testing.T) {
	t.Parallel()

	store := NewStore(nil, Options{})
	if got := store.State("v"); !got.Loading {
		t.Fatalf("State = %+v, want loading", got)
	}
	if !store.Loading() {
		t.Fatal("Loading() = false, want true before hydrate")
	}
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got := store.State("v"); got.Loading || got.Authenticated {
		t.Fatalf("State = %+v, want resolved anonymous", got)
	}
}

func TestHydrateFailureStillEndsLoading(t *testing.T) {
	t.Parallel()

	persist := newFakePersist()
	persist.listErr = errors.New("disk on fire")
	store := NewStore(persist, Options{})
	if err := store.Hydrate(context.Background()); err == nil {
		t.Fatal("expected hydrate error")
	}
	if store.Loading() {
		t.Fatal("expected loading to end after failed hydrate")
	}
}

func TestSetTokenAuthenticatesVisitor(t *testing.T) {
	t.Parallel()

	store := hydratedStore(t, newFakePersist(), nil)
	if err := store.SetToken(context.Background(), "v", "abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	got := store.State("v")
	if !got.Authenticated {
		t.Fatal("Authenticated = false, want true")
	}
	if got.Token != "abc123" {
		t.Fatalf("Token = %q, want %q", got.Token, "abc123")
	}
	if other := store.State("w"); other.Authenticated {
		t.Fatal("expected other visitor to stay anonymous")
	}
}

func TestSetTokenRejectsEmptyInput(t *testing.T) {
	t.Parallel()

	store := hydratedStore(t, nil, nil)
	if err := store.SetToken(context.Background(), " ", "t"); err == nil {
		t.Fatal("expected error for empty visitor")
	}
	if err := store.SetToken(context.Background(), "v", ""); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestSetTokenPersistFailureLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	persist := newFakePersist()
	persist.putErr = errors.New("readonly")
	store := hydratedStore(t, persist, nil)
	if err := store.SetToken(context.Background(), "v", "abc123"); err == nil {
		t.Fatal("expected persist error")
	}
	if store.State("v").Authenticated {
		t.Fatal("expected visitor to stay anonymous after failed write")
	}
}

func TestClearTokenLogsOut(t *testing.T) {
	t.Parallel()

	persist := newFakePersist()
	store := hydratedStore(t, persist, nil)
	ctx := context.Background()
	if err := store.SetToken(ctx, "v", "abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := store.ClearToken(ctx, "v"); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if got := store.State("v"); got.Authenticated || got.Token != "" {
		t.Fatalf("State = %+v, want anonymous", got)
	}
	if len(persist.rows) != 0 {
		t.Fatalf("persisted rows = %d, want 0", len(persist.rows))
	}
	if err := store.ClearToken(ctx, "v"); err != nil {
		t.Fatalf("second ClearToken: %v", err)
	}
}

func TestObserversSeePostUpdateState(t *testing.T) {
	t.Parallel()

	store := hydratedStore(t, nil, nil)
	var seen []Change
	cancel := store.Subscribe(func(change Change) {
		// Reads from inside the callback must observe the finished write.
		if got := store.State(change.VisitorID); got != change.State {
			t.Errorf("State inside observer = %+v, want %+v", got, change.State)
		}
		seen = append(seen, change)
	})

	ctx := context.Background()
	if err := store.SetToken(ctx, "v", "abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := store.ClearToken(ctx, "v"); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	cancel()
	cancel()
	if err := store.SetToken(ctx, "v", "again"); err != nil {
		t.Fatalf("SetToken after cancel: %v", err)
	}

	if len(seen) != 2 {
		t.Fatalf("changes = %d, want 2", len(seen))
	}
	if !seen[0].State.Authenticated || seen[0].State.Token != "abc123" {
		t.Fatalf("first change = %+v, want authenticated abc123", seen[0])
	}
	if seen[1].State.Authenticated {
		t.Fatalf("second change = %+v, want anonymous", seen[1])
	}
}

func TestTokensExpireAfterTTLAndSweep(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	clock := func() time.Time { return now }
	persist := newFakePersist()
	store := hydratedStore(t, persist, clock)
	if err := store.SetToken(context.Background(), "v", "abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	later := now.Add(2 * time.Hour)
	now = later
	if store.State("v").Authenticated {
		t.Fatal("expected expired token to read as anonymous")
	}
	removed, err := store.Sweep(context.Background(), later)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(persist.rows) != 0 {
		t.Fatalf("persisted rows = %d, want 0 after sweep", len(persist.rows))
	}
}

func TestConcurrentWritesAreAtomic(t *testing.T) {
	t.Parallel()

	store := hydratedStore(t, newFakePersist(), nil)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.SetToken(ctx, "v", "abc123")
		}()
		go func() {
			defer wg.Done()
			got := store.State("v")
			if got.Authenticated != (got.Token != "") {
				t.Errorf("partial state observed: %+v", got)
			}
		}()
	}
	wg.Wait()
}

func TestSlowPersistDoesNotBlockOtherVisitors(t *testing.T) {
	t.Parallel()

	persist := newFakePersist()
	persist.blockedID = "slow"
	persist.putStart = make(chan struct{})
	persist.putGate = make(chan struct{})
	store := hydratedStore(t, persist, nil)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- store.SetToken(ctx, "slow", "tok-slow") }()
	<-persist.putStart

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		if got := store.State("other"); got.Authenticated {
			t.Errorf("State(other) = %+v, want anonymous", got)
		}
		if err := store.SetToken(ctx, "other", "tok-other"); err != nil {
			t.Errorf("SetToken(other) error = %v", err)
		}
		if got := store.State("slow"); got.Authenticated {
			t.Errorf("State(slow) = %+v, want anonymous until persisted", got)
		}
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("store blocked on another visitor's storage write")
	}

	close(persist.putGate)
	if err := <-done; err != nil {
		t.Fatalf("SetToken(slow) error = %v", err)
	}
	if got := store.State("slow"); got.Token != "tok-slow" {
		t.Fatalf("State(slow).Token = %q, want %q", got.Token, "tok-slow")
	}
	if got := store.State("other"); got.Token != "tok-other" {
		t.Fatalf("State(other).Token = %q, want %q", got.Token, "tok-other")
	}
}

func TestTokenSurvivesRestartThroughSQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	first, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	store := hydratedStore(t, first, nil)
	if err := store.SetToken(ctx, "v", "abc123"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := sqlite.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	restarted := hydratedStore(t, second, nil)
	got := restarted.State("v")
	if !got.Authenticated || got.Token != "abc123" {
		t.Fatalf("State after restart = %+v, want authenticated abc123", got)
	}
}
