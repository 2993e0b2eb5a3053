package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/parley/internal/platform/timeouts"
	"github.com/louisbranch/parley/internal/services/web/composition"
	"github.com/louisbranch/parley/internal/services/web/flow"
	"github.com/louisbranch/parley/internal/services/web/gateway"
	"github.com/louisbranch/parley/internal/services/web/modules"
	"github.com/louisbranch/parley/internal/services/web/platform/ratelimit"
	"github.com/louisbranch/parley/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/parley/internal/services/web/session"
	"github.com/louisbranch/parley/internal/services/web/storage"
	"github.com/louisbranch/parley/internal/services/web/storage/sqlite"
)

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr string
	// BackendURL is the auth API base URL. Empty serves every auth call as a
	// server error.
	BackendURL string
	// DBPath is the SQLite session database. Empty keeps sessions in memory.
	DBPath string
	// FlowSecret signs the flow cookie. Empty uses a per-process key.
	FlowSecret          string
	BackendTimeout      time.Duration
	SessionTTL          time.Duration
	VerifyRedirectDelay time.Duration
	// RateLimit is auth POSTs per second per visitor; zero or less disables it.
	RateLimit           float64
	RateBurst           int
	TrustForwardedProto bool
	SweepInterval       time.Duration
}

// Server hosts the web HTTP server and its background session upkeep.
type Server struct {
	httpAddr   string
	httpServer *http.Server
	sessions   *session.Store
	persist    storage.SessionStore
	limiter    *ratelimit.Limiter
	sweepEvery time.Duration

	unsubscribe func()
	stopOnce    sync.Once
	closeOnce   sync.Once
	done        chan struct{}
	wg          sync.WaitGroup
}

// NewServer builds a configured web server.
func NewServer(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}

	var persist storage.SessionStore
	if path := strings.TrimSpace(config.DBPath); path != "" {
		store, err := sqlite.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open session storage: %w", err)
		}
		persist = store
	}
	sessions := session.NewStore(persist, session.Options{TTL: config.SessionTTL})

	gw, err := newGateway(config)
	if err != nil {
		closePersist(persist)
		return nil, err
	}
	if strings.TrimSpace(config.FlowSecret) == "" {
		log.Printf("web: flow secret not set; signup progress will not survive a restart")
	}
	codec, err := flow.NewCodec([]byte(config.FlowSecret), 0)
	if err != nil {
		closePersist(persist)
		return nil, fmt.Errorf("init flow codec: %w", err)
	}

	var limiter *ratelimit.Limiter
	if config.RateLimit > 0 {
		limiter = ratelimit.New(config.RateLimit, config.RateBurst)
	}
	_, backendConfigured := gw.(*gateway.HTTPGateway)
	handler, err := composition.ComposeAppHandler(composition.ComposeInput{
		ModuleDependencies: modules.Dependencies{
			Controller: flow.NewController(gw, sessions, flow.Options{
				VerifyRedirectDelay: config.VerifyRedirectDelay,
				CallTimeout:         config.BackendTimeout,
			}),
			Codec:          codec,
			BackendHealthy: func() bool { return backendConfigured },
		},
		Sessions:            sessions,
		Limiter:             limiter,
		RequestSchemePolicy: requestmeta.SchemePolicy{TrustForwardedProto: config.TrustForwardedProto},
	})
	if err != nil {
		closePersist(persist)
		return nil, fmt.Errorf("compose web handler: %w", err)
	}

	sweepEvery := config.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = timeouts.SessionSweep
	}
	s := &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		sessions:   sessions,
		persist:    persist,
		limiter:    limiter,
		sweepEvery: sweepEvery,
		done:       make(chan struct{}),
	}
	s.unsubscribe = sessions.Subscribe(logSessionChange)
	return s, nil
}

func newGateway(config Config) (gateway.Gateway, error) {
	backendURL := strings.TrimSpace(config.BackendURL)
	if backendURL == "" {
		log.Printf("web: backend url not set; auth calls will fail")
		return gateway.Unavailable{}, nil
	}
	gw, err := gateway.NewHTTPGateway(backendURL, &http.Client{}, config.BackendTimeout)
	if err != nil {
		return nil, fmt.Errorf("init auth gateway: %w", err)
	}
	return gw, nil
}

// ListenAndServe hydrates sessions in the background, starts the janitor and
// serves until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.sessions.Hydrate(ctx); err != nil {
			log.Printf("web: hydrate sessions: %v", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.runJanitor(ctx)
	}()
	defer s.wg.Wait()

	serveErr := make(chan error, 1)
	log.Printf("web listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		s.stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// runJanitor sweeps expired sessions and idle rate limit entries until ctx is
// canceled or the server is closed.
func (s *Server) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Server) sweep(ctx context.Context, now time.Time) {
	removed, err := s.sessions.Sweep(ctx, now)
	if err != nil {
		log.Printf("web: sweep sessions: %v", err)
	} else if removed > 0 {
		log.Printf("web: swept expired sessions count=%d", removed)
	}
	if s.limiter != nil {
		s.limiter.Prune(now)
	}
}

func (s *Server) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Close stops background work and releases session storage.
func (s *Server) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		s.stop()
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		closePersist(s.persist)
	})
}

func closePersist(persist storage.SessionStore) {
	if persist == nil {
		return
	}
	if err := persist.Close(); err != nil {
		log.Printf("web: close session storage: %v", err)
	}
}

func logSessionChange(change session.Change) {
	log.Printf("web: session changed visitor=%s authenticated=%t", change.VisitorID, change.State.Authenticated)
}
