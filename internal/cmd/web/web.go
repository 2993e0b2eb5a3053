// Package web parses web command flags and launches the web server.
package web

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/louisbranch/parley/internal/platform/cmd"
	"github.com/louisbranch/parley/internal/services/web"
)

// Config holds the web command configuration.
type Config struct {
	HTTPAddr            string        `env:"PARLEY_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	BackendURL          string        `env:"PARLEY_WEB_BACKEND_URL" envDefault:"http://localhost:8000"`
	DBPath              string        `env:"PARLEY_WEB_DB_PATH" envDefault:"data/web.db"`
	FlowSecret          string        `env:"PARLEY_WEB_FLOW_SECRET"`
	BackendTimeout      time.Duration `env:"PARLEY_WEB_BACKEND_TIMEOUT" envDefault:"10s"`
	SessionTTL          time.Duration `env:"PARLEY_WEB_SESSION_TTL" envDefault:"24h"`
	VerifyRedirectDelay time.Duration `env:"PARLEY_WEB_VERIFY_REDIRECT_DELAY" envDefault:"2s"`
	RateLimit           float64       `env:"PARLEY_WEB_RATE_LIMIT" envDefault:"1"`
	RateBurst           int           `env:"PARLEY_WEB_RATE_BURST" envDefault:"5"`
	TrustForwardedProto bool          `env:"PARLEY_WEB_TRUST_FORWARDED_PROTO"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args, bindFlags); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.BackendURL, "backend-url", cfg.BackendURL, "Auth backend base URL")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite session database path; empty keeps sessions in memory")
	fs.DurationVar(&cfg.BackendTimeout, "backend-timeout", cfg.BackendTimeout, "Timeout for one auth backend call")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "How long a login session lasts")
	fs.DurationVar(&cfg.VerifyRedirectDelay, "verify-redirect-delay", cfg.VerifyRedirectDelay, "Delay before the verified screen moves to login")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Auth submissions per second per visitor; 0 disables limiting")
	fs.IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "Auth submission burst per visitor")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "Trust X-Forwarded-Proto from a proxy")
}

// Run starts the web server.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceWeb, func(ctx context.Context) error {
		server, err := web.NewServer(ctx, web.Config{
			HTTPAddr:            cfg.HTTPAddr,
			BackendURL:          cfg.BackendURL,
			DBPath:              cfg.DBPath,
			FlowSecret:          cfg.FlowSecret,
			BackendTimeout:      cfg.BackendTimeout,
			SessionTTL:          cfg.SessionTTL,
			VerifyRedirectDelay: cfg.VerifyRedirectDelay,
			RateLimit:           cfg.RateLimit,
			RateBurst:           cfg.RateBurst,
			TrustForwardedProto: cfg.TrustForwardedProto,
		})
		if err != nil {
			return fmt.Errorf("init web server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve web: %w", err)
		}
		return nil
	})
}
