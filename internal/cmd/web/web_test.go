package web

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8080")
	}
	if cfg.BackendURL != "http://localhost:8000" {
		t.Fatalf("BackendURL = %q, want %q", cfg.BackendURL, "http://localhost:8000")
	}
	if cfg.DBPath != "data/web.db" {
		t.Fatalf("DBPath = %q, want %q", cfg.DBPath, "data/web.db")
	}
	if cfg.BackendTimeout != 10*time.Second {
		t.Fatalf("BackendTimeout = %s, want %s", cfg.BackendTimeout, 10*time.Second)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("SessionTTL = %s, want %s", cfg.SessionTTL, 24*time.Hour)
	}
	if cfg.VerifyRedirectDelay != 2*time.Second {
		t.Fatalf("VerifyRedirectDelay = %s, want %s", cfg.VerifyRedirectDelay, 2*time.Second)
	}
	if cfg.RateLimit != 1 || cfg.RateBurst != 5 {
		t.Fatalf("rate = %v/%d, want 1/5", cfg.RateLimit, cfg.RateBurst)
	}
	if cfg.TrustForwardedProto {
		t.Fatal("TrustForwardedProto = true, want false")
	}
}

func TestParseConfigEnvThenFlags(t *testing.T) {
	t.Setenv("PARLEY_WEB_HTTP_ADDR", "env-host:9000")
	t.Setenv("PARLEY_WEB_BACKEND_URL", "http://env-backend")
	t.Setenv("PARLEY_WEB_FLOW_SECRET", "s3cret")
	t.Setenv("PARLEY_WEB_TRUST_FORWARDED_PROTO", "true")

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{
		"-http-addr", "127.0.0.1:9002",
		"-session-ttl", "1h",
		"-rate-limit", "0",
	})
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9002" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:9002")
	}
	if cfg.BackendURL != "http://env-backend" {
		t.Fatalf("BackendURL = %q, want %q", cfg.BackendURL, "http://env-backend")
	}
	if cfg.FlowSecret != "s3cret" {
		t.Fatalf("FlowSecret = %q", cfg.FlowSecret)
	}
	if !cfg.TrustForwardedProto {
		t.Fatal("TrustForwardedProto = false, want true")
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("SessionTTL = %s, want %s", cfg.SessionTTL, time.Hour)
	}
	if cfg.RateLimit != 0 {
		t.Fatalf("RateLimit = %v, want 0", cfg.RateLimit)
	}
}

func TestParseConfigRejectsBadEnv(t *testing.T) {
	t.Setenv("PARLEY_WEB_SESSION_TTL", "forever")

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected error for malformed duration")
	}
}
