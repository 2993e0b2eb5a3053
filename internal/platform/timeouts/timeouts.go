// Package timeouts defines shared timeout constants for the web service.
package timeouts

import "time"

// BackendRequest caps a single call to the external auth backend. The backend
// contract defines no timeout of its own, so a hung request would otherwise
// leave the visitor waiting forever.
const BackendRequest = 10 * time.Second

// VerifyRedirect is how long the verification confirmation stays on screen
// before the browser moves on to login.
const VerifyRedirect = 2 * time.Second

// SessionSweep is the interval between expired-session sweeps.
const SessionSweep = time.Minute

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
