// Package gateway is the client for the auth backend's four pre-auth
// endpoints: signup, verify-otp, resend-otp and login.
//
// Every call resolves to one of three outcomes. A 2xx response yields a Reply.
// A completed non-2xx response yields a KindRejected error whose message is the
// backend's own text or an endpoint-specific fallback. A call that produced no
// usable response (dial failure, timeout, body that is not JSON) yields a
// KindUnavailable error carrying the generic server error text. Calls are
// never retried.
package gateway
