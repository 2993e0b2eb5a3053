// Package web hosts the browser-facing front end of the auth flow: signup,
// email verification, login and the guarded dashboard.
//
// Screens are rendered server side. Backend calls go through gateway, the
// sign-up progress travels in a signed cookie (flow.Codec), and the session
// token is held by session.Store keyed by a browser-session cookie, backed by
// SQLite when a database path is configured.
package web
