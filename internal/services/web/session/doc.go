// Package session owns visitor authentication state.
//
// Store is the single source of truth for whether a visitor holds a backend
// session token. It is constructed once at startup and handed to the route
// guard, the auth flow controller and the HTTP handlers. It never talks to the
// network; persistence goes through storage.SessionStore so tokens survive a
// process restart for the lifetime of the visitor's browser session.
package session
