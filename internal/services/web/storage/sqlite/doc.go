// Package sqlite provides the visitor session persistence adapter backed by SQLite.
package sqlite
