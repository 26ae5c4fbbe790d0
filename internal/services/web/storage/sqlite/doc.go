// Package sqlite provides the bookmark persistence adapter backed by SQLite.
package sqlite
