// Package storage declares persistence interfaces for web-owned data.
//
// Bookmarks are snapshots of input values keyed by qualified id. They are
// the only state the web service persists; live sessions stay in memory.
package storage
