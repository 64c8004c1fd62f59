// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import "strings"

// IsSQLiteBusy checks if the error is a SQLite concurrency error, either
// SQLITE_BUSY or "database is locked". The busy_timeout on the connection
// absorbs short contention, so these only surface under sustained load and
// the request is worth retrying.
func IsSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked")
}

// IsSQLiteUniqueError checks if the error is a UNIQUE constraint
// violation. Uniqueness rules (org slug, agent name per org, ...) are
// enforced by the schema, and this maps them back to business errors.
func IsSQLiteUniqueError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
