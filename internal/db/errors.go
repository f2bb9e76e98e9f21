// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db contains shared database errors and helpers.
package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicate is returned when attempting to insert a record that already exists.
var ErrDuplicate = errors.New("duplicate record")

// ErrUnavailable is returned when the backing store cannot be opened at all.
// It is always fatal to the calling operation and never retried internally.
var ErrUnavailable = errors.New("storage unavailable")

// MapDBError inspects low-level driver errors and maps them to package-level
// sentinel errors: constraint violations become ErrDuplicate, and errors that
// mean the backend cannot be reached become ErrUnavailable (wrapped, so the
// driver detail survives). This is a conservative, string-based mapping to
// avoid importing SQL driver packages into this package file.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	le := strings.ToLower(err.Error())
	// MySQL duplicate entry, Postgres unique violation (23505), SQLite unique constraint
	if strings.Contains(le, "duplicate") || strings.Contains(le, "unique") || strings.Contains(le, "23505") || strings.Contains(le, "1062") {
		return ErrDuplicate
	}
	if isUnreachable(le) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

// isUnreachable matches the network-level failure classes the pgx and mysql
// drivers surface when the server is gone.
func isUnreachable(lowerMsg string) bool {
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"broken pipe",
		"bad connection",
	} {
		if strings.Contains(lowerMsg, marker) {
			return true
		}
	}
	return false
}

// isMissingTable reports whether err indicates the queried table has not been
// created yet. Listings degrade to an empty result in that case, because a
// read may race ahead of schema creation.
func isMissingTable(err error) bool {
	if err == nil {
		return false
	}
	le := strings.ToLower(err.Error())
	// SQLite "no such table", Postgres undefined_table (42P01), MySQL 1146
	return strings.Contains(le, "no such table") || strings.Contains(le, "42p01") || strings.Contains(le, "1146") ||
		strings.Contains(le, "doesn't exist") || strings.Contains(le, "does not exist")
}
