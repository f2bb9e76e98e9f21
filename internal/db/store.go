// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"fmt"

	"github.com/opsdesk/opsdesk/internal/model"
)

// Table names a Store accepts for record operations. Incidents and cyber
// incidents are structurally identical but never share a table or id space.
const (
	TableIncidents      = "incidents"
	TableCyberIncidents = "cyber_incidents"
)

// Store defines the interface for all relational operations in Opsdesk.
// This allows multiple database backends to be implemented.
type Store interface {
	// Record methods. table must be TableIncidents or TableCyberIncidents.
	InsertRecord(table, title, severity, status string) (int, error)
	DeleteRecord(table string, id int) (int, error)
	ListLatest(table string, limit int) ([]model.Record, error)
	AllRecords(table string) ([]model.Record, error)
	ReplaceRecords(table string, recs []model.Record) error

	// User methods.
	UserExists(username string) (bool, error)
	GetUser(username string) (*model.User, error)
	AddUser(u model.User) error
	DeleteUser(username string) (int, error)
	AllUsers() ([]model.User, error)
	ReplaceUsers(users []model.User) error

	Close() error
}

// validateTable guards against record operations reaching an unknown table.
// Table names are interpolated as SQL identifiers, so only the two known
// record tables are ever accepted.
func validateTable(table string) error {
	switch table {
	case TableIncidents, TableCyberIncidents:
		return nil
	}
	return fmt.Errorf("unknown record table: %q", table)
}
