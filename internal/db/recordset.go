// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/opsdesk/opsdesk/internal/model"

// RecordSet binds a Store to a single record table, giving callers the plain
// CRUD surface without repeating the table name on every call. It is the
// relational implementation of the shared record-store capability.
type RecordSet struct {
	store Store
	table string
}

// NewRecordSet returns a RecordSet over the given table of s.
func NewRecordSet(s Store, table string) *RecordSet {
	return &RecordSet{store: s, table: table}
}

// Insert appends a record and returns the store-assigned id.
func (rs *RecordSet) Insert(title, severity, status string) (int, error) {
	return rs.store.InsertRecord(rs.table, title, severity, status)
}

// Delete removes rows matching id and returns the removed count.
func (rs *RecordSet) Delete(id int) (int, error) {
	return rs.store.DeleteRecord(rs.table, id)
}

// Recent returns up to limit records, newest first.
func (rs *RecordSet) Recent(limit int) ([]model.Record, error) {
	return rs.store.ListLatest(rs.table, limit)
}
