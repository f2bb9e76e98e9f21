// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the SQLite implementation of the database store.
package db

import (
	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/uptrace/bun"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SqliteStore is the SQLite implementation of the Store interface.
type SqliteStore struct {
	bun *bun.DB
}

// InsertRecord appends a row with a store-assigned id and creation date.
func (s *SqliteStore) InsertRecord(table, title, severity, status string) (int, error) {
	return InsertRecordBun(s.bun, table, title, severity, status)
}

// DeleteRecord removes at most one row matching id; 0 removed is not an error.
func (s *SqliteStore) DeleteRecord(table string, id int) (int, error) {
	return DeleteRecordBun(s.bun, table, id)
}

// ListLatest returns up to limit records, newest first.
func (s *SqliteStore) ListLatest(table string, limit int) ([]model.Record, error) {
	return ListLatestBun(s.bun, table, limit)
}

// AllRecords returns every record in id order.
func (s *SqliteStore) AllRecords(table string) ([]model.Record, error) {
	return AllRecordsBun(s.bun, table)
}

// ReplaceRecords restores a table from backup data.
func (s *SqliteStore) ReplaceRecords(table string, recs []model.Record) error {
	return ReplaceRecordsBun(s.bun, table, recs)
}

// UserExists reports whether a username is present.
func (s *SqliteStore) UserExists(username string) (bool, error) {
	return UserExistsBun(s.bun, username)
}

// GetUser retrieves a user by username, (nil, nil) when absent.
func (s *SqliteStore) GetUser(username string) (*model.User, error) {
	return GetUserBun(s.bun, username)
}

// AddUser inserts a new user row.
func (s *SqliteStore) AddUser(u model.User) error {
	return AddUserBun(s.bun, u)
}

// DeleteUser removes a user by username and returns the rows removed.
func (s *SqliteStore) DeleteUser(username string) (int, error) {
	return DeleteUserBun(s.bun, username)
}

// AllUsers returns every user.
func (s *SqliteStore) AllUsers() ([]model.User, error) {
	return AllUsersBun(s.bun)
}

// ReplaceUsers restores the users table from backup data.
func (s *SqliteStore) ReplaceUsers(users []model.User) error {
	return ReplaceUsersBun(s.bun, users)
}

// Close releases the underlying connection pool.
func (s *SqliteStore) Close() error {
	return s.bun.Close()
}
