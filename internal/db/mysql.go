// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the MySQL implementation of the database store.
package db

import (
	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/uptrace/bun"
	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLStore is the MySQL implementation of the Store interface.
// All operations delegate to the shared Bun adapters.
type MySQLStore struct {
	bun *bun.DB
}

func (s *MySQLStore) InsertRecord(table, title, severity, status string) (int, error) {
	return InsertRecordBun(s.bun, table, title, severity, status)
}

func (s *MySQLStore) DeleteRecord(table string, id int) (int, error) {
	return DeleteRecordBun(s.bun, table, id)
}

func (s *MySQLStore) ListLatest(table string, limit int) ([]model.Record, error) {
	return ListLatestBun(s.bun, table, limit)
}

func (s *MySQLStore) AllRecords(table string) ([]model.Record, error) {
	return AllRecordsBun(s.bun, table)
}

func (s *MySQLStore) ReplaceRecords(table string, recs []model.Record) error {
	return ReplaceRecordsBun(s.bun, table, recs)
}

func (s *MySQLStore) UserExists(username string) (bool, error) {
	return UserExistsBun(s.bun, username)
}

func (s *MySQLStore) GetUser(username string) (*model.User, error) {
	return GetUserBun(s.bun, username)
}

func (s *MySQLStore) AddUser(u model.User) error {
	return AddUserBun(s.bun, u)
}

func (s *MySQLStore) DeleteUser(username string) (int, error) {
	return DeleteUserBun(s.bun, username)
}

func (s *MySQLStore) AllUsers() ([]model.User, error) {
	return AllUsersBun(s.bun)
}

func (s *MySQLStore) ReplaceUsers(users []model.User) error {
	return ReplaceUsersBun(s.bun, users)
}

func (s *MySQLStore) Close() error {
	return s.bun.Close()
}
