// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// This file contains the PostgreSQL implementation of the database store.
package db

import (
	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/uptrace/bun"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
)

// PostgresStore is the PostgreSQL implementation of the Store interface.
// All operations delegate to the shared Bun adapters.
type PostgresStore struct {
	bun *bun.DB
}

func (s *PostgresStore) InsertRecord(table, title, severity, status string) (int, error) {
	return InsertRecordBun(s.bun, table, title, severity, status)
}

func (s *PostgresStore) DeleteRecord(table string, id int) (int, error) {
	return DeleteRecordBun(s.bun, table, id)
}

func (s *PostgresStore) ListLatest(table string, limit int) ([]model.Record, error) {
	return ListLatestBun(s.bun, table, limit)
}

func (s *PostgresStore) AllRecords(table string) ([]model.Record, error) {
	return AllRecordsBun(s.bun, table)
}

func (s *PostgresStore) ReplaceRecords(table string, recs []model.Record) error {
	return ReplaceRecordsBun(s.bun, table, recs)
}

func (s *PostgresStore) UserExists(username string) (bool, error) {
	return UserExistsBun(s.bun, username)
}

func (s *PostgresStore) GetUser(username string) (*model.User, error) {
	return GetUserBun(s.bun, username)
}

func (s *PostgresStore) AddUser(u model.User) error {
	return AddUserBun(s.bun, u)
}

func (s *PostgresStore) DeleteUser(username string) (int, error) {
	return DeleteUserBun(s.bun, username)
}

func (s *PostgresStore) AllUsers() ([]model.User, error) {
	return AllUsersBun(s.bun)
}

func (s *PostgresStore) ReplaceUsers(users []model.User) error {
	return ReplaceUsersBun(s.bun, users)
}

func (s *PostgresStore) Close() error {
	return s.bun.Close()
}
