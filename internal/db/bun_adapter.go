// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/uptrace/bun"
)

// rawExecer covers both *bun.DB and *bun.Tx, so the raw statements below run
// the same inside and outside a transaction.
type rawExecer interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// execRaw runs a raw SQL statement and returns the driver result.
func execRaw(ctx context.Context, exec rawExecer, query string, args ...interface{}) (sql.Result, error) {
	return exec.NewRaw(query, args...).Exec(ctx)
}

// RecordModel maps an incident-shaped row for Bun queries. The table bound at
// query time is either incidents or cyber_incidents; the tag only fixes the
// alias used in generated SQL.
type RecordModel struct {
	bun.BaseModel `bun:"table:incidents,alias:r"`
	ID            int            `bun:"id,pk,autoincrement"`
	Title         string         `bun:"title"`
	Severity      string         `bun:"severity"`
	Status        string         `bun:"status"`
	Date          sql.NullString `bun:"date"`
}

// UserModel maps the users table.
type UserModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            int    `bun:"id,pk,autoincrement"`
	Username      string `bun:"username"`
	PasswordHash  string `bun:"password_hash"`
	Role          string `bun:"role"`
}

// --- Mapping helpers (centralized conversions) ---

func recordModelToModel(r RecordModel) model.Record {
	rec := model.Record{ID: r.ID, Title: r.Title, Severity: r.Severity, Status: r.Status}
	if r.Date.Valid {
		rec.Date = r.Date.String
	}
	return rec
}

func userModelToModel(u UserModel) model.User {
	return model.User{Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role}
}

// InsertRecordBun appends a record with a store-assigned id and an implicit
// creation date, returning the assigned id.
func InsertRecordBun(bdb *bun.DB, table, title, severity, status string) (int, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	ctx := context.Background()
	rm := &RecordModel{
		Title:    title,
		Severity: severity,
		Status:   status,
		Date:     sql.NullString{String: recordDate(), Valid: true},
	}
	// Use Bun's NewInsert with Returning to get the id on Postgres as well as
	// the LastInsertId engines.
	_, err := bdb.NewInsert().Model(rm).
		ModelTableExpr("?", bun.Ident(table)).
		Column("title", "severity", "status", "date").
		Returning("id").
		Exec(ctx)
	if err != nil {
		return 0, MapDBError(err)
	}
	return rm.ID, nil
}

// DeleteRecordBun removes at most one row matching id and returns the number
// of rows removed. A missing id is a no-op, not an error.
func DeleteRecordBun(bdb *bun.DB, table string, id int) (int, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}
	ctx := context.Background()
	// Raw SQL keeps the delete portable across engines; the table name has
	// already been checked against the allowlist.
	res, err := execRaw(ctx, bdb, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return 0, MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListLatestBun returns up to limit records, newest first (id descending).
// A missing or empty table yields an empty slice, never an error, because a
// read may race ahead of schema creation.
func ListLatestBun(bdb *bun.DB, table string, limit int) ([]model.Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	ctx := context.Background()
	var rms []RecordModel
	err := bdb.NewSelect().Model(&rms).
		ModelTableExpr("? AS r", bun.Ident(table)).
		OrderExpr("id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		if isMissingTable(err) {
			return []model.Record{}, nil
		}
		return nil, MapDBError(err)
	}
	out := make([]model.Record, 0, len(rms))
	for _, r := range rms {
		out = append(out, recordModelToModel(r))
	}
	return out, nil
}

// AllRecordsBun returns every record in id order, for backup export.
func AllRecordsBun(bdb *bun.DB, table string) ([]model.Record, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}
	ctx := context.Background()
	var rms []RecordModel
	err := bdb.NewSelect().Model(&rms).
		ModelTableExpr("? AS r", bun.Ident(table)).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		if isMissingTable(err) {
			return []model.Record{}, nil
		}
		return nil, MapDBError(err)
	}
	out := make([]model.Record, 0, len(rms))
	for _, r := range rms {
		out = append(out, recordModelToModel(r))
	}
	return out, nil
}

// ReplaceRecordsBun wipes the table and restores the provided rows with their
// original ids inside a single transaction.
func ReplaceRecordsBun(bdb *bun.DB, table string, recs []model.Record) error {
	if err := validateTable(table); err != nil {
		return err
	}
	ctx := context.Background()
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := execRaw(ctx, tx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("failed to clear %s: %w", table, MapDBError(err))
	}
	for _, rec := range recs {
		rm := &RecordModel{
			ID:       rec.ID,
			Title:    rec.Title,
			Severity: rec.Severity,
			Status:   rec.Status,
			Date:     sql.NullString{String: rec.Date, Valid: rec.Date != ""},
		}
		if _, err := tx.NewInsert().Model(rm).
			ModelTableExpr("?", bun.Ident(table)).
			Column("id", "title", "severity", "status", "date").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to restore %s row %d: %w", table, rec.ID, err)
		}
	}
	return tx.Commit()
}

// UserExistsBun reports whether a username is present. It never errors for a
// non-existent username.
func UserExistsBun(bdb *bun.DB, username string) (bool, error) {
	ctx := context.Background()
	n, err := bdb.NewSelect().Model((*UserModel)(nil)).Where("username = ?", username).Count(ctx)
	if err != nil {
		if isMissingTable(err) {
			return false, nil
		}
		return false, MapDBError(err)
	}
	return n > 0, nil
}

// GetUserBun retrieves a user by username. It returns (nil, nil) when no such
// user exists; absence is a state, not an error.
func GetUserBun(bdb *bun.DB, username string) (*model.User, error) {
	ctx := context.Background()
	var um UserModel
	err := bdb.NewSelect().Model(&um).Where("username = ?", username).Limit(1).Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows || isMissingTable(err) {
			return nil, nil
		}
		return nil, MapDBError(err)
	}
	u := userModelToModel(um)
	return &u, nil
}

// AddUserBun inserts a new user row. Duplicate usernames surface as
// ErrDuplicate via the unique constraint.
func AddUserBun(bdb *bun.DB, u model.User) error {
	ctx := context.Background()
	um := &UserModel{Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role}
	if _, err := bdb.NewInsert().Model(um).Column("username", "password_hash", "role").Exec(ctx); err != nil {
		return MapDBError(err)
	}
	return nil
}

// DeleteUserBun removes a user by username and returns the rows removed.
func DeleteUserBun(bdb *bun.DB, username string) (int, error) {
	ctx := context.Background()
	res, err := execRaw(ctx, bdb, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return 0, MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// AllUsersBun returns every user ordered by username, for backup export.
func AllUsersBun(bdb *bun.DB) ([]model.User, error) {
	ctx := context.Background()
	var ums []UserModel
	err := bdb.NewSelect().Model(&ums).OrderExpr("username").Scan(ctx)
	if err != nil {
		if isMissingTable(err) {
			return []model.User{}, nil
		}
		return nil, MapDBError(err)
	}
	out := make([]model.User, 0, len(ums))
	for _, u := range ums {
		out = append(out, userModelToModel(u))
	}
	return out, nil
}

// ReplaceUsersBun wipes the users table and restores the provided rows inside
// a single transaction.
func ReplaceUsersBun(bdb *bun.DB, users []model.User) error {
	ctx := context.Background()
	tx, err := bdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := execRaw(ctx, tx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("failed to clear users: %w", MapDBError(err))
	}
	for _, u := range users {
		um := &UserModel{Username: u.Username, PasswordHash: u.PasswordHash, Role: u.Role}
		if _, err := tx.NewInsert().Model(um).Column("username", "password_hash", "role").Exec(ctx); err != nil {
			return fmt.Errorf("failed to restore user %s: %w", u.Username, err)
		}
	}
	return tx.Commit()
}
