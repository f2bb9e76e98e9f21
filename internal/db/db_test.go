// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/opsdesk/opsdesk/internal/model"
)

// newTestStore opens a fresh in-memory SQLite store with migrations applied.
// Each test gets its own named shared-cache database so schemas never leak
// between tests.
func newTestStore(t *testing.T) Store {
	t.Helper()
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", t.Name())
	store, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertAndListRecords(t *testing.T) {
	store := newTestStore(t)

	id1, err := store.InsertRecord(TableIncidents, "server down", model.SeverityHigh, model.StatusOpen)
	if err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	id2, err := store.InsertRecord(TableIncidents, "printer jam", model.SeverityLow, model.StatusOpen)
	if err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("expected monotonically increasing ids, got %d then %d", id1, id2)
	}

	recs, err := store.ListLatest(TableIncidents, 10)
	if err != nil {
		t.Fatalf("ListLatest failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	// Newest first.
	if recs[0].ID != id2 || recs[1].ID != id1 {
		t.Errorf("expected order [%d %d], got [%d %d]", id2, id1, recs[0].ID, recs[1].ID)
	}
	if recs[1].Title != "server down" || recs[1].Severity != model.SeverityHigh {
		t.Errorf("unexpected record contents: %+v", recs[1])
	}
	if recs[0].Date == "" {
		t.Error("expected a creation date to be stamped")
	}
}

func TestListLatestLimit(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := store.InsertRecord(TableIncidents, fmt.Sprintf("incident %d", i), model.SeverityLow, model.StatusOpen); err != nil {
			t.Fatalf("InsertRecord failed: %v", err)
		}
	}
	recs, err := store.ListLatest(TableIncidents, 3)
	if err != nil {
		t.Fatalf("ListLatest failed: %v", err)
	}
	if len(recs) != 3 {
		t.Errorf("expected 3 records, got %d", len(recs))
	}
}

func TestListLatestEmptyTable(t *testing.T) {
	store := newTestStore(t)

	recs, err := store.ListLatest(TableCyberIncidents, 10)
	if err != nil {
		t.Fatalf("ListLatest on empty table failed: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records, got %d", len(recs))
	}
}

func TestDeleteRecord(t *testing.T) {
	store := newTestStore(t)

	id, err := store.InsertRecord(TableIncidents, "flaky switch", model.SeverityMedium, model.StatusOpen)
	if err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	n, err := store.DeleteRecord(TableIncidents, id)
	if err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row removed, got %d", n)
	}

	// Deleting a missing id is a no-op, not an error.
	n, err = store.DeleteRecord(TableIncidents, id)
	if err != nil {
		t.Fatalf("DeleteRecord of missing id failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows removed, got %d", n)
	}
}

func TestRecordTablesAreIndependent(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.InsertRecord(TableIncidents, "general only", model.SeverityLow, model.StatusOpen); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	cyber, err := store.ListLatest(TableCyberIncidents, 10)
	if err != nil {
		t.Fatalf("ListLatest failed: %v", err)
	}
	if len(cyber) != 0 {
		t.Errorf("expected cyber table to stay empty, got %d rows", len(cyber))
	}
}

func TestInsertRecordUnknownTable(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.InsertRecord("users", "sneaky", model.SeverityLow, model.StatusOpen); err == nil {
		t.Error("expected an error for an unknown record table")
	}
}

func TestUserLifecycle(t *testing.T) {
	store := newTestStore(t)

	exists, err := store.UserExists("alice")
	if err != nil {
		t.Fatalf("UserExists failed: %v", err)
	}
	if exists {
		t.Fatal("expected no account before AddUser")
	}

	u := model.User{Username: "alice", PasswordHash: "$2a$10$fakehash", Role: model.RoleUser}
	if err := store.AddUser(u); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	exists, err = store.UserExists("alice")
	if err != nil {
		t.Fatalf("UserExists failed: %v", err)
	}
	if !exists {
		t.Error("expected account to exist after AddUser")
	}

	got, err := store.GetUser("alice")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if got == nil || got.PasswordHash != u.PasswordHash || got.Role != model.RoleUser {
		t.Errorf("unexpected user row: %+v", got)
	}

	n, err := store.DeleteUser("alice")
	if err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row removed, got %d", n)
	}
	n, err = store.DeleteUser("alice")
	if err != nil {
		t.Fatalf("DeleteUser of missing account failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows removed, got %d", n)
	}
}

func TestGetUserMissingIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	u, err := store.GetUser("nobody")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil user, got %+v", u)
	}
}

func TestAddUserDuplicate(t *testing.T) {
	store := newTestStore(t)

	u := model.User{Username: "bob", PasswordHash: "h", Role: model.RoleUser}
	if err := store.AddUser(u); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	err := store.AddUser(u)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestReplaceRecordsPreservesIDs(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.InsertRecord(TableIncidents, "stale", model.SeverityLow, model.StatusOpen); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	want := []model.Record{
		{ID: 7, Title: "restored a", Severity: model.SeverityHigh, Status: model.StatusClosed, Date: "2024-01-01 00:00:00"},
		{ID: 9, Title: "restored b", Severity: model.SeverityLow, Status: model.StatusOpen, Date: "2024-01-02 00:00:00"},
	}
	if err := store.ReplaceRecords(TableIncidents, want); err != nil {
		t.Fatalf("ReplaceRecords failed: %v", err)
	}

	got, err := store.AllRecords(TableIncidents)
	if err != nil {
		t.Fatalf("AllRecords failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records after replace, got %d", len(got))
	}
	if got[0].ID != 7 || got[1].ID != 9 {
		t.Errorf("expected ids [7 9], got [%d %d]", got[0].ID, got[1].ID)
	}
	if got[1].Title != "restored b" {
		t.Errorf("unexpected record contents: %+v", got[1])
	}
}

func TestReplaceUsers(t *testing.T) {
	store := newTestStore(t)

	if err := store.AddUser(model.User{Username: "old", PasswordHash: "h", Role: model.RoleUser}); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	want := []model.User{
		{Username: "carol", PasswordHash: "h1", Role: model.RoleAdmin},
		{Username: "dave", PasswordHash: "h2", Role: model.RoleUser},
	}
	if err := store.ReplaceUsers(want); err != nil {
		t.Fatalf("ReplaceUsers failed: %v", err)
	}
	got, err := store.AllUsers()
	if err != nil {
		t.Fatalf("AllUsers failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 users after replace, got %d", len(got))
	}
	old, err := store.GetUser("old")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if old != nil {
		t.Error("expected pre-replace user to be gone")
	}
}

func TestRecordSet(t *testing.T) {
	store := newTestStore(t)
	rs := NewRecordSet(store, TableIncidents)

	id, err := rs.Insert("vpn flapping", model.SeverityMedium, model.StatusOpen)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	recent, err := rs.Recent(5)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != id {
		t.Fatalf("expected the inserted record back, got %+v", recent)
	}
	n, err := rs.Delete(id)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row removed, got %d", n)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", t.Name())
	store, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := store.InsertRecord(TableIncidents, "survives reopen", model.SeverityLow, model.StatusOpen); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}

	// A second open against the same database must re-run the migration
	// check without error and without clobbering data.
	store2, err := NewStoreFromDSN("sqlite", dsn)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	defer func() { _ = store2.Close() }()

	recs, err := store2.ListLatest(TableIncidents, 10)
	if err != nil {
		t.Fatalf("ListLatest failed: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected the record to survive a reopen, got %d rows", len(recs))
	}
	_ = store.Close()
}

func TestMapDBErrorClassifiesFailures(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Error("expected nil to map to nil")
	}

	// Constraint violations across the three engines map to ErrDuplicate.
	for _, msg := range []string{
		"UNIQUE constraint failed: users.username",
		"ERROR: duplicate key value violates unique constraint (SQLSTATE 23505)",
		"Error 1062: Duplicate entry 'admin' for key 'username'",
	} {
		if !errors.Is(MapDBError(errors.New(msg)), ErrDuplicate) {
			t.Errorf("expected ErrDuplicate for %q", msg)
		}
	}

	// An unreachable backend maps to ErrUnavailable at the operation level,
	// not only at open time.
	for _, err := range []error{
		errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
		errors.New("dial tcp: lookup db.internal: no such host"),
		driver.ErrBadConn,
	} {
		mapped := MapDBError(err)
		if !errors.Is(mapped, ErrUnavailable) {
			t.Errorf("expected ErrUnavailable for %v, got %v", err, mapped)
		}
	}

	// Anything else passes through untouched.
	plain := errors.New("near \"SELEC\": syntax error")
	if got := MapDBError(plain); got != plain {
		t.Errorf("expected the error back unchanged, got %v", got)
	}
}

func TestNewStoreFromDSNUnsupportedType(t *testing.T) {
	if _, err := NewStoreFromDSN("oracle", "whatever"); err == nil {
		t.Error("expected an error for an unsupported database type")
	}
}
