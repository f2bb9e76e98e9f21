// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

package backup

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/opsdesk/opsdesk/internal/db"
	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/opsdesk/opsdesk/internal/tickets"
)

type fixtures struct {
	general db.Store
	cyber   db.Store
	tickets *tickets.Store
}

func newFixtures(t *testing.T, tag string) fixtures {
	t.Helper()
	open := func(name string) db.Store {
		dsn := fmt.Sprintf("file:test_backup_%s_%s_%s?mode=memory&cache=shared", tag, name, t.Name())
		store, err := db.NewStoreFromDSN("sqlite", dsn)
		if err != nil {
			t.Fatalf("failed to open %s store: %v", name, err)
		}
		t.Cleanup(func() { _ = store.Close() })
		return store
	}
	return fixtures{
		general: open("general"),
		cyber:   open("cyber"),
		tickets: tickets.NewStore(filepath.Join(t.TempDir(), "it_tickets.csv")),
	}
}

func populate(t *testing.T, f fixtures) {
	t.Helper()
	if err := f.general.AddUser(model.User{Username: "admin", PasswordHash: "$2a$10$hash", Role: model.RoleAdmin}); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if _, err := f.general.InsertRecord(db.TableIncidents, "disk full", model.SeverityHigh, model.StatusOpen); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	if _, err := f.cyber.InsertRecord(db.TableCyberIncidents, "phishing wave", model.SeverityMedium, model.StatusOpen); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	if _, err := f.tickets.Insert("keyboard sticky", model.SeverityLow, model.StatusOpen); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
}

func TestExportImportRoundtrip(t *testing.T) {
	src := newFixtures(t, "src")
	populate(t, src)

	data, err := Export(src.general, src.cyber, src.tickets)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if data.SchemaVersion != SchemaVersion {
		t.Errorf("expected schema version %d, got %d", SchemaVersion, data.SchemaVersion)
	}
	if len(data.Users) != 1 || len(data.Incidents) != 1 || len(data.CyberIncidents) != 1 || len(data.Tickets) != 1 {
		t.Fatalf("unexpected export sizes: %d users, %d incidents, %d cyber, %d tickets",
			len(data.Users), len(data.Incidents), len(data.CyberIncidents), len(data.Tickets))
	}

	dst := newFixtures(t, "dst")
	// Pre-existing rows in the destination must be replaced, not merged.
	if _, err := dst.general.InsertRecord(db.TableIncidents, "stale", model.SeverityLow, model.StatusOpen); err != nil {
		t.Fatalf("InsertRecord failed: %v", err)
	}
	if err := Import(data, dst.general, dst.cyber, dst.tickets); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	incidents, err := dst.general.AllRecords(db.TableIncidents)
	if err != nil {
		t.Fatalf("AllRecords failed: %v", err)
	}
	if len(incidents) != 1 || incidents[0].Title != "disk full" {
		t.Errorf("unexpected restored incidents: %+v", incidents)
	}
	cyber, err := dst.cyber.AllRecords(db.TableCyberIncidents)
	if err != nil {
		t.Fatalf("AllRecords failed: %v", err)
	}
	if len(cyber) != 1 || cyber[0].Title != "phishing wave" {
		t.Errorf("unexpected restored cyber incidents: %+v", cyber)
	}
	u, err := dst.general.GetUser("admin")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if u == nil || u.PasswordHash != "$2a$10$hash" {
		t.Errorf("unexpected restored user: %+v", u)
	}
	ts, err := dst.tickets.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(ts) != 1 || ts[0].Title != "keyboard sticky" {
		t.Errorf("unexpected restored tickets: %+v", ts)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	src := newFixtures(t, "file")
	populate(t, src)

	data, err := Export(src.general, src.cyber, src.tickets)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "opsdesk.backup")
	if err := WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if got.SchemaVersion != data.SchemaVersion {
		t.Errorf("schema version mismatch: %d vs %d", got.SchemaVersion, data.SchemaVersion)
	}
	if len(got.Users) != len(data.Users) || len(got.Tickets) != len(data.Tickets) {
		t.Errorf("archive contents mismatch: %+v", got)
	}
	if len(got.Incidents) != 1 || got.Incidents[0].Title != "disk full" {
		t.Errorf("unexpected incidents from archive: %+v", got.Incidents)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.backup")); err == nil {
		t.Error("expected an error for a missing archive")
	}
}

func TestImportRejectsNewerSchema(t *testing.T) {
	dst := newFixtures(t, "newer")
	data := &model.BackupData{SchemaVersion: SchemaVersion + 1}
	if err := Import(data, dst.general, dst.cyber, dst.tickets); err == nil {
		t.Error("expected an error for a newer schema version")
	}
}

func TestImportRejectsNilData(t *testing.T) {
	dst := newFixtures(t, "nil")
	if err := Import(nil, dst.general, dst.cyber, dst.tickets); err == nil {
		t.Error("expected an error for nil backup data")
	}
}
