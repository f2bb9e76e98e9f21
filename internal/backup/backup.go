// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backup exports and restores the full Opsdesk data set: both
// relational stores plus the ticket file. Archives are zstd-compressed YAML.
//
// Export reads each store independently; there is no cross-store snapshot
// guarantee, matching the stores' own consistency model.
package backup

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/compress/zstd"

	"github.com/opsdesk/opsdesk/internal/db"
	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/opsdesk/opsdesk/internal/tickets"
)

// SchemaVersion identifies the archive layout for forward migrations.
const SchemaVersion = 1

// Export collects all rows from the general store (users + incidents), the
// cyber store and the ticket file into a BackupData snapshot.
func Export(general, cyber db.Store, t *tickets.Store) (*model.BackupData, error) {
	users, err := general.AllUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}
	incidents, err := general.AllRecords(db.TableIncidents)
	if err != nil {
		return nil, fmt.Errorf("failed to export incidents: %w", err)
	}
	cyberIncidents, err := cyber.AllRecords(db.TableCyberIncidents)
	if err != nil {
		return nil, fmt.Errorf("failed to export cyber incidents: %w", err)
	}
	ts, err := t.All()
	if err != nil {
		return nil, fmt.Errorf("failed to export tickets: %w", err)
	}
	return &model.BackupData{
		SchemaVersion:  SchemaVersion,
		Users:          users,
		Incidents:      incidents,
		CyberIncidents: cyberIncidents,
		Tickets:        ts,
	}, nil
}

// Import restores every store from data, wiping existing rows. Each store is
// restored in its own transaction (or full-file rewrite); a failure part way
// leaves the untouched stores as they were.
func Import(data *model.BackupData, general, cyber db.Store, t *tickets.Store) error {
	if data == nil {
		return fmt.Errorf("no backup data")
	}
	if data.SchemaVersion > SchemaVersion {
		return fmt.Errorf("backup schema version %d is newer than supported %d", data.SchemaVersion, SchemaVersion)
	}
	if err := general.ReplaceUsers(data.Users); err != nil {
		return fmt.Errorf("failed to restore users: %w", err)
	}
	if err := general.ReplaceRecords(db.TableIncidents, data.Incidents); err != nil {
		return fmt.Errorf("failed to restore incidents: %w", err)
	}
	if err := cyber.ReplaceRecords(db.TableCyberIncidents, data.CyberIncidents); err != nil {
		return fmt.Errorf("failed to restore cyber incidents: %w", err)
	}
	if err := t.Replace(data.Tickets); err != nil {
		return fmt.Errorf("failed to restore tickets: %w", err)
	}
	return nil
}

// WriteFile serializes data as YAML and writes it zstd-compressed to path.
func WriteFile(path string, data *model.BackupData) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("failed to write backup: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finish backup: %w", err)
	}
	return f.Close()
}

// ReadFile decompresses and parses a backup archive written by WriteFile.
func ReadFile(path string) (*model.BackupData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer func() { _ = f.Close() }()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	var data model.BackupData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse backup: %w", err)
	}
	return &data, nil
}
