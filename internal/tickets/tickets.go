// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package tickets implements the tabular file store for IT tickets: a single
// comma-delimited UTF-8 file with a canonical header row, rewritten in full
// on every mutation.
//
// The store assumes single-writer access at any instant. Concurrent writers
// from independent processes can race read-mutate-rewrite cycles and lose
// updates; callers needing concurrency should serialize access or move
// tickets into the relational backend.
package tickets

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/opsdesk/opsdesk/internal/logging"
	"github.com/opsdesk/opsdesk/internal/model"
)

// header is the canonical column set, in order. It is present even when the
// store holds no tickets.
var header = []string{
	"id", "title", "severity", "status",
	"priority", "category", "subject", "description",
	"created_date", "resolved_date", "assigned_to",
}

// Store is a ticket collection persisted at a fixed file path.
type Store struct {
	path string
}

// NewStore returns a Store over the given file path. The file is not touched
// until EnsureStore or a mutation runs.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// EnsureStore creates the backing file with only the header row if it is
// absent. It is idempotent and cheap, and every other operation calls it
// first.
func (s *Store) EnsureStore() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to stat ticket store: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ticket store directory: %w", err)
		}
	}
	return s.writeAll(nil)
}

// Append adds a full ticket row. The assigned id is one greater than the
// current maximum id in the file (an empty file's maximum counts as 0); any
// id already set on t is ignored. Returns the assigned id.
func (s *Store) Append(t model.Ticket) (int, error) {
	if err := s.EnsureStore(); err != nil {
		return 0, err
	}
	all, err := s.readAll()
	if err != nil {
		return 0, err
	}
	next := 1
	for _, existing := range all {
		if existing.ID >= next {
			next = existing.ID + 1
		}
	}
	t.ID = next
	all = append(all, t)
	if err := s.writeAll(all); err != nil {
		return 0, err
	}
	return next, nil
}

// Insert is the minimal CRUD surface: it appends a ticket carrying only the
// core fields, stamping today's date. Extended columns stay empty.
func (s *Store) Insert(title, severity, status string) (int, error) {
	return s.Append(model.Ticket{
		Title:       title,
		Severity:    severity,
		Status:      status,
		CreatedDate: time.Now().Format("2006-01-02"),
	})
}

// InsertWithID writes a ticket under a caller-chosen id. It is used by the
// seeder to plant reference data at a well-known id; normal appends continue
// from the file's maximum, so a high fixed id never collides.
func (s *Store) InsertWithID(t model.Ticket) error {
	if t.ID <= 0 {
		return fmt.Errorf("ticket id must be positive, got %d", t.ID)
	}
	if err := s.EnsureStore(); err != nil {
		return err
	}
	all, err := s.readAll()
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == t.ID {
			return fmt.Errorf("ticket id %d already present", t.ID)
		}
	}
	all = append(all, t)
	return s.writeAll(all)
}

// Delete removes every row matching id and rewrites the file. It returns the
// number of rows removed; 0 is success, not failure. Duplicated ids (possible
// only through external edits) are all removed.
func (s *Store) Delete(id int) (int, error) {
	if err := s.EnsureStore(); err != nil {
		return 0, err
	}
	all, err := s.readAll()
	if err != nil {
		return 0, err
	}
	kept := all[:0]
	removed := 0
	for _, t := range all {
		if t.ID == id {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := s.writeAll(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Tail returns the last limit rows in file order (insertion order), not
// sorted by id.
func (s *Store) Tail(limit int) ([]model.Ticket, error) {
	if err := s.EnsureStore(); err != nil {
		return nil, err
	}
	all, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

// All returns every row in file order.
func (s *Store) All() ([]model.Ticket, error) {
	if err := s.EnsureStore(); err != nil {
		return nil, err
	}
	return s.readAll()
}

// Exists reports whether a ticket with the given id is present.
func (s *Store) Exists(id int) (bool, error) {
	if err := s.EnsureStore(); err != nil {
		return false, err
	}
	all, err := s.readAll()
	if err != nil {
		return false, err
	}
	for _, t := range all {
		if t.ID == id {
			return true, nil
		}
	}
	return false, nil
}

// Replace rewrites the store with the provided rows, for backup restore.
func (s *Store) Replace(ts []model.Ticket) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create ticket store directory: %w", err)
		}
	}
	return s.writeAll(ts)
}

// Recent adapts Tail to the shared record-store capability: the last limit
// tickets projected onto the minimal record shape.
func (s *Store) Recent(limit int) ([]model.Record, error) {
	ts, err := s.Tail(limit)
	if err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(ts))
	for _, t := range ts {
		out = append(out, model.Record{
			ID:       t.ID,
			Title:    t.Title,
			Severity: t.Severity,
			Status:   t.Status,
			Date:     t.CreatedDate,
		})
	}
	return out, nil
}

// readAll parses every data row. Malformed rows (wrong field count after
// padding, non-numeric id) are skipped with a diagnostic so one bad row never
// takes the whole listing down.
func (s *Store) readAll() ([]model.Ticket, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ticket store: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	// Rows written by older versions may lack the extended columns.
	r.FieldsPerRecord = -1

	var out []model.Ticket
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logging.Debugf("tickets: skipping unreadable row in %s: %v", s.path, err)
			continue
		}
		if first {
			first = false
			// Header row.
			continue
		}
		t, ok := parseRow(row)
		if !ok {
			logging.Debugf("tickets: skipping malformed row in %s: %q", s.path, row)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// parseRow converts a CSV row to a Ticket, padding missing extended columns.
func parseRow(row []string) (model.Ticket, bool) {
	if len(row) < 4 {
		return model.Ticket{}, false
	}
	id, err := strconv.Atoi(row[0])
	if err != nil {
		return model.Ticket{}, false
	}
	padded := make([]string, len(header))
	copy(padded, row)
	return model.Ticket{
		ID:           id,
		Title:        padded[1],
		Severity:     padded[2],
		Status:       padded[3],
		Priority:     padded[4],
		Category:     padded[5],
		Subject:      padded[6],
		Description:  padded[7],
		CreatedDate:  padded[8],
		ResolvedDate: padded[9],
		AssignedTo:   padded[10],
	}, true
}

// writeAll rewrites the whole file: header row, then one row per ticket, with
// a trailing newline after the last row.
func (s *Store) writeAll(ts []model.Ticket) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to rewrite ticket store: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write ticket header: %w", err)
	}
	for _, t := range ts {
		row := []string{
			strconv.Itoa(t.ID), t.Title, t.Severity, t.Status,
			t.Priority, t.Category, t.Subject, t.Description,
			t.CreatedDate, t.ResolvedDate, t.AssignedTo,
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write ticket row %d: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to flush ticket store: %w", err)
	}
	return f.Close()
}
