// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package records defines the minimal CRUD capability shared by every Opsdesk
// record store. The relational record sets (incidents, cyber incidents) and
// the flat-file ticket store all satisfy it, so the contract is written once
// and tested once against every implementation.
package records

import "github.com/opsdesk/opsdesk/internal/model"

// Store is the common create/read/delete surface over a record collection.
//
// Insert assigns and returns a store-chosen, strictly increasing id.
// Delete removes rows matching id and returns the removed count; deleting a
// missing id is a no-op returning 0, never an error.
// Recent returns up to limit records from the newest end of the collection;
// whether the sequence is newest-first (relational) or insertion-ordered
// (tabular file) is implementation-defined. An empty or not-yet-created
// collection yields an empty sequence, not an error.
type Store interface {
	Insert(title, severity, status string) (int, error)
	Delete(id int) (int, error)
	Recent(limit int) ([]model.Record, error)
}
