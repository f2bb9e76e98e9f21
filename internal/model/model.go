// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model contains the core domain types shared across the Opsdesk
// storage and identity layers.
package model

import "fmt"

// Severity levels accepted for incidents and tickets.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Status values for incident-like records.
const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
	StatusClosed   = "closed"
)

// Roles recognized by the identity service. Authorization is a binary
// role flag; there is no further permission model.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account row in the identity store. PasswordHash is an opaque
// one-way hash; the plaintext password is never stored.
type User struct {
	Username     string
	PasswordHash string
	Role         string
}

// Record is an incident-like row. Incidents and cyber incidents share this
// shape but live in separate stores and do not share an id space.
type Record struct {
	ID       int
	Title    string
	Severity string
	Status   string
	Date     string
}

// String returns a short id/title representation for diagnostics.
func (r Record) String() string {
	return fmt.Sprintf("#%d %s [%s/%s]", r.ID, r.Title, r.Severity, r.Status)
}

// Ticket is a row in the tabular file store. The minimal CRUD surface uses
// ID, Title, Severity and Status; the remaining fields carry the extended
// ticket schema and may be empty.
type Ticket struct {
	ID          int
	Title       string
	Severity    string
	Status      string
	Priority    string
	Category    string
	Subject     string
	Description string
	CreatedDate string
	// ResolvedDate is empty while the ticket is unresolved.
	ResolvedDate string
	AssignedTo   string
}

// String returns the id/title representation used in listings.
func (t Ticket) String() string {
	return fmt.Sprintf("#%d %s [%s/%s]", t.ID, t.Title, t.Severity, t.Status)
}
