// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package bootstrap seeds reference data at process start and verifies the
// credential pipeline. The whole sequence is idempotent and safely
// re-runnable on every boot.
package bootstrap

import (
	"errors"
	"fmt"

	"github.com/opsdesk/opsdesk/internal/auth"
	"github.com/opsdesk/opsdesk/internal/i18n"
	"github.com/opsdesk/opsdesk/internal/logging"
	"github.com/opsdesk/opsdesk/internal/model"
	"github.com/opsdesk/opsdesk/internal/session"
	"github.com/opsdesk/opsdesk/internal/tickets"
)

// DemoTicketID is the well-known id the demo ticket is seeded under. Normal
// appends continue from the file's maximum id, so the fixed id never collides.
const DemoTicketID = 1122

// Seeder wires the identity service and the ticket store into the startup
// sequence. The relational schema is ensured earlier, when the stores are
// opened and migrations run.
type Seeder struct {
	Users         *auth.Service
	Tickets       *tickets.Store
	AdminUsername string
	AdminPassword string
}

// Run executes the seeding sequence:
//
//  1. Ensure the ticket store file exists.
//  2. Delete any existing admin row unconditionally, then recreate it with a
//     freshly computed hash. This resets the admin credential to a known-good
//     state even if the hashing scheme changed between deployments.
//  3. Seed the demo ticket if absent. Unlike the admin, demo data is
//     leave-if-present: it seeds once.
//  4. Log the ticket count as a read-only diagnostic.
//  5. Authenticate against the just-created admin credential. A failure here
//     means the hashing pipeline is broken and is fatal to startup.
//
// Run returns the admin session from the self-check on success.
func (s *Seeder) Run() (*session.Session, error) {
	if s.AdminUsername == "" || s.AdminPassword == "" {
		return nil, errors.New("admin credentials must be configured")
	}

	if err := s.Tickets.EnsureStore(); err != nil {
		return nil, fmt.Errorf("failed to ensure ticket store: %w", err)
	}

	// Admin reset: delete-then-recreate, never leave-if-present. The stored
	// hash must always match the configured password.
	if _, err := s.Users.RemoveAccount(s.AdminUsername); err != nil {
		return nil, fmt.Errorf("failed to remove stale admin account: %w", err)
	}
	if err := s.Users.CreateAccount(s.AdminUsername, s.AdminPassword, model.RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to create admin account: %w", err)
	}
	logging.Infof("%s", i18n.T("bootstrap.admin_reset"))

	if err := s.ensureDemoTicket(); err != nil {
		return nil, err
	}

	all, err := s.Tickets.All()
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	logging.Infof("%s", i18n.T("bootstrap.ticket_count", len(all)))

	sess, err := s.Users.Authenticate(s.AdminUsername, s.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("%s", i18n.T("bootstrap.selfcheck_failed", err))
	}
	logging.Infof("%s", i18n.T("bootstrap.selfcheck_ok", sess.Username))
	return sess, nil
}

// ensureDemoTicket seeds the fixed demo payload under DemoTicketID if absent.
func (s *Seeder) ensureDemoTicket() error {
	exists, err := s.Tickets.Exists(DemoTicketID)
	if err != nil {
		return fmt.Errorf("failed to probe demo ticket: %w", err)
	}
	if exists {
		logging.Infof("%s", i18n.T("bootstrap.demo_ticket_present", DemoTicketID))
		return nil
	}
	if err := s.Tickets.InsertWithID(model.Ticket{
		ID:          DemoTicketID,
		Title:       "Login Issue",
		Severity:    model.SeverityMedium,
		Status:      model.StatusOpen,
		Priority:    "High",
		Category:    "Software",
		Subject:     "Login Issue",
		Description: "Test ticket",
		CreatedDate: "2024-09-12",
		AssignedTo:  "test",
	}); err != nil {
		return fmt.Errorf("failed to seed demo ticket: %w", err)
	}
	logging.Infof("%s", i18n.T("bootstrap.demo_ticket_added", DemoTicketID))
	return nil
}
