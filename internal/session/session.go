// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package session defines the explicit caller context the presentation layer
// threads through core operations. The core itself keeps no ambient
// "current user" state between calls.
package session

// Session identifies an authenticated caller and their role.
type Session struct {
	Username string
	Role     string
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == "admin"
}
