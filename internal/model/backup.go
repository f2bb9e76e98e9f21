// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.
package model

// BackupData is a container for all data exported from a pair of relational
// stores plus the ticket file. It is what gets serialized into an archive.
type BackupData struct {
	// SchemaVersion helps in handling migrations during restore.
	SchemaVersion int `json:"schema_version" yaml:"schema_version"`

	Users          []User   `json:"users" yaml:"users"`
	Incidents      []Record `json:"incidents" yaml:"incidents"`
	CyberIncidents []Record `json:"cyber_incidents" yaml:"cyber_incidents"`
	Tickets        []Ticket `json:"tickets" yaml:"tickets"`
}
