// Copyright (c) 2025 Opsdesk Authors
// Opsdesk - incident and ticket records store
// This source code is licensed under the MIT license found in the LICENSE file.

// Package db implements Opsdesk's relational record stores.
//
// A Store is opened per DSN; the general incidents store and the cyber
// incidents store are two independent Store instances that happen to share
// DDL. Record operations are parameterized by table name so the same CRUD
// contract covers both record kinds. The users table lives in the general
// incidents store and backs the identity service.
//
// Each operation opens no long-lived transaction: a statement commits and the
// pooled connection is released on every exit path. There is no cross-store
// atomicity; the relational stores and the ticket file are only individually
// consistent.
package db
