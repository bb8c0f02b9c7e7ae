// Package db provides the embedded database schema and seed fixtures.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedFixture is the default store fixture consumed by cmd/seed-db.
//
//go:embed seed/store.json
var SeedFixture []byte
