// Package db embeds the SQL migrations applied at startup.
package db

import "embed"

// Migrations holds the golang-migrate source files
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the files
const MigrationsDir = "migrations"
