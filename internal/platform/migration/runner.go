// Copyright (c) 2026 Sentra. All rights reserved.
// Author: dev@sentra.io

/*
Package migration applies the SQL schema migrations that back the durable
user store.

RunUp is called once from cmd/api before the server accepts traffic, so a
cold deploy, a version bump, and a restart against an already-current
database all converge on the same schema. A dirty database (a previous run
died mid-migration) aborts startup: applying further migrations on top of a
half-applied one would corrupt the users schema.
*/
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "pgx5" database scheme.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// Registers the "file" source scheme for .sql files on disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

/*
RunUp applies every pending up-migration from the given directory.

Parameters:
  - dsn: postgres:// or postgresql:// URL (rewritten to the pgx5 scheme)
  - migrationsPath: Directory holding the NNNN_name.up.sql / .down.sql pairs
  - logger: Structured logger for migration progress

Returns:
  - error: Initialization failures, a dirty schema, or a failed migration
*/
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {

	migrator, err := migrate.New("file://"+migrationsPath, pgx5URL(dsn))
	if err != nil {
		return fmt.Errorf("migration_init_failed: %w", err)
	}
	defer closeMigrator(migrator, logger)

	migrator.Log = &slogBridge{logger: logger}

	// Refuse to build on top of a half-applied migration.
	fromVersion, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration_version_check_failed: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration_schema_dirty: version %d needs manual repair before startup can continue", fromVersion)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema_up_to_date", slog.Uint64("version", uint64(fromVersion)))
			return nil
		}
		return fmt.Errorf("migration_up_failed: %w", err)
	}

	toVersion, _, _ := migrator.Version()
	logger.Info("schema_migrated",
		slog.Uint64("from", uint64(fromVersion)),
		slog.Uint64("to", uint64(toVersion)),
	)

	return nil
}

// pgx5URL rewrites a standard Postgres URL onto the pgx5:// scheme that
// golang-migrate's pgx/v5 driver registers. Other schemes pass through.
func pgx5URL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// closeMigrator releases both the source and database handles, logging
// rather than failing: migrations already committed are not undone by a
// close error.
func closeMigrator(migrator *migrate.Migrate, logger *slog.Logger) {
	sourceErr, dbErr := migrator.Close()
	if sourceErr != nil {
		logger.Error("migration_source_close_failed", slog.Any("error", sourceErr))
	}
	if dbErr != nil {
		logger.Error("migration_db_close_failed", slog.Any("error", dbErr))
	}
}

// slogBridge adapts golang-migrate's Logger interface onto slog.
type slogBridge struct {
	logger *slog.Logger
}

func (bridge *slogBridge) Printf(format string, args ...any) {
	bridge.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (bridge *slogBridge) Verbose() bool { return false }
