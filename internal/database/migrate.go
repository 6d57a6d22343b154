package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/pressly/goose/v3"

	"apistarter/internal/database/migrations"
)

// MigrationsDir is where goose creates new migration files. Applied migrations
// are read from the embedded FS, so the binary does not depend on this path.
const MigrationsDir = "internal/database/migrations"

func init() {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		panic(fmt.Sprintf("goose dialect: %v", err))
	}
}

// MigrateUp applies all pending migrations.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	start := time.Now()
	before, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		logMigration("db_migration_failed", "error", map[string]any{
			"error_message": err.Error(),
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("apply migrations: %w", err)
	}

	after, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}

	event := "db_migration_success"
	if after == before {
		event = "db_migration_skip"
	}
	logMigration(event, "info", map[string]any{
		"from_version": before,
		"to_version":   after,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

// MigrateDownOne reverts exactly one migration.
func MigrateDownOne(ctx context.Context, db *sql.DB) error {
	start := time.Now()
	if err := goose.DownContext(ctx, db, "."); err != nil {
		logMigration("db_migration_revert_failed", "error", map[string]any{
			"error_message": err.Error(),
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("revert migration: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read db version: %w", err)
	}
	logMigration("db_migration_reverted", "info", map[string]any{
		"to_version":  version,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// MigrationStatus prints the applied/pending state of every known migration.
func MigrationStatus(ctx context.Context, db *sql.DB) error {
	return goose.StatusContext(ctx, db, ".")
}

// CreateMigration writes a new timestamped SQL migration skeleton into
// MigrationsDir. It needs the source tree, so it is a development-only command.
func CreateMigration(name string) error {
	if name == "" {
		return fmt.Errorf("migration name is required")
	}
	return goose.Create(nil, MigrationsDir, name, "sql")
}

func logMigration(event, level string, fields map[string]any) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"component": "database",
		"event":     event,
	}
	for k, v := range fields {
		entry[k] = v
	}

	b, err := json.Marshal(entry)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
