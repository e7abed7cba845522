package store

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pkg/errors"

	"embed"
)

// Schema bootstrap:
//
// A fresh database is initialized by applying migration/{driver}/LATEST.sql,
// the full current schema. Initialization is detected by probing for the
// conversation table, so running Migrate against an initialized database is
// a no-op.

//go:embed migration
var migrationFS embed.FS

const (
	// LatestSchemaFileName is the name of the latest schema file.
	// This file is used to initialize fresh installations with the current schema.
	LatestSchemaFileName = "LATEST.sql"
)

// Migrate initializes the database schema when it has not been applied yet.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	filePath := s.getMigrationBasePath() + LatestSchemaFileName
	bytes, err := fs.ReadFile(migrationFS, filePath)
	if err != nil {
		return errors.Errorf("failed to read latest schema file: %s", err)
	}

	db := s.driver.GetDB()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, string(bytes)); err != nil {
		return errors.Errorf("failed to execute latest schema: %s", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}

	slog.Info("database schema initialized", slog.String("driver", s.profile.Driver))
	return nil
}

func (s *Store) getMigrationBasePath() string {
	return fmt.Sprintf("migration/%s/", s.profile.Driver)
}
