package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
)

// Migrator applies the SQL files under a migrations directory.
type Migrator struct {
	m      *migrate.Migrate
	logger zerolog.Logger
}

// NewMigrator opens the migration source and target database.
func NewMigrator(databaseURL, migrationsPath string, logger zerolog.Logger) (*Migrator, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m, logger: logger.With().Str("migrations", migrationsPath).Logger()}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	mg.logVersion("database migrations applied")
	return nil
}

// Down rolls back the most recent migration.
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	mg.logVersion("database migration rolled back")
	return nil
}

// Version reports the applied schema version. ok is false on an empty database.
func (mg *Migrator) Version() (version uint, dirty, ok bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, dirty, true, nil
}

// Close releases the source and database handles.
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

func (mg *Migrator) logVersion(msg string) {
	version, dirty, ok, err := mg.Version()
	event := mg.logger.Info()
	if err != nil {
		event = mg.logger.Warn().Err(err)
	} else if ok {
		event = event.Uint("version", version).Bool("dirty", dirty)
	}
	event.Msg(msg)
}

// RunMigrations applies every pending migration found in migrationsPath.
func RunMigrations(databaseURL, migrationsPath string, logger zerolog.Logger) error {
	mg, err := NewMigrator(databaseURL, migrationsPath, logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
