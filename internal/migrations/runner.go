package migrations

import (
	"database/sql"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"

	"github.com/caldera-energy/pricefeed/internal/errs"
)

// Runner applies or rolls back the embedded schema against an open
// *sql.DB.
type Runner struct {
	m *migrate.Migrate
}

// NewRunner builds a Runner from an already-open database connection.
func NewRunner(db *sql.DB) (*Runner, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, errs.New(errs.Storage, "migrations", "create postgres driver", err)
	}

	sourceDriver, err := iofs.New(files, ".")
	if err != nil {
		return nil, errs.New(errs.Storage, "migrations", "create embedded source", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return nil, errs.New(errs.Storage, "migrations", "create migrate instance", err)
	}
	m.Log = migrateLogger{}

	return &Runner{m: m}, nil
}

// Up applies every pending migration.
func (r *Runner) Up() error {
	if err := r.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errs.New(errs.Storage, "migrations", "apply migrations", err)
	}
	return nil
}

// Down rolls back every applied migration.
func (r *Runner) Down() error {
	if err := r.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errs.New(errs.Storage, "migrations", "roll back migrations", err)
	}
	return nil
}

// Version reports the currently applied migration version.
func (r *Runner) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errs.New(errs.Storage, "migrations", "read version", err)
	}
	return version, dirty, nil
}

// Close releases the underlying source and database handles.
func (r *Runner) Close() error {
	sourceErr, dbErr := r.m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	return dbErr
}

// migrateLogger adapts golang-migrate's Logger interface to zerolog.
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func (migrateLogger) Verbose() bool { return false }
