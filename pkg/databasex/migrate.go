package databasex

import (
	"errors"
	"io/fs"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/logx"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

// Migrate applies all pending SQL migrations found in fsys under path.
func Migrate(db *sqlx.DB, fsys fs.FS, path string) error {
	src, err := iofs.New(fsys, path)
	if err != nil {
		return errx.Wrap(err, "failed to load embedded migrations", errx.TypeInternal)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return errx.Wrap(err, "failed to create migration driver", errx.TypeInternal)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return errx.Wrap(err, "failed to initialize migrations", errx.TypeInternal)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logx.Info("database schema is up to date")
			return nil
		}
		return errx.Wrap(err, "migration failed", errx.TypeInternal)
	}

	logx.Info("database migrations applied")
	return nil
}
