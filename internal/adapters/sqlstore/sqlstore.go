// Package sqlstore persists the chat model in sqlite3 or postgres through database/sql.
package sqlstore

import (
	"database/sql"
	"embed"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Chat/internal/core"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrationFiles embed.FS

type Store struct {
	db     *sql.DB
	driver string
}

var _ core.Store = (*Store)(nil)

// Open connects to dsn with driver and, when migrate is set, applies the
// embedded schema migrations.
func Open(driver, dsn string, migrate bool) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.Errorf("sqlstore.Open: unsupported driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlstore.Open")
	}
	if driver == DriverSQLite {
		// sqlite allows one writer; serialising avoids SQLITE_BUSY under concurrent sessions.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "sqlstore.Open.Ping")
	}
	s := &Store{db: db, driver: driver}
	if migrate {
		if err := s.Migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	log.Info().Str("module", "sqlstore").Str("driver", driver).Bool("migrate", migrate).Msg("database ready")
	return s, nil
}

// Migrate applies every pending up migration for the store's driver.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationFiles, "migrations/"+s.driver)
	if err != nil {
		return errors.Wrap(err, "sqlstore.Migrate.source")
	}
	var m *migrate.Migrate
	switch s.driver {
	case DriverSQLite:
		drv, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
		if err != nil {
			return errors.Wrap(err, "sqlstore.Migrate.driver")
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverSQLite, drv)
		if err != nil {
			return errors.Wrap(err, "sqlstore.Migrate.init")
		}
	case DriverPostgres:
		drv, err := migratepg.WithInstance(s.db, &migratepg.Config{})
		if err != nil {
			return errors.Wrap(err, "sqlstore.Migrate.driver")
		}
		m, err = migrate.NewWithInstance("iofs", src, DriverPostgres, drv)
		if err != nil {
			return errors.Wrap(err, "sqlstore.Migrate.init")
		}
	}
	// m.Close would close the shared *sql.DB, so it is left open on purpose.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "sqlstore.Migrate.up")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// mapErr classifies driver errors onto the core sentinels and tags them with op.
func mapErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrap(core.ErrNotFound, op)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42P01":
			return errors.Wrapf(core.ErrNotProvisioned, "%s: %s", op, pqErr.Message)
		case "23505":
			return errors.Wrapf(core.ErrDuplicate, "%s: %s", op, pqErr.Message)
		case "22P02":
			// malformed uuid: such a row cannot exist
			return errors.Wrapf(core.ErrNotFound, "%s: %s", op, pqErr.Message)
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch {
		case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique, liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return errors.Wrapf(core.ErrDuplicate, "%s: %v", op, liteErr)
		case strings.Contains(liteErr.Error(), "no such table"):
			return errors.Wrapf(core.ErrNotProvisioned, "%s: %v", op, liteErr)
		}
	}
	return errors.Wrap(err, op)
}
