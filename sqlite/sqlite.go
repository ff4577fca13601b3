package sqlite

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

//go:embed migration/*.sql
var migrationFS embed.FS

// DB represents the database connection.
type DB struct {
	sqlDB  *sqlx.DB
	ctx    context.Context
	cancel func()

	path string
}

// NewDB returns new database
func NewDB(path string) *DB {
	db := &DB{
		path: path,
	}

	db.ctx, db.cancel = context.WithCancel(context.Background())

	return db
}

// Open opens new database connection
func (db *DB) Open() (err error) {
	if db.path == "" {
		return errors.New("path required")
	}

	if db.sqlDB != nil {
		return nil
	}

	dsn := db.path + "?_pragma=busy_timeout(5000)"
	if db.sqlDB, err = sqlx.ConnectContext(db.ctx, "sqlite", dsn); err != nil {
		return err
	}

	if err := db.migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

func (db *DB) migrate() error {
	fsys, err := fs.Sub(migrationFS, "migration")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.sqlDB.DB, fsys)
	if err != nil {
		return fmt.Errorf("cannot create migration provider: %w", err)
	}

	if _, err := provider.Up(db.ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

// Close closes database connection
func (db *DB) Close() error {
	if db.sqlDB == nil {
		return nil
	}

	db.cancel()

	if err := db.sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing database")
	}

	return nil
}
