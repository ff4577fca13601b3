package postgres

import (
	"context"
	"embed"
	"io/fs"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

//go:embed migration/*.sql
var migrationFS embed.FS

// DB represents the database connection.
type DB struct {
	sqlDB  *sqlx.DB
	ctx    context.Context
	cancel func()

	url string
}

// NewDB returns new database
func NewDB(url string) *DB {
	db := &DB{
		url: url,
	}

	db.ctx, db.cancel = context.WithCancel(context.Background())

	return db
}

// Open opens new database connection and applies pending migrations
func (db *DB) Open() (err error) {
	if db.url == "" {
		return errors.New("database url required")
	}

	if db.sqlDB != nil {
		return nil
	}

	if db.sqlDB, err = sqlx.ConnectContext(db.ctx, "postgres", db.url); err != nil {
		return errors.Wrap(err, "failed to connect to postgres")
	}

	if err := db.migrate(); err != nil {
		return errors.Wrap(err, "migrate")
	}

	return nil
}

func (db *DB) migrate() error {
	fsys, err := fs.Sub(migrationFS, "migration")
	if err != nil {
		return err
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db.sqlDB.DB, fsys)
	if err != nil {
		return err
	}

	results, err := provider.Up(db.ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		log.Info().Str("migration", r.Source.Path).Dur("duration", r.Duration).Msg("applied migration")
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
