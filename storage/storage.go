package storage

import (
	"github.com/pkg/errors"

	"github.com/quantonganh/newsletter"
	"github.com/quantonganh/newsletter/bolt"
	"github.com/quantonganh/newsletter/postgres"
	"github.com/quantonganh/newsletter/sqlite"
)

// Storage types
const (
	TypePostgres = "postgres"
	TypeSQLite   = "sqlite"
	TypeBolt     = "bolt"
)

// Open opens the backend selected by config.DB.Type
func Open(config *newsletter.Config) (newsletter.Database, newsletter.SubscriberService, error) {
	switch config.DB.Type {
	case TypePostgres, "":
		db := postgres.NewDB(config.DB.URL)
		if err := db.Open(); err != nil {
			return nil, nil, err
		}
		return db, postgres.NewSubscriberService(db), nil
	case TypeSQLite:
		db := sqlite.NewDB(config.DB.Path)
		if err := db.Open(); err != nil {
			return nil, nil, err
		}
		return db, sqlite.NewSubscriberService(db), nil
	case TypeBolt:
		db := bolt.NewDB(config.DB.Path)
		if err := db.Open(); err != nil {
			return nil, nil, err
		}
		return db, bolt.NewSubscriberService(db), nil
	default:
		return nil, nil, errors.Errorf("unknown database type %q", config.DB.Type)
	}
}
