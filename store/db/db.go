package db

import (
	"github.com/pkg/errors"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/store"
	"github.com/hrygo/converse/store/db/postgres"
	"github.com/hrygo/converse/store/db/sqlite"
)

// This project supports PostgreSQL and SQLite databases.
//
// PostgreSQL: production deployments, possibly with multiple service
// instances sharing one database. The per-conversation append serialization
// uses a row lock on the parent conversation.
// SQLite: single-instance deployments and tests. Writers are serialized by
// the engine's immediate write transaction.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
