// Package persistence selects the cart line store named by configuration.
package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domcart "example.com/framed-prints/internal/domain/cart"
	"example.com/framed-prints/internal/infra/persistence/postgres"
	"example.com/framed-prints/internal/infra/persistence/sqlstore"
)

const DriverPostgres = "postgres"

type Store struct {
	Repo domcart.Repository
	Ping func(ctx context.Context) error
	// Listen relays changes made by other processes; nil when the driver
	// has no change notification.
	Listen func(ctx context.Context) error

	closers []func()
}

// Open connects to the store and applies pending migrations.
func Open(ctx context.Context, driver, dsn string, log *zap.Logger) (*Store, error) {
	switch driver {
	case sqlstore.DriverSQLite, sqlstore.DriverMySQL:
		db, err := sqlstore.Open(ctx, driver, dsn)
		if err != nil {
			return nil, err
		}
		if err := sqlstore.RunMigrations(db, driver); err != nil {
			db.Close()
			return nil, err
		}
		repo := sqlstore.NewCartLineRepository(db, log)
		return &Store{
			Repo:    repo,
			Ping:    db.PingContext,
			closers: []func(){repo.Close, func() { db.Close() }},
		}, nil

	case DriverPostgres:
		pool, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if err := postgres.RunMigrations(pool); err != nil {
			pool.Close()
			return nil, err
		}
		repo := postgres.NewCartLineRepository(pool, log)
		return &Store{
			Repo:    repo,
			Ping:    pool.Ping,
			Listen:  repo.Listen,
			closers: []func(){repo.Close, pool.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}
}

func (s *Store) Close() {
	for _, c := range s.closers {
		c()
	}
}
