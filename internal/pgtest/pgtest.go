// Package pgtest starts a throwaway Postgres for repository tests.
package pgtest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"sneakerstore/internal/migrate"
)

const image = "postgres:16-alpine"

// Database is a migrated Postgres container and a pool connected to it.
type Database struct {
	Pool      *pgxpool.Pool
	container *postgres.PostgresContainer
}

// Start runs a container, applies the embedded migrations and returns a
// connected pool. Callers must Close it.
func Start(ctx context.Context) (*Database, error) {
	container, err := postgres.Run(ctx,
		image,
		postgres.WithDatabase("sneaker_test"),
		postgres.WithUsername("sneaker"),
		postgres.WithPassword("sneaker"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres.Run: %w", err)
	}
	d := &Database{container: container}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("container.ConnectionString: %w", err)
	}

	d.Pool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := migrate.Apply(ctx, d.Pool, zerolog.Nop()); err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	return d, nil
}

// Reset empties every table.
func (d *Database) Reset(ctx context.Context) error {
	_, err := d.Pool.Exec(ctx, `TRUNCATE orders, carts, products, users RESTART IDENTITY CASCADE`)
	return err
}

// CreateUser inserts a bare user row and returns its id.
func (d *Database) CreateUser(ctx context.Context, email string, admin bool) (string, error) {
	var id string
	err := d.Pool.QueryRow(ctx, `INSERT INTO users (email, is_admin) VALUES ($1, $2) RETURNING id::text`, email, admin).Scan(&id)
	return id, err
}

func (d *Database) Close(ctx context.Context) error {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.container != nil {
		return d.container.Terminate(ctx)
	}
	return nil
}
