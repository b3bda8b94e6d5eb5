// Package db provides database connectivity and migration functionality for
// the wanderlust application. It builds the shared pgx connection pool that
// every request handler draws from, and runs schema migrations at startup.
// A failure to reach the database here is fatal: the process refuses to start
// rather than limping along and failing lazily on the first request.
package db

import (
	"context"
	"fmt"
	"time"

	// golang-migrate applies the SQL files under migrations/. The blank
	// imports register its file source and the lib/pq-backed postgres driver
	// it uses internally.
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/wanderlust-go/apperror"
	"github.com/user/wanderlust-go/config"
)

// NewPool establishes the application's PostgreSQL connection pool using the
// pgx/v5 driver. The pool is shared process-wide: one pool, all requests.
// It is configured from PoolConfig (max connections, idle and lifetime
// management) and verified with a ping before being handed to the caller.
func NewPool(cfg *config.PoolConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}
	poolConfig.MaxConns = int32(cfg.MaxSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pool for database %s", cfg.DBName), err)
	}

	// Ping so a wrong password or unreachable host surfaces at startup, not
	// on the first user request.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to database %s", cfg.DBName), err)
	}

	return pool, nil
}

// migrateDSN builds the lib/pq-style DSN golang-migrate expects. migrate's
// postgres driver does not speak pgxpool, so migrations run over their own
// short-lived connection.
func migrateDSN(cfg *config.PoolConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
	)
}

// RunMigrations applies any pending migrations from migrationsPath. Files
// follow golang-migrate's {version}_{description}.{up|down}.sql convention.
// An up-to-date schema (migrate.ErrNoChange) is not an error.
func RunMigrations(cfg *config.PoolConfig, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, migrateDSN(cfg))
	if err != nil {
		return apperror.NewDatabaseError("failed to create migrator", err)
	}
	defer func() {
		// Close releases the source and the database connection migrate
		// opened for itself; neither failure affects the applied schema.
		srcErr, dbErr := m.Close()
		_ = srcErr
		_ = dbErr
	}()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return apperror.NewDatabaseError("failed to run migrations", err)
	}
	return nil
}
