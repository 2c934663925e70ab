package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/speakscore/internal/config"
	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const (
	databaseInitTimeout = 15 * time.Second
	maxPoolConns        = 8
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if !cfg.HasDatabase() {
			slog.Warn("DATABASE_URL is empty; assessments will not be persisted")
			return NewNoopRepository(), nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		pool, err := OpenPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("assessment database ready", "max_conns", pool.Config().MaxConns)
		return NewPostgresRepository(pool), nil
	})
}

// OpenPool connects, verifies the connection and brings the schema up to date.
func OpenPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	// Writes only happen once per finished test; a small pool is plenty.
	if pc.MaxConns > maxPoolConns {
		pc.MaxConns = maxPoolConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigration(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migration: %w", err)
	}
	return pool, nil
}
