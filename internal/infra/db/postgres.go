package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect создаёт пул подключений к Postgres.
func Connect(dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("разбор dsn: %w", err)
	}
	cfg.MaxConns = 10
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("создание пула: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// Migrate применяет все встроенные миграции. Отсутствие изменений ошибкой не считается.
func Migrate(pool *pgxpool.Pool, logger zerolog.Logger) error {
	return run(pool, logger, func(m *migrate.Migrate) error { return m.Up() })
}

// Rollback откатывает указанное количество миграций.
func Rollback(pool *pgxpool.Pool, logger zerolog.Logger, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("некорректное число шагов отката: %d", steps)
	}
	return run(pool, logger, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func run(pool *pgxpool.Pool, logger zerolog.Logger, apply func(*migrate.Migrate) error) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()

	driver, err := pgxmigrate.WithInstance(sqlDB, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("драйвер миграций: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("источник миграций: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("инициализация миграций: %w", err)
	}

	applyErr := apply(m)
	version, dirty, versionErr := m.Version()
	event := logger.Info()
	if versionErr == nil {
		event = event.Uint("version", version).Bool("dirty", dirty)
	} else if !errors.Is(versionErr, migrate.ErrNilVersion) {
		logger.Warn().Err(versionErr).Msg("db: не удалось получить версию схемы")
	}

	if applyErr != nil {
		if !errors.Is(applyErr, migrate.ErrNoChange) {
			return fmt.Errorf("применение миграций: %w", applyErr)
		}
		event.Msg("db: миграций для применения нет")
		return nil
	}
	event.Msg("db: схема обновлена")
	return nil
}
