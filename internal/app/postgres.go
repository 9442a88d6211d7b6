package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"worksite/internal/config"
	"worksite/internal/repository"
)

var globalPostgresPool *pgxpool.Pool

func MustConnectPostgres() {
	cfg := config.Global().Postgres
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)

	poolCfg, err := pgxpool.ParseConfig(connURL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to parse postgres config")
		panic(err)
	}
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	globalPostgresPool, err = pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to connect to postgres")
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	err = globalPostgresPool.Ping(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ping postgres")
		panic(err)
	}
	globalLogger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("connected to postgres")
}

// MustEnsureTasksSchema creates the tasks table and indexes on boot.
func MustEnsureTasksSchema() {
	tasksRepo := repository.NewTasks(globalLogger, globalPostgresPool)

	err := tasksRepo.EnsureSchema(context.Background())
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to ensure tasks schema")
		panic(err)
	}
	globalLogger.Info().Msg("ensured tasks schema")
}

func DisconnectPostgres() {
	globalPostgresPool.Close()
	globalLogger.Info().Msg("disconnected from postgres")
}
