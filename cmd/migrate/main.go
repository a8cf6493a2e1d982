package main

import (
	"flag"

	"industry-mailer/internal/infra/config"
	"industry-mailer/internal/infra/db"
	applog "industry-mailer/internal/infra/log"
)

func main() {
	down := flag.Int("down", 0, "откатить указанное количество миграций вместо применения")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	if cfg.PGDSN == "" {
		logger.Fatal().Msg("migrate: не указан PG_DSN")
	}

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate: нет подключения к БД")
	}
	defer pool.Close()

	migrateLog := applog.Component(logger, "migrate")
	if *down > 0 {
		err = db.Rollback(pool, migrateLog, *down)
	} else {
		err = db.Migrate(pool, migrateLog)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate: не удалось применить миграции")
	}
}
