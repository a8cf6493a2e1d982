package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"industry-mailer/internal/app"
	"industry-mailer/internal/infra/config"
	applog "industry-mailer/internal/infra/log"
	"industry-mailer/internal/infra/metrics"
)

func main() {
	once := flag.Bool("once", false, "выполнить одну рассылку по всем темам и завершиться")
	flag.Parse()

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось собрать сервисы")
	}
	defer services.Close()

	scheduler, err := services.NewScheduler(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("scheduler: некорректное расписание рассылки")
	}

	if *once {
		runs, err := scheduler.RunOnce(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("scheduler: запуск не выполнен")
		}
		for _, run := range runs {
			logger.Info().Int64("topic_id", run.TopicID).Str("topic", run.TopicName).Str("status", run.Status).
				Int("delivered", run.Delivered).Int("failed", run.Failed).Msg("scheduler: итог по теме")
		}
		return
	}

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("scheduler: не удалось запустить cron")
	}
	<-ctx.Done()
	scheduler.Stop()
	logger.Info().Msg("scheduler: завершение работы")
}
