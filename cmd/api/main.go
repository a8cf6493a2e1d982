package main

import (
	"context"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"industry-mailer/internal/adapters/httpapi"
	"industry-mailer/internal/adapters/identity"
	"industry-mailer/internal/app"
	"industry-mailer/internal/infra/config"
	httpinfra "industry-mailer/internal/infra/http"
	applog "industry-mailer/internal/infra/log"
	"industry-mailer/internal/infra/metrics"
)

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: не удалось собрать сервисы")
	}
	defer services.Close()

	if cfg.Scheduler.Enabled {
		scheduler, err := services.NewScheduler(ctx, cfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: некорректное расписание рассылки")
		}
		if err := scheduler.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api: планировщик не запущен")
		}
		defer scheduler.Stop()
	}

	server := httpinfra.NewServer(
		applog.Component(logger, "http"),
		httpinfra.WithAllowedOrigins(cfg.Google.FrontendURL, "http://localhost:3000"),
		httpinfra.WithRequestTimeout(cfg.RequestTimeout),
	)
	handler := httpapi.NewHandler(httpapi.Deps{
		Directory:  services.Directory,
		Dispatcher: services.Digest,
		Source:     services.Source,
		Identity: identity.NewGoogle(identity.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURI:  cfg.Google.RedirectURI,
		}),
		FrontendURL: cfg.Google.FrontendURL,
		Logger:      applog.Component(logger, "api"),
	})
	handler.Register(server.Router)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("api: ошибка остановки сервера")
		}
	}()

	if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
		logger.Fatal().Err(err).Msg("api: сервер остановлен с ошибкой")
	}
	logger.Info().Msg("api: завершение работы")
}
