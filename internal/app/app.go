package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"industry-mailer/internal/adapters/mailer"
	"industry-mailer/internal/adapters/newsapi"
	"industry-mailer/internal/adapters/repo"
	"industry-mailer/internal/adapters/summarizer"
	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/cache"
	"industry-mailer/internal/infra/config"
	"industry-mailer/internal/infra/db"
	logpkg "industry-mailer/internal/infra/log"
	"industry-mailer/internal/usecase/digest"
	"industry-mailer/internal/usecase/schedule"
	"industry-mailer/internal/usecase/subscriptions"
)

type store interface {
	domain.UserRepo
	domain.TopicRepo
	domain.SubscriptionRepo
}

// App содержит собранные сервисы, общие для api и scheduler.
type App struct {
	Store      store
	Directory  *subscriptions.Service
	Digest     *digest.Service
	Source     *newsapi.Client
	Summarizer *summarizer.Chain

	closers []func()
}

// Build подключает хранилище и блокировки и собирает сервисы рассылки.
// Без PG_DSN данные хранятся в памяти процесса, без REDIS_ADDR блокировка рассылки локальная.
func Build(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*App, error) {
	a := &App{}

	if cfg.PGDSN != "" {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("подключение к БД: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err := db.Migrate(pool, logpkg.Component(logger, "migrate")); err != nil {
			a.Close()
			return nil, fmt.Errorf("миграции: %w", err)
		}
		a.Store = repo.NewPostgres(pool)
	} else {
		logger.Warn().Msg("app: PG_DSN не задан, данные хранятся в памяти")
		a.Store = repo.NewMemory()
	}

	var locker domain.Locker = cache.NewLocalLocker()
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedis(ctx, cfg.RedisAddr)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("подключение к redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		locker = cache.NewRedisLocker(client, "industry-mailer:")
	}

	a.Summarizer = summarizer.NewChain(summarizer.Config{
		OpenAIKey:     cfg.AI.OpenAIKey,
		OpenAIModel:   cfg.AI.OpenAIModel,
		OpenAIBaseURL: cfg.AI.OpenAIBaseURL,
		GeminiKey:     cfg.AI.GeminiKey,
		GeminiModel:   cfg.AI.GeminiModel,
		Timeout:       cfg.AI.Timeout,
	}, logpkg.Component(logger, "summarizer"))

	a.Source = newsapi.NewClient(newsapi.Config{
		APIKey:           cfg.News.APIKey,
		URL:              cfg.News.URL,
		Language:         cfg.News.Language,
		Timeout:          cfg.News.Timeout,
		SummaryMaxLength: cfg.AI.SummaryMaxLength,
	}, a.Summarizer, logpkg.Component(logger, "newsapi"))

	smtp := mailer.NewSMTP(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
		BCCSelf:  cfg.SMTP.BCCSelf,
	})

	a.Directory = subscriptions.NewService(a.Store, a.Store, a.Store, logpkg.Component(logger, "subscriptions"))
	a.Digest = digest.NewService(a.Store, a.Store, a.Source, smtp, locker, logpkg.Component(logger, "digest"), digest.Options{
		ArticleLimit: cfg.News.PageSize,
		LockTTL:      cfg.Dispatch.LockTTL,
	})

	logger.Info().Str("summarizer", a.Summarizer.Provider()).Bool("postgres", cfg.PGDSN != "").Bool("redis", cfg.RedisAddr != "").Msg("app: сервисы собраны")
	return a, nil
}

// NewScheduler создаёт планировщик ежедневной рассылки по всем темам.
func (a *App) NewScheduler(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (*schedule.Scheduler, error) {
	return schedule.New(ctx, a.Store, a.Digest, schedule.Config{
		Hour:         cfg.Scheduler.Hour,
		Minute:       cfg.Scheduler.Minute,
		Days:         cfg.Scheduler.Days,
		Timezone:     cfg.Scheduler.Timezone,
		Test:         cfg.Scheduler.Test,
		TestInterval: cfg.Scheduler.TestInterval,
		RunTimeout:   cfg.Scheduler.RunTimeout,
	}, logpkg.Component(logger, "scheduler"))
}

// Close освобождает подключения в обратном порядке.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
