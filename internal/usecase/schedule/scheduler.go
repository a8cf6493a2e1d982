package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"industry-mailer/internal/domain"
)

const (
	defaultDays       = 1
	defaultRunTimeout = 30 * time.Minute
	topicsPageSize    = 100
)

// Dispatcher рассылает письмо по одной теме.
type Dispatcher interface {
	Dispatch(ctx context.Context, topicID int64, days int, cause domain.DispatchCause) (domain.DispatchReport, error)
}

// Config задаёт расписание рассылки.
type Config struct {
	Hour         int
	Minute       int
	Days         int
	Timezone     string
	Test         bool
	TestInterval time.Duration
	RunTimeout   time.Duration
}

// TopicRun — итог рассылки по одной теме в рамках запуска.
type TopicRun struct {
	TopicID   int64  `json:"topic_id"`
	TopicName string `json:"topic_name"`
	Status    string `json:"status"`
	Delivered int    `json:"delivered"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

// Scheduler запускает рассылку по всем темам раз в сутки.
type Scheduler struct {
	cron       *cron.Cron
	topics     domain.TopicRepo
	dispatcher Dispatcher
	cfg        Config
	log        zerolog.Logger
	ctx        context.Context
}

// DailySpec возвращает cron-выражение для ежедневного запуска.
func DailySpec(minute, hour int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

// New создаёт планировщик. cron пропускает повтор задания, пока идёт его предыдущий запуск,
// но ежедневное и тестовое задания могут пересечься. Повторную рассылку темы
// исключает блокировка темы в диспетчере.
func New(ctx context.Context, topics domain.TopicRepo, dispatcher Dispatcher, cfg Config, logger zerolog.Logger) (*Scheduler, error) {
	if cfg.Hour < 0 || cfg.Hour > 23 || cfg.Minute < 0 || cfg.Minute > 59 {
		return nil, fmt.Errorf("некорректное время рассылки %02d:%02d", cfg.Hour, cfg.Minute)
	}
	if cfg.Days == 0 {
		cfg.Days = defaultDays
	}
	if !domain.ValidWindow(cfg.Days) {
		return nil, fmt.Errorf("окно рассылки: %w", domain.ErrInvalidWindow)
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = defaultRunTimeout
	}
	loc, err := ResolveLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("часовой пояс %q: %w", cfg.Timezone, err)
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	return &Scheduler{cron: c, topics: topics, dispatcher: dispatcher, cfg: cfg, log: logger, ctx: ctx}, nil
}

// Start регистрирует задания и запускает cron.
func (s *Scheduler) Start() error {
	spec := DailySpec(s.cfg.Minute, s.cfg.Hour)
	if _, err := s.cron.AddFunc(spec, s.runJob); err != nil {
		return fmt.Errorf("регистрация ежедневной рассылки: %w", err)
	}
	if s.cfg.Test && s.cfg.TestInterval > 0 {
		if _, err := s.cron.AddFunc("@every "+s.cfg.TestInterval.String(), s.runJob); err != nil {
			return fmt.Errorf("регистрация тестовой рассылки: %w", err)
		}
		s.log.Warn().Dur("interval", s.cfg.TestInterval).Msg("scheduler: включена тестовая рассылка")
	}
	s.cron.Start()
	s.log.Info().Str("spec", spec).Str("tz", s.cron.Location().String()).Msg("scheduler: запущен")
	return nil
}

// Stop останавливает cron и ждёт завершения текущего запуска.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runJob() {
	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RunTimeout)
	defer cancel()
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduler: запуск не выполнен")
	}
}

// RunOnce рассылает письма по всем темам, включая неактивные.
// Ошибка одной темы не прерывает запуск, итог по каждой теме возвращается в срезе.
func (s *Scheduler) RunOnce(ctx context.Context) ([]TopicRun, error) {
	topics, err := s.allTopics(ctx)
	if err != nil {
		return nil, err
	}
	runs := make([]TopicRun, 0, len(topics))
	for _, topic := range topics {
		if ctx.Err() != nil {
			s.log.Warn().Err(ctx.Err()).Msg("scheduler: запуск прерван")
			break
		}
		run := TopicRun{TopicID: topic.ID, TopicName: topic.Name}
		report, err := s.dispatcher.Dispatch(ctx, topic.ID, s.cfg.Days, domain.DispatchCauseScheduled)
		switch {
		case err == nil:
			run.Status = "sent"
			run.Delivered = report.Delivered
			run.Failed = report.Failed
		case errors.Is(err, domain.ErrNoSubscribers):
			run.Status = "no_subscribers"
		case errors.Is(err, domain.ErrNoContent):
			run.Status = "no_content"
		case errors.Is(err, domain.ErrDispatchInProgress):
			run.Status = "in_progress"
		default:
			run.Status = "error"
			run.Error = err.Error()
			s.log.Error().Err(err).Int64("topic_id", topic.ID).Str("topic", topic.Name).Msg("scheduler: рассылка по теме не выполнена")
		}
		runs = append(runs, run)
	}
	s.log.Info().Int("topics", len(runs)).Msg("scheduler: запуск завершён")
	return runs, nil
}

func (s *Scheduler) allTopics(ctx context.Context) ([]domain.Topic, error) {
	var all []domain.Topic
	for offset := 0; ; offset += topicsPageSize {
		page, err := s.topics.ListTopics(ctx, false, topicsPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("получение тем: %w", err)
		}
		all = append(all, page...)
		if len(page) < topicsPageSize {
			return all, nil
		}
	}
}
