package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

const (
	defaultArticleLimit = 10
	defaultLockTTL      = 10 * time.Minute
	markSentTimeout     = 10 * time.Second
)

// Options задаёт параметры рассылки.
type Options struct {
	ArticleLimit int
	LockTTL      time.Duration
}

// Service строит и рассылает письма по темам.
type Service struct {
	topics domain.TopicRepo
	subs   domain.SubscriptionRepo
	source domain.ArticleSource
	mailer domain.Mailer
	locker domain.Locker
	log    zerolog.Logger
	opts   Options
	now    func() time.Time
}

// NewService создаёт сервис рассылки. locker может быть nil, тогда параллельные запуски не ограничиваются.
func NewService(topics domain.TopicRepo, subs domain.SubscriptionRepo, source domain.ArticleSource, mailer domain.Mailer, locker domain.Locker, logger zerolog.Logger, opts Options) *Service {
	if opts.ArticleLimit <= 0 {
		opts.ArticleLimit = defaultArticleLimit
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	return &Service{
		topics: topics,
		subs:   subs,
		source: source,
		mailer: mailer,
		locker: locker,
		log:    logger,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Preview — письмо, построенное без отправки.
type Preview struct {
	Topic    domain.Topic     `json:"topic"`
	Subject  string           `json:"subject"`
	Articles []domain.Article `json:"articles"`
	HTML     string           `json:"html"`
}

// DispatchForTopic рассылает письмо всем подписчикам темы по запросу API.
func (s *Service) DispatchForTopic(ctx context.Context, topicID int64, days int) (domain.DispatchReport, error) {
	return s.Dispatch(ctx, topicID, days, domain.DispatchCauseManual)
}

// Dispatch получает статьи, строит письмо один раз и доставляет его каждому подписчику.
// Ошибка доставки одному подписчику не прерывает рассылку. last_sent_at проставляется
// только успешно доставленным подпискам одним вызовом после всех попыток.
func (s *Service) Dispatch(ctx context.Context, topicID int64, days int, cause domain.DispatchCause) (report domain.DispatchReport, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveDispatch(string(cause), dispatchResult(err), start)
	}()

	if !domain.ValidWindow(days) {
		return domain.DispatchReport{}, fmt.Errorf("%w: got %d", domain.ErrInvalidWindow, days)
	}
	topic, err := s.topics.GetTopic(ctx, topicID)
	if err != nil {
		return domain.DispatchReport{}, fmt.Errorf("получение темы: %w", err)
	}
	subscribers, err := s.subs.ListSubscribers(ctx, topicID)
	if err != nil {
		return domain.DispatchReport{}, fmt.Errorf("получение подписчиков: %w", err)
	}
	if len(subscribers) == 0 {
		return domain.DispatchReport{}, domain.ErrNoSubscribers
	}

	if s.locker != nil {
		unlock, ok, err := s.locker.TryLock(ctx, "dispatch:topic:"+strconv.FormatInt(topicID, 10), s.opts.LockTTL)
		if err != nil {
			return domain.DispatchReport{}, fmt.Errorf("блокировка рассылки: %w", err)
		}
		if !ok {
			return domain.DispatchReport{}, domain.ErrDispatchInProgress
		}
		defer unlock()
	}

	report = domain.DispatchReport{
		RunID:           uuid.NewString(),
		TopicID:         topic.ID,
		TopicName:       topic.Name,
		SubscriberCount: len(subscribers),
		StartedAt:       s.now(),
	}
	log := s.log.With().Str("run_id", report.RunID).Int64("topic_id", topic.ID).Str("cause", string(cause)).Logger()

	articles, err := s.source.Fetch(ctx, topic.Keywords, days, s.opts.ArticleLimit)
	if err != nil {
		return domain.DispatchReport{}, fmt.Errorf("получение новостей: %w", err)
	}
	if len(articles) == 0 {
		log.Info().Msg("digest: новостей нет, рассылка пропущена")
		return domain.DispatchReport{}, fmt.Errorf("тема %q за %d дн.: %w", topic.Name, days, domain.ErrNoContent)
	}
	report.ArticleCount = len(articles)

	msg := domain.Message{
		Subject: NewsletterSubject(topic.Name),
		HTML:    RenderNewsletter(topic.Name, articles),
		Text:    RenderNewsletterText(topic.Name, articles),
	}

	delivered := make([]int64, 0, len(subscribers))
	report.Deliveries = make([]domain.DeliveryOutcome, 0, len(subscribers))
	for _, sub := range subscribers {
		outcome := domain.DeliveryOutcome{SubscriptionID: sub.SubscriptionID, Email: sub.Email}
		m := msg
		m.To = sub.Email
		if err := s.deliver(ctx, m); err != nil {
			outcome.Error = err.Error()
			report.Failed++
			log.Error().Err(err).Int64("subscription_id", sub.SubscriptionID).Str("email", sub.Email).Msg("digest: письмо не доставлено")
		} else {
			outcome.Delivered = true
			report.Delivered++
			delivered = append(delivered, sub.SubscriptionID)
		}
		report.Deliveries = append(report.Deliveries, outcome)
	}

	report.FinishedAt = s.now()
	// Письма уже ушли: отметку фиксируем даже при отмене запроса.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), markSentTimeout)
	defer cancel()
	if err := s.subs.MarkSent(markCtx, delivered, report.FinishedAt); err != nil {
		return report, fmt.Errorf("отметка отправки: %w", err)
	}

	log.Info().
		Int("subscribers", report.SubscriberCount).
		Int("articles", report.ArticleCount).
		Int("delivered", report.Delivered).
		Int("failed", report.Failed).
		Msg("digest: рассылка завершена")
	return report, nil
}

func (s *Service) deliver(ctx context.Context, msg domain.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic при отправке: %v", r)
		}
		metrics.ObserveDelivery(err)
	}()
	return s.mailer.Send(ctx, msg)
}

// PreviewForTopic строит письмо по теме без отправки и без изменения подписок.
func (s *Service) PreviewForTopic(ctx context.Context, topicID int64, days int) (Preview, error) {
	if !domain.ValidWindow(days) {
		return Preview{}, fmt.Errorf("%w: got %d", domain.ErrInvalidWindow, days)
	}
	topic, err := s.topics.GetTopic(ctx, topicID)
	if err != nil {
		return Preview{}, fmt.Errorf("получение темы: %w", err)
	}
	articles, err := s.source.Fetch(ctx, topic.Keywords, days, s.opts.ArticleLimit)
	if err != nil {
		return Preview{}, fmt.Errorf("получение новостей: %w", err)
	}
	if len(articles) == 0 {
		return Preview{}, fmt.Errorf("тема %q за %d дн.: %w", topic.Name, days, domain.ErrNoContent)
	}
	return Preview{
		Topic:    topic,
		Subject:  NewsletterSubject(topic.Name),
		Articles: articles,
		HTML:     RenderNewsletter(topic.Name, articles),
	}, nil
}

func dispatchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNoSubscribers):
		return "no_subscribers"
	case errors.Is(err, domain.ErrNoContent):
		return "no_content"
	case errors.Is(err, domain.ErrDispatchInProgress):
		return "in_progress"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
