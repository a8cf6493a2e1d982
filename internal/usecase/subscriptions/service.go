package subscriptions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"industry-mailer/internal/domain"
)

// Service управляет пользователями, темами и подписками.
type Service struct {
	users  domain.UserRepo
	topics domain.TopicRepo
	subs   domain.SubscriptionRepo
	log    zerolog.Logger
}

// NewService создаёт сервис подписок.
func NewService(users domain.UserRepo, topics domain.TopicRepo, subs domain.SubscriptionRepo, logger zerolog.Logger) *Service {
	return &Service{users: users, topics: topics, subs: subs, log: logger}
}

// CreateSubscription подписывает пользователя на тему.
// Пустая периодичность означает ежедневную рассылку.
func (s *Service) CreateSubscription(ctx context.Context, userID, topicID int64, frequency domain.Frequency) (domain.Subscription, error) {
	if frequency == "" {
		frequency = domain.FrequencyDaily
	}
	if !frequency.Valid() {
		return domain.Subscription{}, fmt.Errorf("%w: %q", domain.ErrInvalidFrequency, frequency)
	}
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return domain.Subscription{}, fmt.Errorf("получение пользователя: %w", err)
	}
	if _, err := s.topics.GetTopic(ctx, topicID); err != nil {
		return domain.Subscription{}, fmt.Errorf("получение темы: %w", err)
	}

	_, err := s.subs.FindSubscription(ctx, userID, topicID)
	switch {
	case err == nil:
		return domain.Subscription{}, fmt.Errorf("пользователь %d уже подписан на тему %d: %w", userID, topicID, domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Subscription{}, fmt.Errorf("поиск подписки: %w", err)
	}

	// Проверка выше не защищает от гонки, уникальный индекс в хранилище вернёт ErrConflict.
	sub, err := s.subs.CreateSubscription(ctx, domain.Subscription{UserID: userID, TopicID: topicID, Frequency: frequency})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("создание подписки: %w", err)
	}
	s.log.Info().Int64("subscription_id", sub.ID).Int64("user_id", userID).Int64("topic_id", topicID).Msg("subscriptions: подписка создана")
	return sub, nil
}

// UpdateSubscription применяет только переданные поля.
func (s *Service) UpdateSubscription(ctx context.Context, id int64, patch domain.SubscriptionPatch) (domain.Subscription, error) {
	if patch.Frequency != nil && !patch.Frequency.Valid() {
		return domain.Subscription{}, fmt.Errorf("%w: %q", domain.ErrInvalidFrequency, *patch.Frequency)
	}
	sub, err := s.subs.UpdateSubscription(ctx, id, patch)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("обновление подписки: %w", err)
	}
	return sub, nil
}

// GetSubscription возвращает подписку по id.
func (s *Service) GetSubscription(ctx context.Context, id int64) (domain.Subscription, error) {
	return s.subs.GetSubscription(ctx, id)
}

// ListSubscriptions возвращает страницу всех подписок.
func (s *Service) ListSubscriptions(ctx context.Context, limit, offset int) ([]domain.Subscription, error) {
	return s.subs.ListSubscriptions(ctx, limit, offset)
}

// ListUserSubscriptions возвращает подписки пользователя.
func (s *Service) ListUserSubscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	if _, err := s.users.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return s.subs.ListUserSubscriptions(ctx, userID)
}

// DeleteSubscription удаляет подписку.
func (s *Service) DeleteSubscription(ctx context.Context, id int64) error {
	if err := s.subs.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("удаление подписки: %w", err)
	}
	return nil
}
