package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"industry-mailer/internal/domain"
)

// CreateTopic создаёт тему. Имя должно быть уникальным.
func (s *Service) CreateTopic(ctx context.Context, topic domain.Topic) (domain.Topic, error) {
	topic.Name = strings.TrimSpace(topic.Name)
	if topic.Name == "" {
		return domain.Topic{}, fmt.Errorf("%w: пустое имя темы", domain.ErrInvalidInput)
	}
	topic.Keywords = NormalizeKeywords(topic.Keywords)

	_, err := s.topics.GetTopicByName(ctx, topic.Name)
	switch {
	case err == nil:
		return domain.Topic{}, fmt.Errorf("тема %q: %w", topic.Name, domain.ErrConflict)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.Topic{}, fmt.Errorf("поиск темы: %w", err)
	}

	created, err := s.topics.CreateTopic(ctx, topic)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("создание темы: %w", err)
	}
	return created, nil
}

// UpdateTopic применяет только переданные поля темы.
func (s *Service) UpdateTopic(ctx context.Context, id int64, patch domain.TopicPatch) (domain.Topic, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Topic{}, fmt.Errorf("%w: пустое имя темы", domain.ErrInvalidInput)
		}
		patch.Name = &name
	}
	if patch.Keywords != nil {
		keywords := NormalizeKeywords(*patch.Keywords)
		patch.Keywords = &keywords
	}
	topic, err := s.topics.UpdateTopic(ctx, id, patch)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("обновление темы: %w", err)
	}
	return topic, nil
}

// GetTopic возвращает тему по id.
func (s *Service) GetTopic(ctx context.Context, id int64) (domain.Topic, error) {
	return s.topics.GetTopic(ctx, id)
}

// ListTopics возвращает страницу тем.
func (s *Service) ListTopics(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Topic, error) {
	return s.topics.ListTopics(ctx, activeOnly, limit, offset)
}

// DeleteTopic удаляет тему вместе с подписками на неё.
func (s *Service) DeleteTopic(ctx context.Context, id int64) error {
	if err := s.topics.DeleteTopic(ctx, id); err != nil {
		return fmt.Errorf("удаление темы: %w", err)
	}
	s.log.Info().Int64("topic_id", id).Msg("subscriptions: тема удалена")
	return nil
}

// NormalizeKeywords удаляет пустые и дублирующиеся ключевые слова, сохраняя порядок.
func NormalizeKeywords(raw string) string {
	terms := domain.SplitKeywords(raw)
	seen := make(map[string]struct{}, len(terms))
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, term)
	}
	return strings.Join(cleaned, ",")
}
