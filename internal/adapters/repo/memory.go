package repo

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"industry-mailer/internal/domain"
)

// Memory хранит данные в памяти процесса с теми же ограничениями, что и схема Postgres.
// Используется в тестах и для локального запуска без PG_DSN.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	users  map[int64]domain.User
	topics map[int64]domain.Topic
	subs   map[int64]domain.Subscription
	now    func() time.Time
}

var (
	_ domain.UserRepo         = (*Memory)(nil)
	_ domain.TopicRepo        = (*Memory)(nil)
	_ domain.SubscriptionRepo = (*Memory)(nil)
)

// NewMemory создаёт пустое хранилище.
func NewMemory() *Memory {
	return &Memory{
		users:  make(map[int64]domain.User),
		topics: make(map[int64]domain.Topic),
		subs:   make(map[int64]domain.Subscription),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) stamp() *time.Time {
	now := m.now()
	return &now
}

func page[T any](items []T, limit, offset int) []T {
	lim, off := pageArgs(limit, offset)
	if off >= uint64(len(items)) {
		return nil
	}
	end := off + lim
	if end > uint64(len(items)) {
		end = uint64(len(items))
	}
	return items[off:end]
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// EnsureUser возвращает пользователя по email, создавая его при отсутствии.
func (m *Memory) EnsureUser(_ context.Context, email, fullName string) (domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = NormalizeEmail(email)
	for _, u := range m.users {
		if u.Email == email {
			return u, false, nil
		}
	}
	u := domain.User{ID: m.id(), Email: email, FullName: strings.TrimSpace(fullName), IsActive: true, CreatedAt: m.now()}
	m.users[u.ID] = u
	return u, true, nil
}

// GetUser возвращает пользователя по id.
func (m *Memory) GetUser(_ context.Context, id int64) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("получение пользователя %d: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

// ListUsers возвращает страницу пользователей по возрастанию id.
func (m *Memory) ListUsers(_ context.Context, limit, offset int) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.User, 0, len(m.users))
	for _, id := range sortedIDs(m.users) {
		out = append(out, m.users[id])
	}
	return page(out, limit, offset), nil
}

// UpdateUser обновляет только переданные поля.
func (m *Memory) UpdateUser(_ context.Context, id int64, patch domain.UserPatch) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("обновление пользователя %d: %w", id, domain.ErrNotFound)
	}
	if patch.Email != nil {
		email := NormalizeEmail(*patch.Email)
		for _, other := range m.users {
			if other.ID != id && other.Email == email {
				return domain.User{}, fmt.Errorf("обновление пользователя %d: %w: users_email_key", id, domain.ErrConflict)
			}
		}
		u.Email = email
	}
	if patch.FullName != nil {
		u.FullName = strings.TrimSpace(*patch.FullName)
	}
	if patch.IsActive != nil {
		u.IsActive = *patch.IsActive
	}
	u.UpdatedAt = m.stamp()
	m.users[id] = u
	return u, nil
}

// DeleteUser удаляет пользователя вместе с подписками.
func (m *Memory) DeleteUser(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("удаление пользователя %d: %w", id, domain.ErrNotFound)
	}
	delete(m.users, id)
	for sid, s := range m.subs {
		if s.UserID == id {
			delete(m.subs, sid)
		}
	}
	return nil
}

// CreateTopic сохраняет новую тему.
func (m *Memory) CreateTopic(_ context.Context, topic domain.Topic) (domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	topic.Name = strings.TrimSpace(topic.Name)
	for _, t := range m.topics {
		if t.Name == topic.Name {
			return domain.Topic{}, fmt.Errorf("создание темы: %w: topics_name_key", domain.ErrConflict)
		}
	}
	topic.ID = m.id()
	topic.CreatedAt = m.now()
	topic.UpdatedAt = nil
	m.topics[topic.ID] = topic
	return topic, nil
}

// GetTopic возвращает тему по id.
func (m *Memory) GetTopic(_ context.Context, id int64) (domain.Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("получение темы %d: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// GetTopicByName возвращает тему по точному имени.
func (m *Memory) GetTopicByName(_ context.Context, name string) (domain.Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name = strings.TrimSpace(name)
	for _, t := range m.topics {
		if t.Name == name {
			return t, nil
		}
	}
	return domain.Topic{}, fmt.Errorf("получение темы %q: %w", name, domain.ErrNotFound)
}

// ListTopics возвращает темы по возрастанию id.
func (m *Memory) ListTopics(_ context.Context, activeOnly bool, limit, offset int) ([]domain.Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Topic, 0, len(m.topics))
	for _, id := range sortedIDs(m.topics) {
		t := m.topics[id]
		if activeOnly && !t.IsActive {
			continue
		}
		out = append(out, t)
	}
	return page(out, limit, offset), nil
}

// UpdateTopic обновляет только переданные поля.
func (m *Memory) UpdateTopic(_ context.Context, id int64, patch domain.TopicPatch) (domain.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.topics[id]
	if !ok {
		return domain.Topic{}, fmt.Errorf("обновление темы %d: %w", id, domain.ErrNotFound)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		for _, other := range m.topics {
			if other.ID != id && other.Name == name {
				return domain.Topic{}, fmt.Errorf("обновление темы %d: %w: topics_name_key", id, domain.ErrConflict)
			}
		}
		t.Name = name
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Keywords != nil {
		t.Keywords = *patch.Keywords
	}
	if patch.IsActive != nil {
		t.IsActive = *patch.IsActive
	}
	t.UpdatedAt = m.stamp()
	m.topics[id] = t
	return t, nil
}

// DeleteTopic удаляет тему вместе с подписками.
func (m *Memory) DeleteTopic(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.topics[id]; !ok {
		return fmt.Errorf("удаление темы %d: %w", id, domain.ErrNotFound)
	}
	delete(m.topics, id)
	for sid, s := range m.subs {
		if s.TopicID == id {
			delete(m.subs, sid)
		}
	}
	return nil
}

// CreateSubscription сохраняет подписку, проверяя ссылки и уникальность пары.
func (m *Memory) CreateSubscription(_ context.Context, sub domain.Subscription) (domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[sub.UserID]; !ok {
		return domain.Subscription{}, fmt.Errorf("создание подписки: %w: subscriptions_user_id_fkey", domain.ErrNotFound)
	}
	if _, ok := m.topics[sub.TopicID]; !ok {
		return domain.Subscription{}, fmt.Errorf("создание подписки: %w: subscriptions_topic_id_fkey", domain.ErrNotFound)
	}
	for _, s := range m.subs {
		if s.UserID == sub.UserID && s.TopicID == sub.TopicID {
			return domain.Subscription{}, fmt.Errorf("создание подписки: %w: uq_user_topic", domain.ErrConflict)
		}
	}
	if sub.Frequency == "" {
		sub.Frequency = domain.FrequencyDaily
	}
	if !sub.Frequency.Valid() {
		return domain.Subscription{}, fmt.Errorf("создание подписки: %w: %q", domain.ErrInvalidFrequency, sub.Frequency)
	}
	sub.ID = m.id()
	sub.CreatedAt = m.now()
	sub.UpdatedAt = nil
	sub.LastSentAt = nil
	m.subs[sub.ID] = sub
	return sub, nil
}

// GetSubscription возвращает подписку по id.
func (m *Memory) GetSubscription(_ context.Context, id int64) (domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[id]
	if !ok {
		return domain.Subscription{}, fmt.Errorf("получение подписки %d: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

// FindSubscription ищет подписку пользователя на тему.
func (m *Memory) FindSubscription(_ context.Context, userID, topicID int64) (domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subs {
		if s.UserID == userID && s.TopicID == topicID {
			return s, nil
		}
	}
	return domain.Subscription{}, fmt.Errorf("поиск подписки: %w", domain.ErrNotFound)
}

// ListSubscriptions возвращает страницу всех подписок.
func (m *Memory) ListSubscriptions(_ context.Context, limit, offset int) ([]domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Subscription, 0, len(m.subs))
	for _, id := range sortedIDs(m.subs) {
		out = append(out, m.subs[id])
	}
	return page(out, limit, offset), nil
}

// ListUserSubscriptions возвращает все подписки пользователя.
func (m *Memory) ListUserSubscriptions(_ context.Context, userID int64) ([]domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Subscription
	for _, id := range sortedIDs(m.subs) {
		if s := m.subs[id]; s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// UpdateSubscription обновляет только переданные поля.
func (m *Memory) UpdateSubscription(_ context.Context, id int64, patch domain.SubscriptionPatch) (domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return domain.Subscription{}, fmt.Errorf("обновление подписки %d: %w", id, domain.ErrNotFound)
	}
	if patch.Frequency != nil {
		if !patch.Frequency.Valid() {
			return domain.Subscription{}, fmt.Errorf("обновление подписки %d: %w: %q", id, domain.ErrInvalidFrequency, *patch.Frequency)
		}
		s.Frequency = *patch.Frequency
	}
	s.UpdatedAt = m.stamp()
	m.subs[id] = s
	return s, nil
}

// DeleteSubscription удаляет подписку.
func (m *Memory) DeleteSubscription(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return fmt.Errorf("удаление подписки %d: %w", id, domain.ErrNotFound)
	}
	delete(m.subs, id)
	return nil
}

// ListSubscribers возвращает адреса доставки всех подписок темы.
func (m *Memory) ListSubscribers(_ context.Context, topicID int64) ([]domain.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Subscriber
	for _, id := range sortedIDs(m.subs) {
		s := m.subs[id]
		if s.TopicID != topicID {
			continue
		}
		u := m.users[s.UserID]
		out = append(out, domain.Subscriber{SubscriptionID: s.ID, UserID: u.ID, Email: u.Email, FullName: u.FullName})
	}
	return out, nil
}

// MarkSent проставляет last_sent_at всем перечисленным подпискам.
func (m *Memory) MarkSent(_ context.Context, subscriptionIDs []int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range subscriptionIDs {
		s, ok := m.subs[id]
		if !ok {
			continue
		}
		sentAt := at
		s.LastSentAt = &sentAt
		s.UpdatedAt = m.stamp()
		m.subs[id] = s
	}
	return nil
}
