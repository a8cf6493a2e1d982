package domain

import (
	"context"
	"time"
)

// UserRepo управляет пользователями.
type UserRepo interface {
	// EnsureUser возвращает пользователя по email, создавая его при отсутствии.
	// Второй результат равен true, если запись была создана.
	EnsureUser(ctx context.Context, email, fullName string) (User, bool, error)
	GetUser(ctx context.Context, id int64) (User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	UpdateUser(ctx context.Context, id int64, patch UserPatch) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// TopicRepo управляет темами.
type TopicRepo interface {
	CreateTopic(ctx context.Context, topic Topic) (Topic, error)
	GetTopic(ctx context.Context, id int64) (Topic, error)
	GetTopicByName(ctx context.Context, name string) (Topic, error)
	ListTopics(ctx context.Context, activeOnly bool, limit, offset int) ([]Topic, error)
	UpdateTopic(ctx context.Context, id int64, patch TopicPatch) (Topic, error)
	DeleteTopic(ctx context.Context, id int64) error
}

// SubscriptionRepo управляет подписками.
type SubscriptionRepo interface {
	CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	GetSubscription(ctx context.Context, id int64) (Subscription, error)
	FindSubscription(ctx context.Context, userID, topicID int64) (Subscription, error)
	ListSubscriptions(ctx context.Context, limit, offset int) ([]Subscription, error)
	ListUserSubscriptions(ctx context.Context, userID int64) ([]Subscription, error)
	UpdateSubscription(ctx context.Context, id int64, patch SubscriptionPatch) (Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error
	// ListSubscribers возвращает адреса доставки всех подписок темы.
	ListSubscribers(ctx context.Context, topicID int64) ([]Subscriber, error)
	// MarkSent обновляет last_sent_at у перечисленных подписок одной транзакцией.
	MarkSent(ctx context.Context, subscriptionIDs []int64, at time.Time) error
}

// ArticleSource ищет новости по ключевым словам за окно в днях.
// Возвращаемые статьи уже содержат Summary.
type ArticleSource interface {
	Fetch(ctx context.Context, keywords string, windowDays, limit int) ([]Article, error)
}

// ArticleSummarizer добавляет краткое содержание к статьям. Ошибки провайдеров не возвращаются.
type ArticleSummarizer interface {
	Summarize(ctx context.Context, articles []Article, maxLength int) []Article
}

// Mailer доставляет письмо одному получателю.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Locker выдаёт эксклюзивную блокировку по ключу.
type Locker interface {
	// TryLock не ждёт освобождения: ok=false, если ключ уже занят.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), ok bool, err error)
}

// IdentityVerifier подтверждает вход пользователя через внешнего провайдера.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (Identity, error)
	Exchange(ctx context.Context, code string) (Identity, error)
}
