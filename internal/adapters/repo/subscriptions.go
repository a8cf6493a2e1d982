package repo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

const subscriptionColumns = "id, user_id, topic_id, frequency, last_sent_at, created_at, updated_at"

func scanSubscription(row scanner) (domain.Subscription, error) {
	var (
		s         domain.Subscription
		frequency string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.TopicID, &frequency, &s.LastSentAt, &s.CreatedAt, &s.UpdatedAt)
	s.Frequency = domain.Frequency(frequency)
	return s, err
}

// CreateSubscription сохраняет подписку. Пара (user_id, topic_id) уникальна на уровне схемы.
func (p *Postgres) CreateSubscription(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	if sub.Frequency == "" {
		sub.Frequency = domain.FrequencyDaily
	}
	start := time.Now()
	created, err := scanSubscription(p.pool.QueryRow(ctx, `
INSERT INTO subscriptions (user_id, topic_id, frequency) VALUES ($1, $2, $3)
RETURNING `+subscriptionColumns, sub.UserID, sub.TopicID, string(sub.Frequency)))
	metrics.ObserveNetworkRequest("postgres", "subscriptions_insert", "subscriptions", start, err)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("создание подписки: %w", mapError(err))
	}
	return created, nil
}

// GetSubscription возвращает подписку по id.
func (p *Postgres) GetSubscription(ctx context.Context, id int64) (domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	sub, err := scanSubscription(p.pool.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "subscriptions_get", "subscriptions", start, err)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("получение подписки %d: %w", id, mapError(err))
	}
	return sub, nil
}

// FindSubscription ищет подписку пользователя на тему.
func (p *Postgres) FindSubscription(ctx context.Context, userID, topicID int64) (domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	sub, err := scanSubscription(p.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id=$1 AND topic_id=$2`, userID, topicID))
	metrics.ObserveNetworkRequest("postgres", "subscriptions_find", "subscriptions", start, err)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("поиск подписки: %w", mapError(err))
	}
	return sub, nil
}

// ListSubscriptions возвращает страницу всех подписок.
func (p *Postgres) ListSubscriptions(ctx context.Context, limit, offset int) ([]domain.Subscription, error) {
	lim, off := pageArgs(limit, offset)
	query, args, err := p.sql.Select(subscriptionColumns).From("subscriptions").OrderBy("id").Limit(lim).Offset(off).ToSql()
	if err != nil {
		return nil, fmt.Errorf("построение запроса: %w", err)
	}
	return p.querySubscriptions(ctx, "subscriptions_list", query, args...)
}

// ListUserSubscriptions возвращает все подписки пользователя.
func (p *Postgres) ListUserSubscriptions(ctx context.Context, userID int64) ([]domain.Subscription, error) {
	return p.querySubscriptions(ctx, "subscriptions_list_by_user",
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id=$1 ORDER BY id`, userID)
}

func (p *Postgres) querySubscriptions(ctx context.Context, op, query string, args ...any) ([]domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", op, "subscriptions", start, err)
	if err != nil {
		return nil, fmt.Errorf("список подписок: %w", err)
	}
	defer rows.Close()
	var out []domain.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateSubscription обновляет только переданные поля.
func (p *Postgres) UpdateSubscription(ctx context.Context, id int64, patch domain.SubscriptionPatch) (domain.Subscription, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	b := p.sql.Update("subscriptions").Set("updated_at", sq.Expr("now()"))
	if patch.Frequency != nil {
		b = b.Set("frequency", string(*patch.Frequency))
	}
	query, args, err := b.Where(sq.Eq{"id": id}).Suffix("RETURNING " + subscriptionColumns).ToSql()
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("построение запроса: %w", err)
	}
	start := time.Now()
	sub, err := scanSubscription(p.pool.QueryRow(ctx, query, args...))
	metrics.ObserveNetworkRequest("postgres", "subscriptions_update", "subscriptions", start, err)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("обновление подписки %d: %w", id, mapError(err))
	}
	return sub, nil
}

// DeleteSubscription удаляет подписку.
func (p *Postgres) DeleteSubscription(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_delete", "subscriptions", start, err)
	if err != nil {
		return fmt.Errorf("удаление подписки %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление подписки %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListSubscribers возвращает адреса доставки всех подписок темы.
func (p *Postgres) ListSubscribers(ctx context.Context, topicID int64) ([]domain.Subscriber, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT s.id, u.id, u.email, u.full_name
FROM subscriptions s
JOIN users u ON u.id = s.user_id
WHERE s.topic_id=$1
ORDER BY s.id
`, topicID)
	metrics.ObserveNetworkRequest("postgres", "subscribers_list", "subscriptions", start, err)
	if err != nil {
		return nil, fmt.Errorf("список подписчиков темы %d: %w", topicID, err)
	}
	defer rows.Close()
	var out []domain.Subscriber
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.SubscriptionID, &s.UserID, &s.Email, &s.FullName); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MarkSent проставляет last_sent_at одной транзакцией.
func (p *Postgres) MarkSent(ctx context.Context, subscriptionIDs []int64, at time.Time) error {
	if len(subscriptionIDs) == 0 {
		return nil
	}
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "subscriptions", start, err)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	start = time.Now()
	_, err = tx.Exec(ctx, `UPDATE subscriptions SET last_sent_at=$2, updated_at=now() WHERE id = ANY($1)`, subscriptionIDs, at)
	metrics.ObserveNetworkRequest("postgres", "subscriptions_mark_sent", "subscriptions", start, err)
	if err != nil {
		return fmt.Errorf("отметка отправки: %w", err)
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "subscriptions", start, err)
	if err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}
	return nil
}
