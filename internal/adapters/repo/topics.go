package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

const topicColumns = "id, name, description, keywords, is_active, created_at, updated_at"

func scanTopic(row scanner) (domain.Topic, error) {
	var t domain.Topic
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Keywords, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateTopic сохраняет новую тему. Повтор имени даёт ErrConflict.
func (p *Postgres) CreateTopic(ctx context.Context, topic domain.Topic) (domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	created, err := scanTopic(p.pool.QueryRow(ctx, `
INSERT INTO topics (name, description, keywords, is_active) VALUES ($1, $2, $3, $4)
RETURNING `+topicColumns, strings.TrimSpace(topic.Name), topic.Description, topic.Keywords, topic.IsActive))
	metrics.ObserveNetworkRequest("postgres", "topics_insert", "topics", start, err)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("создание темы: %w", mapError(err))
	}
	return created, nil
}

// GetTopic возвращает тему по id.
func (p *Postgres) GetTopic(ctx context.Context, id int64) (domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	topic, err := scanTopic(p.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "topics_get", "topics", start, err)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("получение темы %d: %w", id, mapError(err))
	}
	return topic, nil
}

// GetTopicByName возвращает тему по точному имени.
func (p *Postgres) GetTopicByName(ctx context.Context, name string) (domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	topic, err := scanTopic(p.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM topics WHERE name=$1`, strings.TrimSpace(name)))
	metrics.ObserveNetworkRequest("postgres", "topics_get_by_name", "topics", start, err)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("получение темы %q: %w", name, mapError(err))
	}
	return topic, nil
}

// ListTopics возвращает темы по возрастанию id.
func (p *Postgres) ListTopics(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	lim, off := pageArgs(limit, offset)
	b := p.sql.Select(topicColumns).From("topics")
	if activeOnly {
		b = b.Where(sq.Eq{"is_active": true})
	}
	query, args, err := b.OrderBy("id").Limit(lim).Offset(off).ToSql()
	if err != nil {
		return nil, fmt.Errorf("построение запроса: %w", err)
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "topics_list", "topics", start, err)
	if err != nil {
		return nil, fmt.Errorf("список тем: %w", err)
	}
	defer rows.Close()
	var out []domain.Topic
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTopic обновляет только переданные поля.
func (p *Postgres) UpdateTopic(ctx context.Context, id int64, patch domain.TopicPatch) (domain.Topic, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	b := p.sql.Update("topics").Set("updated_at", sq.Expr("now()"))
	if patch.Name != nil {
		b = b.Set("name", strings.TrimSpace(*patch.Name))
	}
	if patch.Description != nil {
		b = b.Set("description", *patch.Description)
	}
	if patch.Keywords != nil {
		b = b.Set("keywords", *patch.Keywords)
	}
	if patch.IsActive != nil {
		b = b.Set("is_active", *patch.IsActive)
	}
	query, args, err := b.Where(sq.Eq{"id": id}).Suffix("RETURNING " + topicColumns).ToSql()
	if err != nil {
		return domain.Topic{}, fmt.Errorf("построение запроса: %w", err)
	}
	start := time.Now()
	topic, err := scanTopic(p.pool.QueryRow(ctx, query, args...))
	metrics.ObserveNetworkRequest("postgres", "topics_update", "topics", start, err)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("обновление темы %d: %w", id, mapError(err))
	}
	return topic, nil
}

// DeleteTopic удаляет тему вместе с подписками.
func (p *Postgres) DeleteTopic(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM topics WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "topics_delete", "topics", start, err)
	if err != nil {
		return fmt.Errorf("удаление темы %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление темы %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
