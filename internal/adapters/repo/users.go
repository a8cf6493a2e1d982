package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"industry-mailer/internal/domain"
	"industry-mailer/internal/infra/metrics"
)

const userColumns = "id, email, full_name, is_active, created_at, updated_at"

func scanUser(row scanner) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// NormalizeEmail приводит адрес к виду, по которому проверяется уникальность.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureUser возвращает пользователя по email, создавая его при отсутствии.
func (p *Postgres) EnsureUser(ctx context.Context, email, fullName string) (domain.User, bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	email = NormalizeEmail(email)

	start := time.Now()
	user, err := scanUser(p.pool.QueryRow(ctx, `
INSERT INTO users (email, full_name) VALUES ($1, $2)
ON CONFLICT (email) DO NOTHING
RETURNING `+userColumns, email, strings.TrimSpace(fullName)))
	metrics.ObserveNetworkRequest("postgres", "users_insert", "users", start, err)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, fmt.Errorf("создание пользователя: %w", mapError(err))
	}

	start = time.Now()
	user, err = scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	metrics.ObserveNetworkRequest("postgres", "users_get_by_email", "users", start, err)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("получение пользователя: %w", mapError(err))
	}
	return user, false, nil
}

// GetUser возвращает пользователя по id.
func (p *Postgres) GetUser(ctx context.Context, id int64) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	user, err := scanUser(p.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	metrics.ObserveNetworkRequest("postgres", "users_get", "users", start, err)
	if err != nil {
		return domain.User{}, fmt.Errorf("получение пользователя %d: %w", id, mapError(err))
	}
	return user, nil
}

// ListUsers возвращает страницу пользователей по возрастанию id.
func (p *Postgres) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	lim, off := pageArgs(limit, offset)
	query, args, err := p.sql.Select(userColumns).From("users").OrderBy("id").Limit(lim).Offset(off).ToSql()
	if err != nil {
		return nil, fmt.Errorf("построение запроса: %w", err)
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, query, args...)
	metrics.ObserveNetworkRequest("postgres", "users_list", "users", start, err)
	if err != nil {
		return nil, fmt.Errorf("список пользователей: %w", err)
	}
	defer rows.Close()
	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUser обновляет только переданные поля.
func (p *Postgres) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	b := p.sql.Update("users").Set("updated_at", sq.Expr("now()"))
	if patch.Email != nil {
		b = b.Set("email", NormalizeEmail(*patch.Email))
	}
	if patch.FullName != nil {
		b = b.Set("full_name", strings.TrimSpace(*patch.FullName))
	}
	if patch.IsActive != nil {
		b = b.Set("is_active", *patch.IsActive)
	}
	query, args, err := b.Where(sq.Eq{"id": id}).Suffix("RETURNING " + userColumns).ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("построение запроса: %w", err)
	}
	start := time.Now()
	user, err := scanUser(p.pool.QueryRow(ctx, query, args...))
	metrics.ObserveNetworkRequest("postgres", "users_update", "users", start, err)
	if err != nil {
		return domain.User{}, fmt.Errorf("обновление пользователя %d: %w", id, mapError(err))
	}
	return user, nil
}

// DeleteUser удаляет пользователя вместе с подписками.
func (p *Postgres) DeleteUser(ctx context.Context, id int64) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()
	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	metrics.ObserveNetworkRequest("postgres", "users_delete", "users", start, err)
	if err != nil {
		return fmt.Errorf("удаление пользователя %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("удаление пользователя %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
