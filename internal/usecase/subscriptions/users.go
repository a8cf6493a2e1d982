package subscriptions

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"industry-mailer/internal/domain"
)

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return fmt.Errorf("%w: email %q: %v", domain.ErrInvalidInput, email, err)
	}
	return nil
}

// EnsureUser возвращает пользователя по email, создавая его при отсутствии.
func (s *Service) EnsureUser(ctx context.Context, email, fullName string) (domain.User, bool, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return domain.User{}, false, err
	}
	user, created, err := s.users.EnsureUser(ctx, email, strings.TrimSpace(fullName))
	if err != nil {
		return domain.User{}, false, fmt.Errorf("сохранение пользователя: %w", err)
	}
	if created {
		s.log.Info().Int64("user_id", user.ID).Msg("subscriptions: пользователь создан")
	}
	return user, created, nil
}

// GetUser возвращает пользователя по id.
func (s *Service) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.users.GetUser(ctx, id)
}

// ListUsers возвращает страницу пользователей.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return s.users.ListUsers(ctx, limit, offset)
}

// UpdateUser применяет только переданные поля пользователя.
func (s *Service) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (domain.User, error) {
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		if err := validateEmail(email); err != nil {
			return domain.User{}, err
		}
		patch.Email = &email
	}
	user, err := s.users.UpdateUser(ctx, id, patch)
	if err != nil {
		return domain.User{}, fmt.Errorf("обновление пользователя: %w", err)
	}
	return user, nil
}

// DeleteUser удаляет пользователя вместе с его подписками.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("удаление пользователя: %w", err)
	}
	return nil
}
