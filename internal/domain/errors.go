package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration — не задан обязательный ключ или адрес провайдера.
	ErrConfiguration = errors.New("configuration error")
	// ErrUpstream — провайдер вернул ошибочный статус или ответ.
	ErrUpstream = errors.New("upstream error")
	// ErrNotFound — запрошенная сущность отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrConflict — нарушение уникальности.
	ErrConflict = errors.New("conflict")
	// ErrNoContent — результат пуст, а политика вызывающего требует непустой.
	ErrNoContent = errors.New("no content")
	// ErrNoSubscribers — у темы нет подписок, рассылка не выполнялась.
	ErrNoSubscribers = errors.New("no subscribers for topic")
	// ErrDispatchInProgress — рассылка по теме уже выполняется.
	ErrDispatchInProgress = errors.New("dispatch already in progress")
	// ErrInvalidWindow — окно выборки не равно 1, 7 или 30 дням.
	ErrInvalidWindow = errors.New("days must be 1, 7, or 30")
	// ErrInvalidFrequency — периодичность вне перечисления.
	ErrInvalidFrequency = errors.New("invalid frequency")
	// ErrInvalidInput — некорректные входные данные.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated — токен провайдера входа не прошёл проверку.
	ErrUnauthenticated = errors.New("invalid identity token")
)

// UpstreamError содержит сообщение внешнего провайдера.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap позволяет проверять ошибку через errors.Is(err, ErrUpstream).
func (e *UpstreamError) Unwrap() error {
	return ErrUpstream
}
