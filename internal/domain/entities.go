package domain

import (
	"strings"
	"time"
)

// User описывает подписчика рассылки.
type User struct {
	ID        int64      `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// UserPatch содержит только переданные поля пользователя.
type UserPatch struct {
	Email    *string
	FullName *string
	IsActive *bool
}

// Topic описывает тему рассылки и ключевые слова для поиска новостей.
type Topic struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Keywords    string     `json:"keywords"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// KeywordList возвращает ключевые слова темы в исходном порядке.
func (t Topic) KeywordList() []string {
	return SplitKeywords(t.Keywords)
}

// TopicPatch содержит только переданные поля темы.
type TopicPatch struct {
	Name        *string
	Description *string
	Keywords    *string
	IsActive    *bool
}

// Subscription связывает пользователя с темой.
type Subscription struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	TopicID    int64      `json:"topic_id"`
	Frequency  Frequency  `json:"frequency"`
	LastSentAt *time.Time `json:"last_sent_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// SubscriptionPatch содержит только переданные поля подписки.
type SubscriptionPatch struct {
	Frequency *Frequency
}

// Subscriber — адрес доставки для одной подписки темы.
type Subscriber struct {
	SubscriptionID int64
	UserID         int64
	Email          string
	FullName       string
}

// Article — новость, полученная от провайдера. Не сохраняется.
type Article struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	ImageURL    string `json:"image_url,omitempty"`
	Summary     string `json:"summary,omitempty"`
}

// Identity — подтверждённые данные пользователя от провайдера входа.
type Identity struct {
	Email string
	Name  string
}

// Message — письмо для одного получателя.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// SplitKeywords разбивает строку ключевых слов по запятым, отбрасывая пустые значения.
func SplitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// ValidWindow проверяет окно выборки новостей в днях.
func ValidWindow(days int) bool {
	switch days {
	case 1, 7, 30:
		return true
	}
	return false
}
