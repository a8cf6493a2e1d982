package domain

import "time"

// DispatchCause описывает источник запуска рассылки.
type DispatchCause string

const (
	// DispatchCauseManual — рассылка запрошена через API.
	DispatchCauseManual DispatchCause = "manual"
	// DispatchCauseScheduled — рассылка запущена таймером.
	DispatchCauseScheduled DispatchCause = "scheduled"
)

// DeliveryOutcome — результат доставки одному подписчику.
type DeliveryOutcome struct {
	SubscriptionID int64  `json:"subscription_id"`
	Email          string `json:"email"`
	Delivered      bool   `json:"delivered"`
	Error          string `json:"error,omitempty"`
}

// DispatchReport описывает итог одной рассылки по теме.
type DispatchReport struct {
	RunID           string            `json:"run_id"`
	TopicID         int64             `json:"topic_id"`
	TopicName       string            `json:"topic_name"`
	SubscriberCount int               `json:"subscriber_count"`
	ArticleCount    int               `json:"articles_count"`
	Delivered       int               `json:"delivered"`
	Failed          int               `json:"failed"`
	Deliveries      []DeliveryOutcome `json:"deliveries,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
}
