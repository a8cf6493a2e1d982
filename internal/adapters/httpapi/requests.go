package httpapi

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"industry-mailer/internal/domain"
)

var (
	windowRule    = validation.In(1, 7, 30).Error("days must be 1, 7, or 30")
	frequencyRule = validation.In("1", "7", "30", "daily", "weekly", "monthly").Error("frequency must be 1, 7 or 30")
)

type pageRequest struct {
	Skip  int
	Limit int
}

func (r pageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Skip, validation.Min(0)),
		validation.Field(&r.Limit, validation.Min(1), validation.Max(1000)),
	)
}

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (r createUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.FullName, validation.Length(0, 255)),
	)
}

type updateUserRequest struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	IsActive *bool   `json:"is_active"`
}

func (r updateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.EmailFormat),
		validation.Field(&r.FullName, validation.Length(0, 255)),
	)
}

func (r updateUserRequest) patch() domain.UserPatch {
	return domain.UserPatch{Email: r.Email, FullName: r.FullName, IsActive: r.IsActive}
}

type createTopicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Keywords    string `json:"keywords"`
	IsActive    *bool  `json:"is_active"`
}

func (r createTopicRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Keywords, validation.Required),
	)
}

func (r createTopicRequest) topic() domain.Topic {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return domain.Topic{Name: r.Name, Description: r.Description, Keywords: r.Keywords, IsActive: active}
}

type updateTopicRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Keywords    *string `json:"keywords"`
	IsActive    *bool   `json:"is_active"`
}

func (r updateTopicRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Keywords, validation.NilOrNotEmpty),
	)
}

func (r updateTopicRequest) patch() domain.TopicPatch {
	return domain.TopicPatch{Name: r.Name, Description: r.Description, Keywords: r.Keywords, IsActive: r.IsActive}
}

type createSubscriptionRequest struct {
	UserID    int64  `json:"user_id"`
	TopicID   int64  `json:"topic_id"`
	Frequency string `json:"frequency"`
}

func (r createSubscriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.TopicID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Frequency, frequencyRule),
	)
}

type updateSubscriptionRequest struct {
	Frequency *string `json:"frequency"`
}

func (r updateSubscriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Frequency, validation.NilOrNotEmpty, frequencyRule),
	)
}

type sendNewsletterRequest struct {
	TopicID int64 `json:"topic_id"`
	Days    int   `json:"days"`
}

func (r sendNewsletterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TopicID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.Days, windowRule),
	)
}

type fetchNewsRequest struct {
	Topic string
	Days  int
	Limit int
}

func (r fetchNewsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Topic, validation.Required),
		validation.Field(&r.Days, validation.Required.Error("days must be 1, 7, or 30"), windowRule),
		validation.Field(&r.Limit, validation.Min(1), validation.Max(100)),
	)
}

type tokenRequest struct {
	IDToken string `json:"id_token"`
}

func (r tokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.IDToken, validation.Required.Error("id_token is required")),
	)
}
