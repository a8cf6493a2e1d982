package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"industry-mailer/internal/domain"
	httpinfra "industry-mailer/internal/infra/http"
)

type newsResponse struct {
	Articles     []domain.Article `json:"articles"`
	TotalResults int              `json:"total_results"`
}

type sendNewsletterResponse struct {
	Message       string                 `json:"message"`
	ArticlesCount int                    `json:"articles_count,omitempty"`
	Report        *domain.DispatchReport `json:"report,omitempty"`
}

// fetchNews ищет статьи по произвольным ключевым словам из параметра topic.
func (h *Handler) fetchNews(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 1)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	req := fetchNewsRequest{Topic: r.URL.Query().Get("topic"), Days: days, Limit: limit}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	articles, err := h.source.Fetch(r.Context(), req.Topic, req.Days, req.Limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, newsResponse{Articles: listOrEmpty(articles), TotalResults: len(articles)})
}

// sendNewsletter синхронно рассылает письмо подписчикам темы и возвращает отчёт.
func (h *Handler) sendNewsletter(w http.ResponseWriter, r *http.Request) {
	var req sendNewsletterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if req.Days == 0 {
		req.Days = 1
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}

	report, err := h.dispatcher.DispatchForTopic(r.Context(), req.TopicID, req.Days)
	switch {
	case errors.Is(err, domain.ErrNoSubscribers):
		httpinfra.WriteJSON(w, http.StatusOK, sendNewsletterResponse{Message: "No subscribers found for this topic"})
		return
	case err != nil:
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, sendNewsletterResponse{
		Message:       fmt.Sprintf("Newsletter sent to %d of %d subscribers", report.Delivered, report.SubscriberCount),
		ArticlesCount: report.ArticleCount,
		Report:        &report,
	})
}

// previewNewsletter строит письмо по теме без отправки. format=html отдаёт сам документ.
func (h *Handler) previewNewsletter(w http.ResponseWriter, r *http.Request) {
	topicID, err := queryInt(r, "topic_id", 0)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	days, err := queryInt(r, "days", 1)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	req := sendNewsletterRequest{TopicID: int64(topicID), Days: days}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	preview, err := h.dispatcher.PreviewForTopic(r.Context(), req.TopicID, req.Days)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		httpinfra.WriteHTML(w, http.StatusOK, preview.HTML)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, preview)
}
