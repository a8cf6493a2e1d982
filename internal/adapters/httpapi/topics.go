package httpapi

import (
	"net/http"
	"strconv"

	httpinfra "industry-mailer/internal/infra/http"
)

func (h *Handler) createTopic(w http.ResponseWriter, r *http.Request) {
	var req createTopicRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	topic, err := h.directory.CreateTopic(r.Context(), req.topic())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, topic)
}

// listTopics по умолчанию отдаёт только активные темы, include_inactive=true возвращает все.
func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	activeOnly := true
	if raw := r.URL.Query().Get("include_inactive"); raw != "" {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeDomainError(w, r, invalid(err))
			return
		}
		activeOnly = !all
	}
	topics, err := h.directory.ListTopics(r.Context(), activeOnly, limit, offset)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, listOrEmpty(topics))
}

func (h *Handler) getTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	topic, err := h.directory.GetTopic(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, topic)
}

func (h *Handler) updateTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req updateTopicRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	topic, err := h.directory.UpdateTopic(r.Context(), id, req.patch())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, topic)
}

func (h *Handler) deleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.directory.DeleteTopic(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
