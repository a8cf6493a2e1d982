package httpapi

import (
	"net/http"

	"industry-mailer/internal/domain"
	httpinfra "industry-mailer/internal/infra/http"
)

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	var frequency domain.Frequency
	if req.Frequency != "" {
		parsed, err := domain.ParseFrequency(req.Frequency)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		frequency = parsed
	}
	sub, err := h.directory.CreateSubscription(r.Context(), req.UserID, req.TopicID, frequency)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	subs, err := h.directory.ListSubscriptions(r.Context(), limit, offset)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, listOrEmpty(subs))
}

func (h *Handler) listUserSubscriptions(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	subs, err := h.directory.ListUserSubscriptions(r.Context(), userID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, listOrEmpty(subs))
}

func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	sub, err := h.directory.GetSubscription(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) updateSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req updateSubscriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	var patch domain.SubscriptionPatch
	if req.Frequency != nil {
		frequency, err := domain.ParseFrequency(*req.Frequency)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		patch.Frequency = &frequency
	}
	sub, err := h.directory.UpdateSubscription(r.Context(), id, patch)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.directory.DeleteSubscription(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
