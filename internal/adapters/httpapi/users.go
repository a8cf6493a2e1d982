package httpapi

import (
	"net/http"

	httpinfra "industry-mailer/internal/infra/http"
)

// createUser идемпотентен по email: 201 для новой записи, 200 для существующей.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	user, created, err := h.directory.EnsureUser(r.Context(), req.Email, req.FullName)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpinfra.WriteJSON(w, status, user)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	users, err := h.directory.ListUsers(r.Context(), limit, offset)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, listOrEmpty(users))
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	user, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeDomainError(w, r, invalid(err))
		return
	}
	user, err := h.directory.UpdateUser(r.Context(), id, req.patch())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.directory.DeleteUser(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
