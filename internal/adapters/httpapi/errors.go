package httpapi

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"industry-mailer/internal/domain"
	httpinfra "industry-mailer/internal/infra/http"
)

func invalid(err error) error {
	return &validationError{err: err}
}

type validationError struct {
	err error
}

func (e *validationError) Error() string { return e.err.Error() }

func (e *validationError) Unwrap() error { return domain.ErrInvalidInput }

// writeDomainError переводит ошибку сервиса в HTTP статус и машинный код.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("request_id", httpinfra.RequestID(r)).Str("path", r.URL.Path).Msg("api: ошибка обработки запроса")
	}
	httpinfra.WriteError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	var verr validation.Errors
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidFrequency):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrNoContent):
		return http.StatusNotFound, "no_content"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrDispatchInProgress):
		return http.StatusConflict, "dispatch_in_progress"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusServiceUnavailable, "configuration_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
