package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"press-subscription/internal/domain"
	"press-subscription/internal/infra/logging"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Detail string       `json:"detail"`
	Fields []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// statusFor maps domain sentinels onto HTTP status codes and a public message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "could not validate credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "not enough permissions"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, domain.ErrConflict.Error()
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, domain.ErrInvalidState.Error()
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "too many login attempts, try again later"
	}
	return http.StatusInternalServerError, "internal error"
}

func writeError(w http.ResponseWriter, r *http.Request, logger *zerolog.Logger, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body := errorBody{Detail: "validation failed", Fields: make([]fieldError, 0, len(verrs))}
		for _, fe := range verrs {
			body.Fields = append(body.Fields, fieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.With(r.Context(), logger).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeDetail(w, status, msg)
}
