package api

import (
	"errors"
	"net/http"

	"github.com/RodolfoDevApp/clubhouse-reservations-go/internal/domain"
)

type errorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code,omitempty"`
	Field     string         `json:"field,omitempty"`
	Conflicts []domain.Block `json:"conflicts,omitempty"`
}

var failureStatus = []struct {
	target error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrState, http.StatusConflict},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrUnauthorized, http.StatusForbidden},
}

// mapError turns a Failure into its status and body. Anything else is a
// system error and its message is not exposed.
func mapError(err error) (int, errorResponse) {
	f, ok := domain.AsFailure(err)
	if !ok {
		return http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"}
	}
	body := errorResponse{Error: f.Message, Code: f.Code, Field: f.Field, Conflicts: f.Conflicts}
	for _, m := range failureStatus {
		if errors.Is(err, m.target) {
			return m.status, body
		}
	}
	return http.StatusInternalServerError, body
}
