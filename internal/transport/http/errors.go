package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tidex114/est-backend/internal/app"
	"github.com/tidex114/est-backend/internal/domain"
)

const (
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeInvalidID            = "invalid_id"
	codeValidationError      = "validation_error"
	codeNotAvailable         = "not_available"
	codeInsufficientQuantity = "insufficient_quantity"
	codeConflict             = "conflict"
	codeUnauthorized         = "unauthorized"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps the error taxonomy to stable outward signals:
// fix-your-input (400), not possible right now (409), not yours (403),
// missing (404), retry the whole request (409 conflict).
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		ve *domain.ValidationError
		na *domain.NotAvailableError
		iq *domain.InsufficientQuantityError
	)
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, codeValidationError, ve.Reason)
	case errors.As(err, &na):
		writeError(w, http.StatusConflict, codeNotAvailable, na.Reason)
	case errors.As(err, &iq):
		writeError(w, http.StatusConflict, codeInsufficientQuantity, iq.Error())
	case errors.Is(err, domain.ErrOfferNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
