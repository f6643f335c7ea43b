package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/srgjo27/hotel_ledger/internal/core/domain"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}

	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	return false
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return false
	}
	return true
}

// writeError maps service errors onto HTTP statuses. Unknown errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Code: "VALIDATION_FAILED", Field: verr.Field})
		return
	}

	var derr *domain.DomainError
	if errors.As(err, &derr) {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: derr.Code})
			return
		case errors.Is(err, domain.ErrRoomUnavailable),
			errors.Is(err, domain.ErrRoomLocked),
			errors.Is(err, domain.ErrRoomOutOfService),
			errors.Is(err, domain.ErrInvalidTransition),
			errors.Is(err, domain.ErrConcurrencyConflict),
			errors.Is(err, domain.ErrAlreadyExists):
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: derr.Code})
			return
		}
	}

	log.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
