package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"carsapi/pkg/car"
	"carsapi/pkg/ingest"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

const (
	codeNotFound       = "not_found"
	codeInvalidID      = "invalid_id"
	codeInvalidPayload = "invalid_payload"
	codeInvalidFormat  = "invalid_format"
	codeInvalidRow     = "invalid_row"
	codeTooLarge       = "too_large"
	codeInternal       = "internal"
)

var errInvalidID = errors.New("invalid car id")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps an error to its status and code.
func classify(err error) (int, string) {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, car.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, errInvalidID):
		return http.StatusBadRequest, codeInvalidID
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge, codeTooLarge
	case errors.Is(err, car.ErrInvalidPayload):
		return http.StatusBadRequest, codeInvalidPayload
	case errors.Is(err, ingest.ErrInvalidFormat):
		return http.StatusBadRequest, codeInvalidFormat
	case errors.Is(err, ingest.ErrInvalidRow):
		return http.StatusBadRequest, codeInvalidRow
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	detail := err.Error()
	if status >= http.StatusInternalServerError {
		s.log.Error(ctx, op, "error", err)
		detail = "internal server error"
	} else {
		s.log.Warn(ctx, op, "error", err, "code", code)
	}
	writeJSON(w, status, ErrorResponse{Error: code, Detail: detail})
}
