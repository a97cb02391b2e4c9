package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/safetyaudit/internal/aggregate"
	"github.com/vbonduro/safetyaudit/internal/photostore"
	"github.com/vbonduro/safetyaudit/internal/report"
	"github.com/vbonduro/safetyaudit/internal/service"
	"github.com/vbonduro/safetyaudit/internal/store"
	"github.com/vbonduro/safetyaudit/internal/summary"
)

const maxJSONBody = 64 * 1024 * 1024 // 64 MB, charts may be inlined

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps service errors to HTTP status codes. Internal failures are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg}, s.logger)
}

func statusFor(err error) int {
	var aggErr *aggregate.AggregationError
	switch {
	case errors.Is(err, service.ErrInvalid), errors.Is(err, report.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, photostore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoAudits):
		return http.StatusConflict
	case errors.As(err, &aggErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, summary.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return errors.Join(service.ErrInvalid, err)
	}
	return nil
}

func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Join(service.ErrInvalid, errors.New("invalid id"))
	}
	return id, nil
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
