package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wmsopt/backend/internal/optimizer"
	"github.com/wmsopt/backend/internal/scheduler"
	"github.com/wmsopt/backend/internal/services"
)

// maxBodyBytes bounds request bodies read by the handlers.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// StatusFor maps service, optimizer and scheduler errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrDependencyCycle),
		errors.Is(err, services.ErrDuplicateWorker):
		return http.StatusConflict
	case errors.Is(err, services.ErrRemoteUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, scheduler.ErrMalformedResponse),
		errors.Is(err, scheduler.ErrRemoteStatus),
		errors.Is(err, scheduler.ErrCircuitOpen):
		return http.StatusBadGateway
	case errors.Is(err, optimizer.ErrSolveCanceled),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError logs server-side failures and writes a JSON error body. Internal
// error details are not exposed to clients.
func writeError(w http.ResponseWriter, log *slog.Logger, msg string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(msg, "error", err)
		if status == http.StatusInternalServerError {
			writeMessage(w, status, "internal error")
			return
		}
	}
	writeMessage(w, status, err.Error())
}

// readBody reads a bounded request body.
func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}
