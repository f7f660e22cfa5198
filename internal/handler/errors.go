package handler

import (
	"errors"
	"fmt"
	"net/http"
)

// Request errors. Anything else reaching fail is a store failure.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("todo not found")

	errMissingID = fmt.Errorf("%w: missing todo id", ErrBadRequest)
)

// StatusFor maps an error to the response status: BadRequest 400,
// NotFound 404, everything else (store unreachable, corrupt record,
// deadline) 503.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// fail writes the status for err with an empty body.
func (h *TodoHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusServiceUnavailable {
		h.log.Warn("store call failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	w.WriteHeader(status)
}
