package handler

import (
	"net/http"
	"strings"
)

var (
	corsAllowHeaders = strings.Join([]string{
		"X-Requested-With",
		"Access-Control-Allow-Origin",
		"Origin",
		"Content-Type",
		"Accept",
	}, ", ")
	corsAllowMethods = strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodDelete,
	}, ", ")
)

// WithCORS allows every origin and answers preflight requests itself.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
		w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
