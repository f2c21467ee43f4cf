package middleware

import (
	"net/http"
	"strings"
)

// CORS allows the configured origins, a comma-separated list or "*".
func CORS(origins string) func(http.Handler) http.Handler {
	allowedList := strings.Split(origins, ",")
	for i := range allowedList {
		allowedList[i] = strings.TrimSpace(allowedList[i])
	}
	fallback := allowedList[0]

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqOrigin := r.Header.Get("Origin")
			allowed := fallback
			if reqOrigin != "" && isAllowed(reqOrigin, allowedList) {
				allowed = reqOrigin
			}

			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Add("Vary", "Origin")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAllowed(reqOrigin string, allowed []string) bool {
	for _, o := range allowed {
		if o == "*" || o == reqOrigin {
			return true
		}
	}
	return false
}
