package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"media-ingest/internal/logging"
)

var healthCheckPaths = map[string]bool{
	"/health":  true,
	"/healthz": true,
}

// sanitizeLogField strips control characters so request data cannot forge
// log lines or inject terminal escapes.
func sanitizeLogField(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r':
			b.WriteRune(' ')
		case r < 0x20 && r != '\t', r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Logger logs one line per request at info level. Health checks are logged
// only when logHealthChecks is set.
func Logger(logHealthChecks bool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !logHealthChecks && healthCheckPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newStatusWriter(w)
			next.ServeHTTP(wrapped, r)

			query := sanitizeLogField(r.URL.RawQuery)
			if query == "" {
				query = "-"
			}
			logging.Info("%s %s %s %s %d %dB %dms",
				sanitizeLogField(getClientIP(r)),
				sanitizeLogField(r.Method),
				sanitizeLogField(r.URL.Path),
				query,
				wrapped.status,
				wrapped.bytes,
				time.Since(start).Milliseconds())
		})
	}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
