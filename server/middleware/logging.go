package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/kbukum/kubeping/logger"
)

// probePaths are polled by the kubelet and never logged.
var probePaths = []string{"/health", "/alive", "/ready"}

// RequestLogger returns middleware that logs every request with method,
// path, status, response size and duration. Probe paths are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(probePaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &recordingWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r)

			fields := map[string]interface{}{
				"method":             r.Method,
				"path":               r.URL.Path,
				"status":             rw.Status(),
				"bytes":              rw.bytes,
				logger.FieldDuration: time.Since(start).Milliseconds(),
			}
			if id := r.Header.Get(RequestIDHeader); id != "" {
				fields["request_id"] = id
			}

			logByStatus(log, fields, rw.Status())
		})
	}
}

// logByStatus logs request fields at the level matching the status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
