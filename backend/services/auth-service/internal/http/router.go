package httpserver

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Routes aggregates handlers for HTTP server.
type Routes struct {
	Signup http.HandlerFunc
	Login  http.HandlerFunc
	Health http.HandlerFunc
}

// NewRouter wires all HTTP routes.
func NewRouter(routes Routes, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	if routes.Signup != nil {
		mux.Handle("POST /auth/signup", routes.Signup)
	}
	if routes.Login != nil {
		mux.Handle("POST /auth/login", routes.Login)
	}
	if routes.Health != nil {
		mux.Handle("GET /health", routes.Health)
	}
	return accessLog(mux, logger)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func accessLog(next http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
