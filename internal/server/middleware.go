package server

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// Stats is the request accounting exposed on GET /stats.
type Stats struct {
	Requests     int64   `json:"request_count"`
	Errors       int64   `json:"error_count"`
	Rejected     int64   `json:"rejected_count"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// requestLog counts and logs every request passing through it.
type requestLog struct {
	logger *slog.Logger

	requests  atomic.Int64
	errors    atomic.Int64
	rejected  atomic.Int64
	latencyUs atomic.Int64
}

func newRequestLog(logger *slog.Logger) *requestLog {
	return &requestLog{logger: logger}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (m *requestLog) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		m.requests.Add(1)
		m.latencyUs.Add(duration.Microseconds())

		level := slog.LevelInfo
		switch {
		case rec.status >= 500:
			m.errors.Add(1)
			level = slog.LevelError
		case rec.status >= 400:
			m.rejected.Add(1)
			level = slog.LevelWarn
		}
		m.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", duration)
	})
}

func (m *requestLog) Stats() Stats {
	s := Stats{
		Requests: m.requests.Load(),
		Errors:   m.errors.Load(),
		Rejected: m.rejected.Load(),
	}
	if s.Requests > 0 {
		s.AvgLatencyMs = float64(m.latencyUs.Load()) / float64(s.Requests) / 1000
	}
	return s
}
