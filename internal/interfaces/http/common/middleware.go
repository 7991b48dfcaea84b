package common

import (
	"net/http"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request with the chi request ID.
func RequestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			event := logger.Info()
			if status >= http.StatusInternalServerError {
				event = logger.Warn()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}

// RateLimit allows maxPerMinute requests per client IP. A non-positive
// value disables limiting.
func RateLimit(maxPerMinute float64, logger zerolog.Logger) func(http.Handler) http.Handler {
	if maxPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lmt := tollbooth.NewLimiter(maxPerMinute/60.0, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Minute})
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpError := tollbooth.LimitByRequest(lmt, w, r); httpError != nil {
				logger.Warn().Str("path", r.URL.Path).Msg("rate limit exceeded")
				WriteError(logger, w, http.StatusTooManyRequests, "The API is at capacity, try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
