package public

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/waitlist/application"
)

// Handler wires public HTTP endpoints to the submission pipeline.
type Handler struct {
	logger    zerolog.Logger
	notifier  application.Notifier
	positions application.PositionSource
	now       func() time.Time
	rateLimit func(http.Handler) http.Handler
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger    zerolog.Logger
	Notifier  application.Notifier
	Positions application.PositionSource
	Now       func() time.Time
	// RateLimit wraps the signup endpoint; nil means unlimited.
	RateLimit func(http.Handler) http.Handler
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	positions := cfg.Positions
	if positions == nil {
		positions = application.NewRandomPositions(nil)
	}
	rateLimit := cfg.RateLimit
	if rateLimit == nil {
		rateLimit = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		logger:    cfg.Logger,
		notifier:  cfg.Notifier,
		positions: positions,
		now:       cfg.Now,
		rateLimit: rateLimit,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.With(h.rateLimit).Post("/waitlist", h.waitlistSubmitHandler())
}

// pipeline returns a fresh pipeline per request: every visitor has their own form.
func (h *Handler) pipeline() *application.Pipeline {
	return application.NewPipeline(application.PipelineConfig{
		Notifier:  h.notifier,
		Positions: h.positions,
		Logger:    h.logger,
		Now:       h.now,
	})
}
