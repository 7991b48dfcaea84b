package admin

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/waitlist/application"
)

// Handler wires admin HTTP endpoints to the dispatch log.
type Handler struct {
	logger   zerolog.Logger
	logs     application.DispatchLogRepository
	channels []string
	location *time.Location
}

// Config provides dependencies for Handler.
type Config struct {
	Logger   zerolog.Logger
	Logs     application.DispatchLogRepository
	Channels []string
	Location *time.Location
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		logger:   cfg.Logger,
		logs:     cfg.Logs,
		channels: append([]string(nil), cfg.Channels...),
		location: loc,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dispatch-logs", h.dispatchLogListHandler())
	r.Get("/channels", h.channelListHandler())
}
