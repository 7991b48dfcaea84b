package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

// Dispatcher fans a submission out to every configured channel.
type Dispatcher struct {
	channels []Channel
	logs     DispatchLogRepository
	logger   zerolog.Logger
	now      func() time.Time
}

// DispatcherConfig defines dependencies required by Dispatcher.
type DispatcherConfig struct {
	// Channels holds the enabled channels only, in reporting order.
	Channels []Channel
	// Logs is optional.
	Logs   DispatchLogRepository
	Logger zerolog.Logger
	Now    func() time.Time
}

// NewDispatcher constructs a dispatcher over the enabled channels.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	channels := make([]Channel, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if ch != nil {
			channels = append(channels, ch)
		}
	}
	return &Dispatcher{
		channels: channels,
		logs:     cfg.Logs,
		logger:   cfg.Logger.With().Str("component", "dispatcher").Logger(),
		now:      now,
	}
}

// Channels reports the names of the enabled channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

// Dispatch sends record through every channel concurrently and gathers one result
// per channel in configuration order. Channel failures are recorded in the results;
// the error return is reserved for failures of the dispatch itself.
func (d *Dispatcher) Dispatch(ctx context.Context, record domain.SubmissionRecord) ([]domain.DispatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dispatch aborted: %w", err)
	}

	logger := d.logger.With().Str("submission", record.ID).Logger()
	logger.Info().Str("role", record.Role.String()).Msg("dispatching submission")

	results := make([]domain.DispatchResult, len(d.channels))
	if len(d.channels) == 0 {
		logger.Info().Msg("no notification channels enabled; configure Telegram or Email for production")
		return results, nil
	}

	var g errgroup.Group
	for i, ch := range d.channels {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = d.send(ctx, ch, record)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		event := logger.Info()
		if !r.Success {
			event = logger.Warn().Str("error", r.Error)
		}
		event.Str("service", r.Service).Bool("success", r.Success).Msg("dispatch result")
	}

	d.record(ctx, record, results)
	return results, nil
}

func (d *Dispatcher) send(ctx context.Context, ch Channel, record domain.SubmissionRecord) (result domain.DispatchResult) {
	result.Service = ch.Name()
	defer func() {
		if p := recover(); p != nil {
			result.Success = false
			result.Error = fmt.Sprintf("%s channel panicked: %v", ch.Name(), p)
		}
	}()

	body, err := ch.Send(ctx, record)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Success = true
	result.Result = body
	return result
}

func (d *Dispatcher) record(ctx context.Context, record domain.SubmissionRecord, results []domain.DispatchResult) {
	if d.logs == nil {
		return
	}
	entry := domain.DispatchLogEntry{
		SubmissionID: record.ID,
		Role:         record.Role,
		Results:      append([]domain.DispatchResult(nil), results...),
		CreatedAt:    d.now().UTC(),
	}
	if err := d.logs.Append(context.WithoutCancel(ctx), entry); err != nil {
		d.logger.Warn().Err(err).Str("submission", record.ID).Msg("failed to append dispatch log")
	}
}
