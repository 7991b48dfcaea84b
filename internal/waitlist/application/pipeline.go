package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

// State is a step of the submission pipeline.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateBotChecking
	StateDispatching
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateBotChecking:
		return "bot_checking"
	case StateDispatching:
		return "dispatching"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DispatchFailedMessage is shown when the dispatch itself fails.
const DispatchFailedMessage = "Произошла ошибка при отправке формы. Пожалуйста, попробуйте еще раз или напишите нам напрямую в Telegram."

// ErrSubmitInProgress is returned while an earlier submit is still dispatching.
var ErrSubmitInProgress = errors.New("submission already in progress")

// Outcome describes what a single Submit call did.
type Outcome struct {
	// State is the terminal state of this attempt: Idle after a rejected
	// submit, Success, or Error.
	State    State
	Alert    string
	Position int
	Results  []domain.DispatchResult
	Err      error
}

// Pipeline runs validation, bot filtering and dispatch for one form.
type Pipeline struct {
	notifier  Notifier
	positions PositionSource
	logger    zerolog.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State
}

// PipelineConfig defines dependencies required by Pipeline.
type PipelineConfig struct {
	Notifier  Notifier
	Positions PositionSource
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewPipeline constructs an idle pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	positions := cfg.Positions
	if positions == nil {
		positions = NewRandomPositions(nil)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		notifier:  cfg.Notifier,
		positions: positions,
		logger:    cfg.Logger.With().Str("component", "pipeline").Logger(),
		now:       now,
		state:     StateIdle,
	}
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// begin moves Idle (or a finished attempt) into Validating. A pipeline that is
// mid-flight refuses, which stands in for the disabled submit button.
func (p *Pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case StateIdle, StateSuccess, StateError:
		p.state = StateValidating
		return true
	default:
		return false
	}
}

// Submit runs one submit attempt against view.
func (p *Pipeline) Submit(ctx context.Context, input domain.FormInput, meta domain.RequestMeta, view View) (Outcome, error) {
	if !p.begin() {
		return Outcome{State: p.State(), Err: ErrSubmitInProgress}, ErrSubmitInProgress
	}

	if err := domain.ValidateForm(input); err != nil {
		return p.reject(view, err), nil
	}

	p.setState(StateBotChecking)
	record := domain.NewSubmission(input, meta, p.now())
	if domain.IsBot(record) {
		p.logger.Info().Str("submission", record.ID).Msg("submission rejected by bot filter")
		return p.reject(view, domain.BotError()), nil
	}

	p.setState(StateDispatching)
	position := p.positions.Next()
	view.SetLoading(true)

	results, err := p.notifier.Dispatch(ctx, record)
	if err != nil {
		p.logger.Error().Err(err).Str("submission", record.ID).Msg("notification dispatch failed")
		p.setState(StateError)
		view.Alert(DispatchFailedMessage)
		view.SetLoading(false)
		p.setState(StateIdle)
		return Outcome{State: StateError, Alert: DispatchFailedMessage, Err: err}, nil
	}

	p.setState(StateSuccess)
	view.ShowSuccess(position)
	return Outcome{State: StateSuccess, Position: position, Results: results}, nil
}

func (p *Pipeline) reject(view View, err error) Outcome {
	var formErr *domain.FormError
	message := err.Error()
	if errors.As(err, &formErr) {
		message = formErr.Message
	}
	view.Alert(message)
	p.setState(StateIdle)
	return Outcome{State: StateIdle, Alert: message, Err: err}
}
