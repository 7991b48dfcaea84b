package application

import (
	"context"
	"encoding/json"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

// Channel is one outbound notification target.
type Channel interface {
	// Name is the service label recorded in DispatchResult.
	Name() string
	// Send delivers the record once. A nil error means the provider answered 2xx.
	Send(ctx context.Context, record domain.SubmissionRecord) (json.RawMessage, error)
}

// DispatchLogRepository stores per-submission dispatch outcomes for operators.
type DispatchLogRepository interface {
	Append(ctx context.Context, entry domain.DispatchLogEntry) error
	Recent(ctx context.Context, limit int) ([]domain.DispatchLogEntry, error)
}

// View is the UI port the submission pipeline drives.
type View interface {
	// Alert shows a blocking message to the visitor.
	Alert(message string)
	// SetLoading toggles the submit control between its idle and busy states.
	SetLoading(loading bool)
	// ShowSuccess replaces the form with the success panel.
	ShowSuccess(position int)
}

// Notifier is what the pipeline needs from the dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, record domain.SubmissionRecord) ([]domain.DispatchResult, error)
}

// PositionSource produces the waitlist position shown after signup.
type PositionSource interface {
	Next() int
}
