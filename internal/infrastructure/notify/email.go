package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

const (
	DefaultEmailTo      = "admin@mamahr.com"
	DefaultEmailSubject = "Новая регистрация в списке ожидания Mama HR"
)

// EmailConfig points at an HTTP email relay.
type EmailConfig struct {
	ServiceURL string
	To         string
	Subject    string
}

// Email posts a fixed HTML summary of each submission to an email relay.
type Email struct {
	cfg      EmailConfig
	client   *http.Client
	location *time.Location
	policy   *bluemonday.Policy
	logger   zerolog.Logger
}

// NewEmail validates cfg and returns the channel.
func NewEmail(cfg EmailConfig, client *http.Client, loc *time.Location, logger zerolog.Logger) (*Email, error) {
	cfg.ServiceURL = strings.TrimSpace(cfg.ServiceURL)
	if cfg.ServiceURL == "" {
		return nil, errors.New("email channel requires a service url")
	}
	if strings.TrimSpace(cfg.To) == "" {
		cfg.To = DefaultEmailTo
	}
	if strings.TrimSpace(cfg.Subject) == "" {
		cfg.Subject = DefaultEmailSubject
	}
	return &Email{
		cfg:      cfg,
		client:   defaultClient(client),
		location: loc,
		policy:   bluemonday.StrictPolicy(),
		logger:   logger.With().Str("channel", "email").Logger(),
	}, nil
}

func (e *Email) Name() string {
	return "email"
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (e *Email) Send(ctx context.Context, record domain.SubmissionRecord) (json.RawMessage, error) {
	payload := emailRequest{
		To:      e.cfg.To,
		Subject: e.cfg.Subject,
		HTML:    e.BuildHTML(record),
	}
	return postJSON(ctx, e.client, e.logger, e.cfg.ServiceURL, "Email service error", payload)
}

// BuildHTML renders the email body. Visitor-supplied text is stripped of markup.
func (e *Email) BuildHTML(record domain.SubmissionRecord) string {
	var builder strings.Builder
	builder.WriteString("<h2>Новая регистрация!</h2>\n")
	builder.WriteString(fmt.Sprintf("<p><strong>Имя:</strong> %s</p>\n", e.policy.Sanitize(record.Name)))
	builder.WriteString(fmt.Sprintf("<p><strong>Email:</strong> %s</p>\n", e.policy.Sanitize(record.Email)))
	builder.WriteString(fmt.Sprintf("<p><strong>Роль:</strong> %s</p>\n", record.Role.DisplayName()))
	builder.WriteString(fmt.Sprintf("<p><strong>Время:</strong> %s</p>\n", domain.FormatDisplayTime(record.Timestamp, e.location)))
	return builder.String()
}
