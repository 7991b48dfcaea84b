package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

// DefaultTelegramAPIBaseURL is the public Bot API host.
const DefaultTelegramAPIBaseURL = "https://api.telegram.org"

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	Token      string
	ChatID     string
	APIBaseURL string
}

// Telegram posts submissions to a chat through the Bot API sendMessage method.
type Telegram struct {
	cfg      TelegramConfig
	client   *http.Client
	location *time.Location
	logger   zerolog.Logger
}

// NewTelegram validates cfg and returns the channel.
func NewTelegram(cfg TelegramConfig, client *http.Client, loc *time.Location, logger zerolog.Logger) (*Telegram, error) {
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.ChatID = strings.TrimSpace(cfg.ChatID)
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, errors.New("telegram channel requires token and chat id")
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultTelegramAPIBaseURL
	}
	return &Telegram{
		cfg:      cfg,
		client:   defaultClient(client),
		location: loc,
		logger:   logger.With().Str("channel", "telegram").Logger(),
	}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (t *Telegram) Send(ctx context.Context, record domain.SubmissionRecord) (json.RawMessage, error) {
	payload := sendMessageRequest{
		ChatID:                t.cfg.ChatID,
		Text:                  BuildTelegramMessage(record, t.location),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	}
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.cfg.APIBaseURL, t.cfg.Token)
	return postJSON(ctx, t.client, t.logger, endpoint, "Telegram API error", payload)
}

// BuildTelegramMessage renders the admin chat message for record.
func BuildTelegramMessage(record domain.SubmissionRecord, loc *time.Location) string {
	var builder strings.Builder
	builder.WriteString("🔔 *Новая регистрация в списке ожидания Mama HR!*\n\n")
	builder.WriteString(fmt.Sprintf("👤 *Имя:* %s\n", domain.EscapeMarkdown(record.Name)))
	builder.WriteString(fmt.Sprintf("📧 *Email:* %s\n", domain.EscapeMarkdown(record.Email)))
	builder.WriteString(fmt.Sprintf("🎭 *Роль:* %s\n", record.Role.DisplayName()))
	builder.WriteString(fmt.Sprintf("📝 *Ожидания:* %s\n", domain.EscapeMarkdown(record.Description)))
	builder.WriteString(fmt.Sprintf("⏰ *Время:* %s\n\n", domain.FormatDisplayTime(record.Timestamp, loc)))
	builder.WriteString("#MamaHR #Waitlist")
	return builder.String()
}
