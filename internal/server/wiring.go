package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamahr/waitlist/internal/config"
	memdbstore "github.com/mamahr/waitlist/internal/infrastructure/memdb"
	mongodoc "github.com/mamahr/waitlist/internal/infrastructure/mongo"
	"github.com/mamahr/waitlist/internal/infrastructure/notify"
	"github.com/mamahr/waitlist/internal/waitlist/application"
)

// CleanupInterval is how often the in-memory dispatch log drops expired entries.
const CleanupInterval = 10 * time.Minute

// DispatchLogStore is a dispatch log sink that can report its health.
type DispatchLogStore interface {
	application.DispatchLogRepository
	Ping(ctx context.Context) error
}

// NewChannels builds the enabled notification channels from cfg.
// 無効なチャネルは生成しない。両方無効なら空のスライスを返す。
func NewChannels(cfg config.Config, logger zerolog.Logger) ([]application.Channel, error) {
	client := &http.Client{Timeout: cfg.NotifyTimeout}
	loc := cfg.Location()

	var channels []application.Channel
	if tg := cfg.Channels.Telegram; tg.Enabled {
		ch, err := notify.NewTelegram(notify.TelegramConfig{
			Token:      tg.Token,
			ChatID:     tg.ChatID,
			APIBaseURL: tg.APIBaseURL,
		}, client, loc, logger)
		if err != nil {
			return nil, fmt.Errorf("telegram channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if email := cfg.Channels.Email; email.Enabled {
		ch, err := notify.NewEmail(notify.EmailConfig{
			ServiceURL: email.ServiceURL,
			To:         email.To,
			Subject:    email.Subject,
		}, client, loc, logger)
		if err != nil {
			return nil, fmt.Errorf("email channel: %w", err)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// NewDispatchLogStore returns the Mongo sink when client is set, otherwise an
// in-memory sink whose expiry loop runs until ctx ends.
func NewDispatchLogStore(ctx context.Context, cfg config.Config, client *mongo.Client, logger zerolog.Logger) (DispatchLogStore, error) {
	if client != nil {
		repo := mongodoc.NewDispatchLogRepository(client, cfg.MongoDatabase, cfg.DispatchLogCollection, cfg.DispatchLogTTL)
		indexCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(indexCtx); err != nil {
			logger.Warn().Err(err).Msg("dispatch log のインデックス作成に失敗")
		}
		return repo, nil
	}

	repo, err := memdbstore.NewDispatchLogRepository(cfg.DispatchLogTTL, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("in-memory dispatch log: %w", err)
	}
	repo.StartCleanup(ctx, CleanupInterval)
	return repo, nil
}

// NewDispatcher wires channels and the log sink into a Dispatcher.
func NewDispatcher(cfg config.Config, logs application.DispatchLogRepository, logger zerolog.Logger) (*application.Dispatcher, error) {
	channels, err := NewChannels(cfg, logger)
	if err != nil {
		return nil, err
	}
	return application.NewDispatcher(application.DispatcherConfig{
		Channels: channels,
		Logs:     logs,
		Logger:   logger,
	}), nil
}
