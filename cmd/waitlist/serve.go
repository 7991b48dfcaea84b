package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamahr/waitlist/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Runs the landing page, POST /api/waitlist and the admin dispatch log.

Dispatch logs go to MongoDB when MONGO_URI is set and stay in memory otherwise.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides HTTP_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client *mongo.Client
	if uri := strings.TrimSpace(cfg.MongoURI); uri != "" {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoConnectTimeout)
		clientOptions := options.Client().ApplyURI(uri).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
		client, err = mongo.Connect(connectCtx, clientOptions)
		cancel()
		if err != nil {
			return fmt.Errorf("MongoDB 接続に失敗しました: %w", err)
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("dispatch log を MongoDB に保存します")
	} else {
		logger.Info().Dur("ttl", cfg.DispatchLogTTL).Msg("MONGO_URI 未設定のため dispatch log はメモリに保持します")
	}

	app, err := server.New(ctx, cfg, logger, server.Deps{Client: client})
	if err != nil {
		return err
	}
	return app.Run(ctx)
}
