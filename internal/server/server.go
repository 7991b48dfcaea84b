package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamahr/waitlist/internal/config"
	adminhttp "github.com/mamahr/waitlist/internal/interfaces/http/admin"
	commonhttp "github.com/mamahr/waitlist/internal/interfaces/http/common"
	publichttp "github.com/mamahr/waitlist/internal/interfaces/http/public"
	"github.com/mamahr/waitlist/internal/waitlist/application"
	"github.com/mamahr/waitlist/web"
)

// Server は HTTP サーバーのライフサイクルを管理し、Public/Admin の各ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         zerolog.Logger
	client         *mongo.Client
	logs           DispatchLogStore
	dispatcher     *application.Dispatcher
	positions      application.PositionSource
	location       *time.Location
	admin          config.AdminConfig
	addr           string
	allowedOrigins []string
	rateLimit      float64
	staticDir      string
	now            func() time.Time
}

// Deps are the collaborators New does not build itself.
type Deps struct {
	// Client is optional; without it dispatch logs stay in memory.
	Client    *mongo.Client
	Logs      DispatchLogStore
	Channels  []application.Channel
	Positions application.PositionSource
	Now       func() time.Time
}

type authenticatedUser = commonhttp.AuthenticatedUser

// New は Config と依存を受け取り、Dispatcher とハンドラを組み立てた Server を返す。
// deps.Channels が nil の場合は cfg から生成する。
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, deps Deps) (*Server, error) {
	logs := deps.Logs
	if logs == nil {
		var err error
		logs, err = NewDispatchLogStore(ctx, cfg, deps.Client, logger)
		if err != nil {
			return nil, err
		}
	}

	channels := deps.Channels
	if channels == nil {
		var err error
		channels, err = NewChannels(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}
	positions := deps.Positions
	if positions == nil {
		positions = application.NewRandomPositions(nil)
	}

	return &Server{
		logger: logger,
		client: deps.Client,
		logs:   logs,
		dispatcher: application.NewDispatcher(application.DispatcherConfig{
			Channels: channels,
			Logs:     logs,
			Logger:   logger,
			Now:      now,
		}),
		positions:      positions,
		location:       cfg.Location(),
		admin:          cfg.Admin,
		addr:           cfg.Addr,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
		rateLimit:      cfg.RateLimitPerMinute,
		staticDir:      strings.TrimSpace(cfg.StaticDir),
		now:            now,
	}, nil
}

// Router builds the chi router with all middleware and routes.
func (s *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(commonhttp.RequestLogger(s.logger))
	router.Use(middleware.Recoverer)
	router.Use(withCORS(s.allowedOrigins))

	router.Get("/healthz", s.healthHandler())

	publicHandler := publichttp.NewHandler(publichttp.Config{
		Logger:    s.logger,
		Notifier:  s.dispatcher,
		Positions: s.positions,
		Now:       s.now,
		RateLimit: commonhttp.RateLimit(s.rateLimit, s.logger),
	})
	router.Route("/api", publicHandler.Register)

	adminHandler := adminhttp.NewHandler(adminhttp.Config{
		Logger:   s.logger,
		Logs:     s.logs,
		Channels: s.dispatcher.Channels(),
		Location: s.location,
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware)
		adminHandler.Register(r)
	})

	router.Handle("/*", s.staticHandler())
	return router
}

// Run はHTTPサーバーを起動し、ctx の終了か OS シグナルで graceful shutdown する。
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Strs("channels", s.dispatcher.Channels()).Msg("HTTP サーバー起動")
		errChan <- httpServer.ListenAndServe()
	}()

	return waitForShutdown(ctx, httpServer, errChan, s)
}

func (s *Server) staticHandler() http.Handler {
	if s.staticDir != "" {
		return http.FileServer(http.Dir(s.staticDir))
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(web.IndexHTML)
	})
}

// withCORS は許可されたオリジン情報をもとに CORS ヘッダーを付与するミドルウェアを返す。
func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{})
	allowAll := false
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAll = true
			continue
		}
		allowed[origin] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin == "" || (!allowAll && len(allowed) > 0 && !originAllowed(origin, allowed)) {
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
			w.Header().Set("Access-Control-Max-Age", "300")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// originAllowed は指定された Origin が許可リストに含まれるか判定する。
func originAllowed(origin string, allowed map[string]struct{}) bool {
	_, ok := allowed[origin]
	return ok
}

// healthHandler は dispatch log の保存先への疎通確認を行う。
func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.logs.Ping(ctx); err != nil {
			commonhttp.WriteJSON(s.logger, w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}

		commonhttp.WriteJSON(s.logger, w, http.StatusOK, map[string]any{
			"status":   "ok",
			"time":     s.now().In(s.location).Format(time.RFC3339),
			"channels": s.dispatcher.Channels(),
		})
	}
}

// authMiddleware は Authorization ヘッダーから JWT を検証し、認証済みユーザーをコンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "Authorization ヘッダーがありません")
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "Bearer トークンを指定してください")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
		if tokenString == "" {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, "アクセストークンが空です")
			return
		}

		claims, err := s.parseAuthToken(tokenString)
		if err != nil {
			commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, err.Error())
			return
		}

		user := authenticatedUser{
			ID:       claims.Subject,
			Name:     claims.Name,
			Username: claims.PreferredUsername,
		}
		ctx := commonhttp.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseAuthToken は HS256 署名と Issuer/Audience の整合性を確認する。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if strings.TrimSpace(s.admin.JWTSecret) == "" {
		return nil, errors.New("認証設定が構成されていません")
	}

	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return []byte(s.admin.JWTSecret), nil
	}, jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, errors.New("アクセストークンが無効です")
	}
	if s.admin.JWTIssuer != "" && claims.Issuer != s.admin.JWTIssuer {
		return nil, errors.New("アクセストークンが無効です")
	}
	if claims.Subject == "" {
		return nil, errors.New("アクセストークンが無効です")
	}
	if s.admin.JWTAudience != "" && !contains(claims.Audience, s.admin.JWTAudience) {
		return nil, errors.New("アクセストークンが無効です")
	}
	return claims, nil
}

// contains は Audience 等の検証で利用する単純な包含チェック。
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

type authClaims struct {
	jwt.RegisteredClaims
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// shutdown は MongoDB クライアントをタイムアウト付きで切断する。
func (s *Server) shutdown(ctx context.Context) {
	if s.client == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("MongoDB 切断時にエラー")
	}
}

// waitForShutdown は ListenAndServe の終了・ctx の終了・OS シグナルを監視し、graceful shutdown を実現する。
func waitForShutdown(ctx context.Context, httpServer *http.Server, errChan <-chan error, srv *Server) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("サーバーが異常終了: %w", err)
		}
	case sig := <-sigChan:
		srv.logger.Info().Str("signal", sig.String()).Msg("シグナルを受信。サーバー停止処理を開始します。")
		runErr = stopHTTP(httpServer, srv)
	case <-ctx.Done():
		srv.logger.Info().Msg("コンテキスト終了。サーバー停止処理を開始します。")
		runErr = stopHTTP(httpServer, srv)
	}

	srv.shutdown(context.Background())
	return runErr
}

func stopHTTP(httpServer *http.Server, srv *Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		srv.logger.Error().Err(err).Msg("サーバー停止時にエラー")
		return err
	}
	return nil
}
