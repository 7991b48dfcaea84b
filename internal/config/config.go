package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds the Telegram bot channel settings.
type TelegramConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Token      string `yaml:"token"`
	ChatID     string `yaml:"chat_id"`
	APIBaseURL string `yaml:"api_base_url"`
}

// EmailConfig holds the email relay channel settings.
type EmailConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ServiceURL string `yaml:"service_url"`
	To         string `yaml:"to"`
	Subject    string `yaml:"subject"`
}

// ChannelsConfig groups the outbound notification channels. Both are off by default.
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Email    EmailConfig    `yaml:"email"`
}

// AdminConfig defines issuer/secret/audience for admin token verification.
type AdminConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	JWTIssuer   string `yaml:"jwt_issuer"`
	JWTAudience string `yaml:"jwt_audience"`
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                  string         `yaml:"addr"`
	AllowedOrigins        []string       `yaml:"allowed_origins"`
	Timezone              string         `yaml:"timezone"`
	NotifyTimeout         time.Duration  `yaml:"notify_timeout"`
	Channels              ChannelsConfig `yaml:"channels"`
	MongoURI              string         `yaml:"mongo_uri"`
	MongoDatabase         string         `yaml:"mongo_db"`
	MongoConnectTimeout   time.Duration  `yaml:"mongo_connect_timeout"`
	DispatchLogCollection string         `yaml:"dispatch_log_collection"`
	DispatchLogTTL        time.Duration  `yaml:"dispatch_log_ttl"`
	RateLimitPerMinute    float64        `yaml:"rate_limit_per_minute"`
	StaticDir             string         `yaml:"static_dir"`
	Admin                 AdminConfig    `yaml:"admin"`
	LogLevel              string         `yaml:"log_level"`
	LogFormat             string         `yaml:"log_format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Addr:                  ":8080",
		AllowedOrigins:        []string{"*"},
		Timezone:              "Europe/Moscow",
		MongoDatabase:         "mamahr",
		MongoConnectTimeout:   10 * time.Second,
		DispatchLogCollection: "dispatch_logs",
		DispatchLogTTL:        14 * 24 * time.Hour,
		RateLimitPerMinute:    30,
		Admin:                 AdminConfig{JWTIssuer: "mamahr-admin"},
		LogLevel:              "info",
		LogFormat:             "console",
	}
}

// Load reads .env (when present), the optional YAML file named by WAITLIST_CONFIG,
// then environment variables, and validates the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("WAITLIST_CONFIG")); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	c.Addr = envOrDefault("HTTP_ADDR", c.Addr)
	c.AllowedOrigins = parseList("API_ALLOWED_ORIGINS", c.AllowedOrigins)
	c.Timezone = envOrDefault("TIMEZONE", c.Timezone)
	c.MongoURI = envOrDefault("MONGO_URI", c.MongoURI)
	c.MongoDatabase = envOrDefault("MONGO_DB", c.MongoDatabase)
	c.DispatchLogCollection = envOrDefault("DISPATCH_LOG_COLLECTION", c.DispatchLogCollection)
	c.StaticDir = envOrDefault("STATIC_DIR", c.StaticDir)
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = envOrDefault("LOG_FORMAT", c.LogFormat)

	tg := &c.Channels.Telegram
	tg.Token = envOrDefault("TELEGRAM_BOT_TOKEN", tg.Token)
	tg.ChatID = envOrDefault("TELEGRAM_CHAT_ID", tg.ChatID)
	tg.APIBaseURL = envOrDefault("TELEGRAM_API_BASE_URL", tg.APIBaseURL)

	email := &c.Channels.Email
	email.ServiceURL = envOrDefault("EMAIL_SERVICE_URL", email.ServiceURL)
	email.To = envOrDefault("EMAIL_TO", email.To)
	email.Subject = envOrDefault("EMAIL_SUBJECT", email.Subject)

	c.Admin.JWTSecret = envOrDefault("ADMIN_JWT_SECRET", c.Admin.JWTSecret)
	c.Admin.JWTIssuer = envOrDefault("ADMIN_JWT_ISSUER", c.Admin.JWTIssuer)
	c.Admin.JWTAudience = envOrDefault("ADMIN_JWT_AUDIENCE", c.Admin.JWTAudience)

	var err error
	if tg.Enabled, err = parseBool("TELEGRAM_ENABLED", tg.Enabled); err != nil {
		return err
	}
	if email.Enabled, err = parseBool("EMAIL_ENABLED", email.Enabled); err != nil {
		return err
	}
	if c.NotifyTimeout, err = parseDuration("NOTIFY_TIMEOUT", c.NotifyTimeout); err != nil {
		return err
	}
	if c.MongoConnectTimeout, err = parseDuration("MONGO_CONNECT_TIMEOUT", c.MongoConnectTimeout); err != nil {
		return err
	}
	if c.DispatchLogTTL, err = parseDuration("DISPATCH_LOG_TTL", c.DispatchLogTTL); err != nil {
		return err
	}
	if raw := strings.TrimSpace(os.Getenv("RATE_LIMIT_PER_MINUTE")); raw != "" {
		parsed, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			return fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", perr)
		}
		c.RateLimitPerMinute = parsed
	}
	return nil
}

// Validate rejects channels that are switched on without credentials.
func (c Config) Validate() error {
	var errs []error
	if tg := c.Channels.Telegram; tg.Enabled && (strings.TrimSpace(tg.Token) == "" || strings.TrimSpace(tg.ChatID) == "") {
		errs = append(errs, errors.New("telegram is enabled but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is empty"))
	}
	if email := c.Channels.Email; email.Enabled && strings.TrimSpace(email.ServiceURL) == "" {
		errs = append(errs, errors.New("email is enabled but EMAIL_SERVICE_URL is empty"))
	}
	if c.NotifyTimeout < 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must not be negative"))
	}
	if c.RateLimitPerMinute < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone, falling back to a fixed MSK offset.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
