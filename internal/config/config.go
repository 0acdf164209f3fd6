// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the bot settings
// (token, mode, roles), the license API client, storage, update processing,
// the HTTP surface and observability.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LicenseChain/LicenseChain-TG-Bot/internal/permissions"
)

// Bot modes.
const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// BotConfig holds the Telegram side.
type BotConfig struct {
	Token         string // TELEGRAM_BOT_TOKEN
	Mode          string // poll|webhook
	WebhookURL    string // public base URL Telegram posts to
	WebhookPath   string
	WebhookSecret string
	OwnerID       int64
	AdminIDs      []int64
	DefaultLocale string
	PollTimeout   int // seconds
}

// LicenseAPIConfig configures the LicenseChain client.
type LicenseAPIConfig struct {
	BaseURL    string
	APIKey     string
	AppName    string
	AppVersion string
	Timeout    time.Duration
}

// RedisConfig enables shared update de-duplication when URL is set.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	Bot        BotConfig
	LicenseAPI LicenseAPIConfig
	Redis      RedisConfig

	// Storage
	DBPath string // SQLite path

	// Update processing
	Workers          int
	QueueSize        int
	UpdateTimeout    time.Duration // per-update processing bound
	RateRPS          float64       // per-user tokens per second; 0 disables
	RateBurst        int
	UpdateDedupeTTL  time.Duration // 0 disables de-duplication
	SchedulerEnabled bool
	ShutdownTimeout  time.Duration

	// Web protection
	HTTPRateRPS   float64 // per-IP tokens per second on read endpoints; 0 disables
	HTTPRateBurst int
	CORS          CORSConfig
	Security      SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "3005"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		Bot: BotConfig{
			Token:         strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN", "")),
			Mode:          strings.ToLower(getenv("BOT_MODE", ModePoll)),
			WebhookURL:    strings.TrimRight(getenv("WEBHOOK_URL", ""), "/"),
			WebhookPath:   normalizePath(getenv("WEBHOOK_PATH", "/webhook")),
			WebhookSecret: getenv("WEBHOOK_SECRET", ""),
			DefaultLocale: strings.ToLower(getenv("DEFAULT_LOCALE", "en")),
			PollTimeout:   getint("POLL_TIMEOUT", 60),
		},

		LicenseAPI: LicenseAPIConfig{
			BaseURL:    getenv("LICENSECHAIN_API_URL", "https://api.licensechain.app"),
			APIKey:     getenv("LICENSECHAIN_API_KEY", ""),
			AppName:    getenv("LICENSECHAIN_APP_NAME", ""),
			AppVersion: getenv("LICENSECHAIN_APP_VERSION", "1.0.0"),
			Timeout:    getdur("LICENSE_API_TIMEOUT", 30*time.Second),
		},

		Redis: RedisConfig{
			URL:      getenv("REDIS_URL", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},

		DBPath: getenv("DB_PATH", "data/bot.db"),

		Workers:          getint("WORKERS", 8),
		QueueSize:        getint("QUEUE_SIZE", 100),
		UpdateTimeout:    getdur("UPDATE_TIMEOUT", 60*time.Second),
		RateRPS:          getfloat("RATE_RPS", 1.0),
		RateBurst:        getint("RATE_BURST", 5),
		UpdateDedupeTTL:  getdur("UPDATE_DEDUPE_TTL", 24*time.Hour),
		SchedulerEnabled: getbool("SCHEDULER_ENABLED", true),
		ShutdownTimeout:  getdur("SHUTDOWN_TIMEOUT", 15*time.Second),

		// Web protection
		HTTPRateRPS:   getfloat("HTTP_RATE_RPS", 5),
		HTTPRateBurst: getint("HTTP_RATE_BURST", 10),
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "licensechain-telegram-bot"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- roles ---
	if raw := strings.TrimSpace(getenv("BOT_OWNER_ID", "")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return cfg, fmt.Errorf("BOT_OWNER_ID must be a positive integer, got %q", raw)
		}
		cfg.Bot.OwnerID = id
	}
	admins, err := permissions.ParseIDs(splitCSV(getenv("ADMIN_USERS", "")))
	if err != nil {
		return cfg, fmt.Errorf("ADMIN_USERS: %w", err)
	}
	cfg.Bot.AdminIDs = admins

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if cfg.Bot.Token == "" {
		return cfg, errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	switch cfg.Bot.Mode {
	case ModePoll:
	case ModeWebhook:
		if cfg.Bot.WebhookURL == "" {
			return cfg, errors.New("WEBHOOK_URL is required when BOT_MODE=webhook")
		}
	default:
		return cfg, errors.New("BOT_MODE must be one of: poll, webhook")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.LicenseAPI.BaseURL) == "" {
		return cfg, errors.New("LICENSECHAIN_API_URL must not be empty")
	}
	if cfg.LicenseAPI.Timeout <= 0 {
		return cfg, errors.New("LICENSE_API_TIMEOUT must be > 0")
	}
	if cfg.Workers < 1 || cfg.QueueSize < 1 {
		return cfg, errors.New("WORKERS and QUEUE_SIZE must be >= 1")
	}
	if cfg.UpdateTimeout <= 0 || cfg.ShutdownTimeout <= 0 {
		return cfg, errors.New("UPDATE_TIMEOUT and SHUTDOWN_TIMEOUT must be > 0")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.HTTPRateRPS < 0 || cfg.HTTPRateBurst < 1 {
		return cfg, errors.New("HTTP_RATE_RPS must be >= 0 and HTTP_RATE_BURST >= 1")
	}
	if cfg.UpdateDedupeTTL < 0 {
		return cfg, errors.New("UPDATE_DEDUPE_TTL must be >= 0")
	}
	if cfg.Redis.DB < 0 {
		return cfg, errors.New("REDIS_DB must be >= 0")
	}
	if cfg.Bot.PollTimeout < 0 {
		return cfg, errors.New("POLL_TIMEOUT must be >= 0")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// WebhookEndpoint is the full URL registered with Telegram.
func (c Config) WebhookEndpoint() string {
	return c.Bot.WebhookURL + c.Bot.WebhookPath
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizePath ensures leading '/' and strips trailing '/' (except root).
func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
