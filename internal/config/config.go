package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const devJWTSecret = "buildbook-development-secret"

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	CartTTL             time.Duration
	CheckoutSubmitDelay time.Duration
	CouponRecompute     bool
	CouponCapDiscount   bool
	AuthMockRole        string
	AccessTokenTTL      time.Duration
	AccessCookieName    string
	DemoUserPassword    string

	RateLimitCouponPerMin int
	RateLimitLoginPerMin  int
	BodyLimitBytes        int64
	IdempotencyTTL        time.Duration
	LockTTL               time.Duration
	LockRetryBackoff      time.Duration

	NotifyEmailEnabled bool
	NotifyEmailFrom    string
	NotifyEmailTopics  map[string]bool
	TaskQueue          string
	TaskMaxRetry       int
	WorkerConcurrency  int
	MailMaxAttempts    int
	MailRetryBase      time.Duration
	MailBreakerOpenFor time.Duration

	SecurityHeaders bool
	EnableHSTS      bool

	ObsLogFormat        string
	ObsLogLevel         string
	ObsMetricsNamespace string
	ObsMetricsBuckets   string
	ObsEnablePrometheus bool
	ObsEnableTracing    bool
	ObsTracingExporter  string
	ObsOTLPEndpoint     string
	ObsTracingSampling  float64
	ObsEnablePprof      bool
	PprofBasicAuthUser  string
	PprofBasicAuthPass  string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             strings.ToLower(valueOrDefault(k.String("APP_ENV"), "development")),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		JWTSecret:          strings.TrimSpace(k.String("JWT_SECRET")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		CartTTL:             parseDuration(k.String("CART_TTL"), "24h"),
		CheckoutSubmitDelay: parseDuration(k.String("CHECKOUT_SUBMIT_DELAY"), "2s"),
		CouponRecompute:     parseBool(k.String("COUPON_RECOMPUTE"), false),
		CouponCapDiscount:   parseBool(k.String("COUPON_CAP_DISCOUNT"), false),
		AuthMockRole:        strings.ToLower(strings.TrimSpace(k.String("AUTH_MOCK_ROLE"))),
		AccessTokenTTL:      parseDuration(k.String("ACCESS_TOKEN_TTL"), "1h"),
		AccessCookieName:    valueOrDefault(k.String("ACCESS_COOKIE_NAME"), "access_token"),
		DemoUserPassword:    k.String("DEMO_USER_PASSWORD"),

		RateLimitCouponPerMin: parseInt(k.String("RATE_LIMIT_COUPON_PER_MIN"), 10),
		RateLimitLoginPerMin:  parseInt(k.String("RATE_LIMIT_LOGIN_PER_MIN"), 5),
		BodyLimitBytes:        int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		IdempotencyTTL:        parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		LockTTL:               parseDuration(k.String("LOCK_TTL"), "10s"),
		LockRetryBackoff:      parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),

		NotifyEmailEnabled: parseBool(k.String("NOTIFY_EMAIL_ENABLED"), true),
		NotifyEmailFrom:    valueOrDefault(k.String("NOTIFY_EMAIL_FROM"), "BuildBook <no-reply@ceitcs.example>"),
		NotifyEmailTopics:  parseToggles(k.String("NOTIFY_EMAIL_TOPICS")),
		TaskQueue:          valueOrDefault(k.String("TASK_QUEUE"), "notifications"),
		TaskMaxRetry:       parseInt(k.String("TASK_MAX_RETRY"), 5),
		WorkerConcurrency:  parseInt(k.String("WORKER_CONCURRENCY"), 5),
		MailMaxAttempts:    parseInt(k.String("MAIL_MAX_ATTEMPTS"), 3),
		MailRetryBase:      parseDuration(k.String("MAIL_RETRY_BASE"), "200ms"),
		MailBreakerOpenFor: parseDuration(k.String("MAIL_BREAKER_OPEN_FOR"), "30s"),

		SecurityHeaders: parseBool(k.String("SECURITY_HEADERS_ENABLED"), true),
		EnableHSTS:      parseBool(k.String("SECURITY_HSTS_ENABLED"), false),

		ObsLogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		ObsLogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		ObsMetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "buildbook"),
		ObsMetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
		ObsEnablePrometheus: parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
		ObsEnableTracing:    parseBool(k.String("OBS_ENABLE_TRACING"), false),
		ObsTracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "otlp"),
		ObsOTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
		ObsTracingSampling:  parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		ObsEnablePprof:      parseBool(k.String("OBS_ENABLE_PPROF"), false),
		PprofBasicAuthUser:  k.String("SECURE_PPROF_BASIC_AUTH_USER"),
		PprofBasicAuthPass:  k.String("SECURE_PPROF_BASIC_AUTH_PASS"),
	}

	switch cfg.AuthMockRole {
	case "", "client", "admin":
	default:
		return nil, fmt.Errorf("AUTH_MOCK_ROLE must be client or admin, got %q", cfg.AuthMockRole)
	}
	if !cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required")
		}
		if cfg.AuthMockRole != "" {
			return nil, errors.New("AUTH_MOCK_ROLE is only allowed in development")
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	switch c.AppEnv {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseToggles reads "topic=bool" pairs, e.g. "order.created=true,user.registered=false".
// A bare topic means enabled.
func parseToggles(value string) map[string]bool {
	parts := splitAndTrim(value)
	if len(parts) == 0 {
		return nil
	}
	out := make(map[string]bool, len(parts))
	for _, part := range parts {
		topic, flag, found := strings.Cut(part, "=")
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		out[topic] = !found || parseBool(flag, true)
	}
	return out
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return parsed
	}
	return fallback
}

func parseFloat(value string, fallback float64) float64 {
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return parsed
	}
	return fallback
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
