package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	OAuth2Google OAuth2GoogleConfig
	SMTP         SMTPConfig
	Storage      StorageConfig
	Directory    DirectoryConfig
	LLM          LLMConfig
	Gate         GateConfig
	Approval     ApprovalConfig
	RateLimit    RateLimitConfig
}

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	AutoMigrate bool
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret            string
	RefreshExpiration string
	AccessExpiration  string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
	// PublicURL is this API's external origin, used in links sent by email
	PublicURL      string
	AllowedOrigins []string
	Timezone       string
}

type OAuth2GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// SMTPConfig holds outbound mail settings. An empty Host disables sending.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	FromName      string
	HREmail       string
	ApproverEmail string
}

type StorageConfig struct {
	Type     string
	BasePath string
	BaseURL  string
}

// DirectoryConfig points at the HR attendance service.
// Source "http" calls BaseURL, "postgres" reads the local attendances table.
type DirectoryConfig struct {
	Source  string
	BaseURL string
	APIKey  string
}

// LLMConfig configures the chat-completions endpoint used to judge incident reports.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// GateConfig holds the attendance gate policy and per-call timeouts.
type GateConfig struct {
	Enabled          bool
	AbsenceThreshold int
	UploadLinkTTL    time.Duration
	DirectoryTimeout time.Duration
	EmailTimeout     time.Duration
	ValidatorTimeout time.Duration
}

type ApprovalConfig struct {
	GrantTTL      time.Duration
	ReviewTTL     time.Duration
	SweepInterval time.Duration
}

type RateLimitConfig struct {
	LoginPerMinute  int
	UploadPerMinute int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, reading configuration from environment")
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:        getEnv("DB_HOST", "localhost"),
		Port:        dbPort,
		User:        getEnv("DB_USER", "postgres"),
		Password:    getEnv("DB_PASSWORD", ""),
		Name:        getEnv("DB_NAME", "admin_portal"),
		SSLMode:     getEnv("DB_SSL_MODE", "disable"),
		AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		FrontendURL:    strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),
		PublicURL:      strings.TrimRight(getEnv("APP_PUBLIC_URL", "http://localhost:8080"), "/"),
		AllowedOrigins: getEnvSliceOr("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		Timezone:       getEnv("APP_TIMEZONE", "Local"),
	}

	// JWT configuration
	config.JWT = JWTConfig{
		Secret:            getEnv("JWT_SECRET_KEY", ""),
		RefreshExpiration: getEnv("JWT_REFRESH_EXPIRATION_TIME", "168h"),
		AccessExpiration:  getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	// OAuth2 Google Configuration
	config.OAuth2Google = OAuth2GoogleConfig{
		ClientID:     getEnv("CLIENT_ID", ""),
		ClientSecret: getEnv("CLIENT_SECRET", ""),
		RedirectURL:  getEnv("REDIRECT_URL", ""),
		Scopes:       getEnvSlice("SCOPES"),
	}

	smtpPort, err := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	config.SMTP = SMTPConfig{
		Host:          getEnv("SMTP_HOST", ""),
		Port:          smtpPort,
		Username:      getEnv("SMTP_USERNAME", ""),
		Password:      getEnv("SMTP_PASSWORD", ""),
		From:          getEnv("SMTP_FROM", "no-reply@localhost"),
		FromName:      getEnv("SMTP_FROM_NAME", "Admin Portal"),
		HREmail:       getEnv("HR_EMAIL", ""),
		ApproverEmail: getEnv("APPROVER_EMAIL", ""),
	}

	config.Storage = StorageConfig{
		Type:     getEnv("STORAGE_TYPE", "local"),
		BasePath: getEnv("STORAGE_BASE_PATH", "./uploads"),
		BaseURL:  getEnv("STORAGE_BASE_URL", "http://localhost:8080/uploads"),
	}

	config.Directory = DirectoryConfig{
		Source:  getEnv("DIRECTORY_SOURCE", "http"),
		BaseURL: strings.TrimRight(getEnv("DIRECTORY_BASE_URL", ""), "/"),
		APIKey:  getEnv("DIRECTORY_API_KEY", ""),
	}

	config.LLM = LLMConfig{
		BaseURL: strings.TrimRight(getEnv("LLM_BASE_URL", "https://api.openai.com/v1"), "/"),
		APIKey:  getEnv("LLM_API_KEY", ""),
		Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
	}

	threshold, err := strconv.Atoi(getEnv("GATE_ABSENCE_THRESHOLD", "3"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATE_ABSENCE_THRESHOLD: %w", err)
	}
	config.Gate = GateConfig{
		Enabled:          getEnvBool("GATE_ENABLED", true),
		AbsenceThreshold: threshold,
	}
	durations := []struct {
		key      string
		fallback string
		dst      *time.Duration
	}{
		{"GATE_UPLOAD_LINK_TTL", "24h", &config.Gate.UploadLinkTTL},
		{"GATE_DIRECTORY_TIMEOUT", "5s", &config.Gate.DirectoryTimeout},
		{"GATE_EMAIL_TIMEOUT", "10s", &config.Gate.EmailTimeout},
		{"GATE_VALIDATOR_TIMEOUT", "15s", &config.Gate.ValidatorTimeout},
		{"APPROVAL_GRANT_TTL", "24h", &config.Approval.GrantTTL},
		{"APPROVAL_REVIEW_TTL", "72h", &config.Approval.ReviewTTL},
		{"APPROVAL_SWEEP_INTERVAL", "15m", &config.Approval.SweepInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.fallback))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}

	loginRate, err := strconv.Atoi(getEnv("RATE_LIMIT_LOGIN_PER_MINUTE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LOGIN_PER_MINUTE: %w", err)
	}
	uploadRate, err := strconv.Atoi(getEnv("RATE_LIMIT_UPLOAD_PER_MINUTE", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_UPLOAD_PER_MINUTE: %w", err)
	}
	config.RateLimit = RateLimitConfig{
		LoginPerMinute:  loginRate,
		UploadPerMinute: uploadRate,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.Gate.AbsenceThreshold < 1 {
		return fmt.Errorf("GATE_ABSENCE_THRESHOLD must be at least 1")
	}
	switch c.Directory.Source {
	case "http":
		if c.Directory.BaseURL == "" {
			return fmt.Errorf("DIRECTORY_BASE_URL is required when DIRECTORY_SOURCE=http")
		}
	case "postgres":
	default:
		return fmt.Errorf("unsupported DIRECTORY_SOURCE: %s", c.Directory.Source)
	}
	if c.RateLimit.LoginPerMinute < 1 || c.RateLimit.UploadPerMinute < 1 {
		return fmt.Errorf("rate limits must be positive")
	}
	return nil
}

// GoogleEnabled reports whether Google sign-in is fully configured.
func (c *Config) GoogleEnabled() bool {
	return c.OAuth2Google.ClientID != "" && c.OAuth2Google.ClientSecret != "" &&
		c.OAuth2Google.RedirectURL != "" && len(c.OAuth2Google.Scopes) > 0
}

// Location resolves App.Timezone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		slog.Warn("Invalid APP_TIMEZONE, using local time", "timezone", c.App.Timezone, "error", err)
		return time.Local
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func getEnvSliceOr(env string, fallback []string) []string {
	if v := getEnvSlice(env); len(v) > 0 {
		return v
	}
	return fallback
}
