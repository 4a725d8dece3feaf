// Package config has the configuration for the app
package config

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported environments
const (
	EnvDevelopment = "dev"
	EnvStaging     = "staging"
	EnvProduction  = "prod"
	EnvTest        = "test"
)

// Supported email providers
const (
	EmailProviderResend = "resend"
	EmailProviderSES    = "ses"
)

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               string
	LogLevel          string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes
	AllowedOrigins    []string
	TrustedProxies    []netip.Prefix // peers allowed to set X-Forwarded-For / X-Real-IP

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIReminderModel string
	OpenAIChatModel     string

	OpenFDABaseURL string
	OpenFDATimeout time.Duration
	OpenFDAAPIKey  string // optional, raises the daily quota

	ElevenLabsAPIKey  string
	ElevenLabsBaseURL string
	ElevenLabsVoiceID string

	EmailProvider string
	EmailFrom     string // sender address for either provider
	ResendAPIKey  string
	ResendBaseURL string
	AWSRegion     string

	ProbeInterval time.Duration
}

// LoadEnvFile reads a .env file from the working directory, falling back to
// the executable's directory. A missing file is not an error.
func LoadEnvFile() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	_ = godotenv.Load(filepath.Join(filepath.Dir(ex), ".env"))
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               strings.ToLower(getEnvWithDefault("ENV", EnvDevelopment)),
		LogLevel:          strings.ToLower(getEnvWithDefault("LOG_LEVEL", "info")),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 65536),      // 64KB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default
		AllowedOrigins:    getListEnvWithDefault("ALLOWED_ORIGINS", []string{"*"}),

		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:       getEnvWithDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIReminderModel: getEnvWithDefault("OPENAI_REMINDER_MODEL", "gpt-4o-mini"),
		OpenAIChatModel:     getEnvWithDefault("OPENAI_CHAT_MODEL", "gpt-4.1-mini"),

		OpenFDABaseURL: getEnvWithDefault("OPENFDA_BASE_URL", "https://api.fda.gov/drug/label.json"),
		OpenFDATimeout: time.Duration(getIntEnvWithDefault("OPENFDA_TIMEOUT_SECONDS", 10)) * time.Second,
		OpenFDAAPIKey:  os.Getenv("OPENFDA_API_KEY"),

		ElevenLabsAPIKey:  os.Getenv("ELEVENLABS_API_KEY"),
		ElevenLabsBaseURL: getEnvWithDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		ElevenLabsVoiceID: getEnvWithDefault("ELEVENLABS_VOICE_ID", "pNInz6obpgDQGcFmaJgB"),

		EmailProvider: strings.ToLower(getEnvWithDefault("EMAIL_PROVIDER", EmailProviderResend)),
		// RESEND_FROM_EMAIL is the older name, still read when EMAIL_FROM is unset
		EmailFrom:     getEnvWithDefault("EMAIL_FROM", getEnvWithDefault("RESEND_FROM_EMAIL", "Medication Companion <no-reply@example.com>")),
		ResendAPIKey:  os.Getenv("RESEND_API_KEY"),
		ResendBaseURL: getEnvWithDefault("RESEND_BASE_URL", "https://api.resend.com"),
		AWSRegion:     getEnvWithDefault("AWS_REGION", "us-east-1"),

		ProbeInterval: time.Duration(getIntEnvWithDefault("PROBE_INTERVAL_MINUTES", 5)) * time.Minute,
	}

	proxies, err := parseTrustedProxies(getListEnvWithDefault("TRUSTED_PROXIES", nil))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid TRUSTED_PROXIES: %w", err)
	}
	cfg.TrustedProxies = proxies

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SpeechEnabled reports whether the text-to-speech vendor is configured
func (c *Config) SpeechEnabled() bool {
	return c.ElevenLabsAPIKey != ""
}

// EmailEnabled reports whether the configured email provider has what it needs.
// SES takes its credentials from the AWS default chain.
func (c *Config) EmailEnabled() bool {
	if c.EmailProvider == EmailProviderSES {
		return true
	}
	return c.ResendAPIKey != ""
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is not set")
	}

	for name, raw := range map[string]string{
		"OPENAI_BASE_URL":     cfg.OpenAIBaseURL,
		"OPENFDA_BASE_URL":    cfg.OpenFDABaseURL,
		"ELEVENLABS_BASE_URL": cfg.ElevenLabsBaseURL,
		"RESEND_BASE_URL":     cfg.ResendBaseURL,
	} {
		if err := validateBaseURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if err := validateUpstreamTimeout(cfg.OpenFDATimeout); err != nil {
		return fmt.Errorf("invalid OPENFDA_TIMEOUT_SECONDS: %w", err)
	}

	if err := validateEmailProvider(cfg.EmailProvider); err != nil {
		return fmt.Errorf("invalid EMAIL_PROVIDER: %w", err)
	}

	if cfg.ProbeInterval < time.Minute || cfg.ProbeInterval > 24*time.Hour {
		return fmt.Errorf("invalid PROBE_INTERVAL_MINUTES: must be between 1 and 1440, got: %v", cfg.ProbeInterval)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// 0.0.0.0 is what container platforms expect
	if ip.IsUnspecified() || ip.IsLoopback() || ip.IsPrivate() {
		return nil
	}

	return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
}

// parseTrustedProxies accepts IP addresses and CIDR ranges
func parseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("TRUSTED_PROXIES entry must be an IP or CIDR range, got: %s", entry)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES entry must be an IP or CIDR range, got: %s", entry)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	if env == "" {
		return fmt.Errorf("ENV cannot be empty")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction, EnvTest}
	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return fmt.Errorf("LOG_LEVEL cannot be empty")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 {
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateBaseURL checks that a vendor base URL is absolute http(s)
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got: %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	return nil
}

// validateUpstreamTimeout keeps label lookups between 1 and 30 seconds
func validateUpstreamTimeout(timeout time.Duration) error {
	if timeout < time.Second || timeout > 30*time.Second {
		return fmt.Errorf("must be between 1 and 30 seconds, got: %v", timeout)
	}
	return nil
}

func validateEmailProvider(provider string) error {
	switch provider {
	case EmailProviderResend, EmailProviderSES:
		return nil
	}
	return fmt.Errorf("EMAIL_PROVIDER must be one of: [%s %s], got: %s", EmailProviderResend, EmailProviderSES, provider)
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getListEnvWithDefault splits a comma-separated variable, dropping blanks
func getListEnvWithDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return defaultValue
	}
	return items
}

// GetEnvVars returns a list of all expected environment variables
func GetEnvVars() []string {
	return []string{
		"PORT",
		"ADDRESS",
		"ENV",
		"LOG_LEVEL",
		"LOG_RETENTION_WEEKS",
		"MAX_LOG_FILE_SIZE",
		"MAX_REQUEST_BODY",
		"MAX_HEADER_SIZE",
		"ALLOWED_ORIGINS",
		"TRUSTED_PROXIES",
		"OPENAI_API_KEY",
		"OPENAI_BASE_URL",
		"OPENAI_REMINDER_MODEL",
		"OPENAI_CHAT_MODEL",
		"OPENFDA_BASE_URL",
		"OPENFDA_TIMEOUT_SECONDS",
		"OPENFDA_API_KEY",
		"ELEVENLABS_API_KEY",
		"ELEVENLABS_BASE_URL",
		"ELEVENLABS_VOICE_ID",
		"EMAIL_PROVIDER",
		"RESEND_API_KEY",
		"RESEND_BASE_URL",
		"EMAIL_FROM",
		"RESEND_FROM_EMAIL",
		"AWS_REGION",
		"PROBE_INTERVAL_MINUTES",
	}
}
