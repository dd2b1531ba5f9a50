package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	AI        AIConfig
	History   HistoryConfig
	Sheets    SheetsConfig
	Cache     CacheConfig
	Reporting ReportingConfig
	WhatsApp  WhatsAppConfig
	LogLevel  string
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// StoreConfig describes the shop printed on receipts.
type StoreConfig struct {
	Name            string
	DefaultCurrency string
}

// AIConfig holds settings for the generative AI providers.
type AIConfig struct {
	AnthropicKey     string
	AnthropicModel   string
	GeminiKey        string
	GeminiModel      string
	GeminiImageModel string
	Timeout          time.Duration
}

// HistoryConfig selects where paid transactions are kept. MongoDB wins when a URI is set.
type HistoryConfig struct {
	MongoURI    string
	MongoDBName string
	File        string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// CacheConfig holds the Redis narrative cache settings.
type CacheConfig struct {
	RedisAddr    string
	NarrativeTTL time.Duration
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// WhatsAppConfig contains credentials and options for the Meta WhatsApp Cloud API.
type WhatsAppConfig struct {
	AccessToken     string
	PhoneNumberID   string
	BaseURL         string
	APIVersion      string
	DigestRecipient string
}

// AnthropicEnabled reports whether Claude backed collaborators can be used.
func (c AIConfig) AnthropicEnabled() bool {
	return c.AnthropicKey != ""
}

// GeminiEnabled reports whether voice ordering and receipt images can be used.
func (c AIConfig) GeminiEnabled() bool {
	return c.GeminiKey != ""
}

// MongoEnabled reports whether history should live in MongoDB instead of the JSON file.
func (c HistoryConfig) MongoEnabled() bool {
	return c.MongoURI != ""
}

func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// DigestEnabled reports whether the scheduled sales digest has somewhere to go.
func (c WhatsAppConfig) DigestEnabled() bool {
	return c.Enabled() && c.DigestRecipient != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// missing .env files are fine when configuration comes from the environment
		_ = godotenv.Load()
	}

	aiTimeout, err := getDurationWithDefault("AI_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	narrativeTTL, err := getDurationWithDefault("NARRATIVE_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Store: StoreConfig{
			Name:            getenvWithDefault("STORE_NAME", "SwiftCheckout Store"),
			DefaultCurrency: strings.ToUpper(getenvWithDefault("DEFAULT_CURRENCY", models.DefaultCurrencyCode)),
		},
		AI: AIConfig{
			AnthropicKey:     os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel:   getenvWithDefault("ANTHROPIC_MODEL", "claude-3-haiku-20240307"),
			GeminiKey:        os.Getenv("GEMINI_API_KEY"),
			GeminiModel:      getenvWithDefault("GEMINI_MODEL", "gemini-2.0-flash"),
			GeminiImageModel: getenvWithDefault("GEMINI_IMAGE_MODEL", "gemini-2.0-flash-preview-image-generation"),
			Timeout:          aiTimeout,
		},
		History: HistoryConfig{
			MongoURI:    os.Getenv("MONGODB_URI"),
			MongoDBName: getenvWithDefault("MONGODB_DB_NAME", "swiftcheckout"),
			File:        getenvWithDefault("HISTORY_FILE", "data/history.json"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		Cache: CacheConfig{
			RedisAddr:    os.Getenv("REDIS_ADDR"),
			NarrativeTTL: narrativeTTL,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 21 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:     os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID:   os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:         getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:      getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			DigestRecipient: os.Getenv("WHATSAPP_DIGEST_RECIPIENT"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if _, ok := models.LookupCurrency(c.Store.DefaultCurrency); !ok {
		return fmt.Errorf("DEFAULT_CURRENCY %q is not supported", c.Store.DefaultCurrency)
	}

	if c.AI.Timeout <= 0 {
		return errors.New("AI_TIMEOUT must be positive")
	}

	if !c.History.MongoEnabled() && c.History.File == "" {
		return errors.New("HISTORY_FILE must not be empty when MONGODB_URI is unset")
	}
	if c.History.MongoEnabled() && c.History.MongoDBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	// half-configured sheets are a mistake, not an opt-out
	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}

	if c.Cache.Enabled() && c.Cache.NarrativeTTL <= 0 {
		return errors.New("NARRATIVE_CACHE_TTL must be positive")
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Reporting.Timezone, err)
	}

	if c.WhatsApp.Enabled() {
		if c.WhatsApp.BaseURL == "" {
			return errors.New("WHATSAPP_BASE_URL must not be empty")
		}
		if c.WhatsApp.APIVersion == "" {
			return errors.New("WHATSAPP_API_VERSION must not be empty")
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
