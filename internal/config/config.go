package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Generate GenerateConfig `mapstructure:"generate"`
	Quota    QuotaConfig    `mapstructure:"quota"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite or postgres
	Path            string        `mapstructure:"path"`   // sqlite file path
	URL             string        `mapstructure:"url"`    // postgres DSN
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

// GeminiConfig holds the upstream AI endpoint settings. Two key pools are
// supported; a request picks one via its tier flag and there is no
// automatic fallback between them.
type GeminiConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	TextModel    string        `mapstructure:"text_model"`
	ImageModel   string        `mapstructure:"image_model"`
	APIKeyFree   string        `mapstructure:"api_key_free"`
	APIKeyPaid   string        `mapstructure:"api_key_paid"`
	TextTimeout  time.Duration `mapstructure:"text_timeout"`
	ImageTimeout time.Duration `mapstructure:"image_timeout"`
}

// KeyForTier returns the API key for a tier flag. Unknown tiers get the
// paid pool, matching the original default.
func (c *GeminiConfig) KeyForTier(tier string) string {
	if tier == "free" {
		return c.APIKeyFree
	}
	return c.APIKeyPaid
}

type GenerateConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	PlaceholderURL string        `mapstructure:"placeholder_url"`
}

type QuotaConfig struct {
	DailyLimit  int      `mapstructure:"daily_limit"`
	AdminEmails []string `mapstructure:"admin_emails"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	// Set config file path
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/chefcard.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.endpoint", "localhost:9000")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.bucket", "recipe-cards")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.text_model", "gemini-2.0-flash")
	v.SetDefault("gemini.image_model", "gemini-2.0-flash-exp-image-generation")
	v.SetDefault("gemini.text_timeout", 60*time.Second)
	v.SetDefault("gemini.image_timeout", 180*time.Second)
	v.SetDefault("generate.max_retries", 3)
	v.SetDefault("generate.retry_base_delay", 2*time.Second)
	v.SetDefault("generate.placeholder_url", "https://placehold.co/600x800/orange/white?text=Gen+Failed")
	v.SetDefault("quota.daily_limit", 2)
	v.SetDefault("quota.admin_emails", []string{})

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables explicitly for sensitive data
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	v.BindEnv("gemini.api_key_free", "GEMINI_API_KEY_FREE")
	v.BindEnv("gemini.api_key_paid", "GEMINI_API_KEY_PAID")
	v.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	v.BindEnv("gemini.text_model", "GEMINI_TEXT_MODEL")
	v.BindEnv("gemini.image_model", "GEMINI_IMAGE_MODEL")
	v.BindEnv("quota.daily_limit", "QUOTA_DAILY_LIMIT")
	v.BindEnv("quota.admin_emails", "QUOTA_ADMIN_EMAILS")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
