package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`
	LogFormat  string `mapstructure:"LOG_FORMAT"`

	BackendBaseURL      string        `mapstructure:"BACKEND_BASE_URL"`
	BackendFallbackURLs []string      `mapstructure:"BACKEND_FALLBACK_URLS"`
	BackendTimeout      time.Duration `mapstructure:"BACKEND_TIMEOUT"`
	HealthCheckTimeout  time.Duration `mapstructure:"HEALTH_CHECK_TIMEOUT"`
	APIKeyTTL           time.Duration `mapstructure:"API_KEY_TTL"`
	ClientType          string        `mapstructure:"CLIENT_TYPE"`
	DefaultLanguage     string        `mapstructure:"DEFAULT_LANGUAGE"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"` // "memory", "redis" or "sqlite"
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`

	PostgresURL      string        `mapstructure:"POSTGRES_URL"`
	HistoryLimit     int           `mapstructure:"HISTORY_LIMIT"`
	HistoryRetention time.Duration `mapstructure:"HISTORY_RETENTION"`

	SelectionTimeout time.Duration `mapstructure:"SELECTION_TIMEOUT"`
	PollInterval     time.Duration `mapstructure:"POLL_INTERVAL"`

	BrowserEnabled  bool          `mapstructure:"BROWSER_ENABLED"`
	PageLoadTimeout time.Duration `mapstructure:"PAGE_LOAD_TIMEOUT"`
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine: production is configured purely through the environment.
	_ = v.ReadInConfig()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.BackendFallbackURLs = cleanList(cfg.BackendFallbackURLs)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BACKEND_BASE_URL", "https://api.scamshield.app")
	v.SetDefault("BACKEND_FALLBACK_URLS", []string{})
	v.SetDefault("BACKEND_TIMEOUT", 30*time.Second)
	v.SetDefault("HEALTH_CHECK_TIMEOUT", 5*time.Second)
	v.SetDefault("API_KEY_TTL", 30*24*time.Hour)
	v.SetDefault("CLIENT_TYPE", "browser_extension")
	v.SetDefault("DEFAULT_LANGUAGE", "en")

	v.SetDefault("STORAGE_DRIVER", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SQLITE_PATH", "scamshield.db")

	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("HISTORY_LIMIT", 100)
	v.SetDefault("HISTORY_RETENTION", 30*24*time.Hour)

	v.SetDefault("SELECTION_TIMEOUT", 60*time.Second)
	v.SetDefault("POLL_INTERVAL", time.Second)

	v.SetDefault("BROWSER_ENABLED", false)
	v.SetDefault("PAGE_LOAD_TIMEOUT", 30*time.Second)
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
