package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config maps the whole application configuration.
type Config struct {
	Server struct {
		Port            int           `mapstructure:"port"`
		Domain          string        `mapstructure:"domain"` // host used to build canonical short URLs
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	Database struct {
		Name     string `mapstructure:"name"` // SQLite DSN or file name
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"database"`

	Log struct {
		Level  string `mapstructure:"level"`
		Pretty bool   `mapstructure:"pretty"`
	} `mapstructure:"log"`

	Auth struct {
		JWTSecret    string        `mapstructure:"jwt_secret"`
		TokenTTL     time.Duration `mapstructure:"token_ttl"`
		RefreshTTL   time.Duration `mapstructure:"refresh_token_ttl"`
		BcryptCost   int           `mapstructure:"bcrypt_cost"`
		CookieSecure bool          `mapstructure:"cookie_secure"`
	} `mapstructure:"auth"`

	Links struct {
		AliasMaxAttempts int  `mapstructure:"alias_max_attempts"`
		StrictAnalytics  bool `mapstructure:"strict_analytics"`
		RequireHTTPURL   bool `mapstructure:"require_http_url"`
	} `mapstructure:"links"`

	// Uploads holds user avatars on local disk.
	Uploads struct {
		AvatarDir     string `mapstructure:"avatar_dir"`
		AvatarURLPath string `mapstructure:"avatar_url_path"`
		MaxAvatarSize int64  `mapstructure:"max_avatar_size"`
	} `mapstructure:"uploads"`

	Geo struct {
		BaseURL  string        `mapstructure:"base_url"`
		Token    string        `mapstructure:"token"`
		Timeout  time.Duration `mapstructure:"timeout"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
		Retries  int           `mapstructure:"retries"`
	} `mapstructure:"geo"`

	QR struct {
		Size     int           `mapstructure:"size"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"qr"`

	// Analytics sizes the asynchronous click log.
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`
		WorkerCount int `mapstructure:"worker_count"`
	} `mapstructure:"analytics"`

	Metrics struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"metrics"`

	Monitor struct {
		Interval time.Duration `mapstructure:"interval"` // 0 disables the monitor
	} `mapstructure:"monitor"`
}

// LoadConfig reads configuration from path (or ./configs/config.yaml when
// path is empty), environment variables and defaults, in viper's usual order
// of precedence. A missing config file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// server.port can be overridden with SERVER_PORT
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./configs")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("config file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Debug().
		Int("port", cfg.Server.Port).
		Str("domain", cfg.Server.Domain).
		Str("db", cfg.Database.Name).
		Int("analytics_buffer", cfg.Analytics.BufferSize).
		Dur("monitor_interval", cfg.Monitor.Interval).
		Msg("configuration loaded")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.domain", "localhost:8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.name", "shortlinks.db")
	v.SetDefault("database.log_level", "silent")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 72*time.Hour)
	v.SetDefault("auth.refresh_token_ttl", 30*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("links.alias_max_attempts", 10)
	v.SetDefault("links.strict_analytics", false)
	v.SetDefault("links.require_http_url", false)
	v.SetDefault("uploads.avatar_dir", "uploads/avatar")
	v.SetDefault("uploads.avatar_url_path", "/avatars")
	v.SetDefault("uploads.max_avatar_size", 2<<20)
	v.SetDefault("geo.base_url", "https://ipinfo.io")
	v.SetDefault("geo.token", "")
	v.SetDefault("geo.timeout", 3*time.Second)
	v.SetDefault("geo.cache_ttl", time.Hour)
	v.SetDefault("geo.retries", 1)
	v.SetDefault("qr.size", 256)
	v.SetDefault("qr.cache_ttl", 10*time.Minute)
	v.SetDefault("analytics.buffer_size", 1000)
	v.SetDefault("analytics.worker_count", 5)
	v.SetDefault("monitor.interval", 5*time.Minute)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate checks settings the server cannot run without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set (AUTH_JWT_SECRET)")
	}
	if c.Server.Domain == "" {
		return errors.New("server.domain must be set")
	}
	return nil
}
