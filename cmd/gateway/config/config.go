package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the complete gateway configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Session SessionConfig `mapstructure:"session" yaml:"session"`
	Cache   CacheConfig   `mapstructure:"cache"   yaml:"cache"`
	API     APIConfig     `mapstructure:"api"     yaml:"api"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
	Log     LogConfig     `mapstructure:"log"     yaml:"log"`
}

// ServerConfig holds the protocol listener configuration
type ServerConfig struct {
	ListenAddr           string        `mapstructure:"listen_addr"           yaml:"listen_addr"           env:"SERVER_LISTEN_ADDR"`
	OnlineMode           bool          `mapstructure:"online_mode"           yaml:"online_mode"           env:"SERVER_ONLINE_MODE"`
	KeyPath              string        `mapstructure:"key_path"              yaml:"key_path"              env:"SERVER_KEY_PATH"`
	CompressionThreshold int           `mapstructure:"compression_threshold" yaml:"compression_threshold" env:"SERVER_COMPRESSION_THRESHOLD"`
	MOTD                 string        `mapstructure:"motd"                  yaml:"motd"                  env:"SERVER_MOTD"`
	MaxPlayers           int           `mapstructure:"max_players"           yaml:"max_players"           env:"SERVER_MAX_PLAYERS"`
	KeepAliveInterval    time.Duration `mapstructure:"keep_alive_interval"   yaml:"keep_alive_interval"   env:"SERVER_KEEP_ALIVE_INTERVAL"`
	IdleTimeout          time.Duration `mapstructure:"idle_timeout"          yaml:"idle_timeout"          env:"SERVER_IDLE_TIMEOUT"`
	VerifyTimeout        time.Duration `mapstructure:"verify_timeout"        yaml:"verify_timeout"        env:"SERVER_VERIFY_TIMEOUT"`
}

// SessionConfig holds the session collaborator endpoints
type SessionConfig struct {
	SessionURL  string        `mapstructure:"session_url"  yaml:"session_url"  env:"SESSION_SESSION_URL"`
	AccountURL  string        `mapstructure:"account_url"  yaml:"account_url"  env:"SESSION_ACCOUNT_URL"`
	ServicesURL string        `mapstructure:"services_url" yaml:"services_url" env:"SESSION_SERVICES_URL"`
	Timeout     time.Duration `mapstructure:"timeout"      yaml:"timeout"      env:"SESSION_TIMEOUT"`
}

// CacheConfig holds the sqlite profile cache configuration
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"     yaml:"enabled"     env:"CACHE_ENABLED"`
	Path       string        `mapstructure:"path"        yaml:"path"        env:"CACHE_PATH"`
	TTL        time.Duration `mapstructure:"ttl"         yaml:"ttl"         env:"CACHE_TTL"`
	SealSecret string        `mapstructure:"seal_secret" yaml:"seal_secret" env:"CACHE_SEAL_SECRET"`
}

// APIConfig holds the ops HTTP API configuration
type APIConfig struct {
	Enabled    bool   `mapstructure:"enabled"     yaml:"enabled"     env:"API_ENABLED"`
	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr" env:"API_LISTEN_ADDR"`
	EnableCORS bool   `mapstructure:"enable_cors" yaml:"enable_cors" env:"API_ENABLE_CORS"`
	RateLimit  int    `mapstructure:"rate_limit"  yaml:"rate_limit"  env:"API_RATE_LIMIT"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled" env:"METRICS_ENABLED"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"  env:"LOG_LEVEL"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty" env:"LOG_PRETTY"`
}

// Load loads configuration from file and environment. An empty path
// skips the file and uses defaults plus environment only.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", ":25565")
	v.SetDefault("server.online_mode", true)
	v.SetDefault("server.key_path", "keys/gateway.pem")
	v.SetDefault("server.compression_threshold", 256)
	v.SetDefault("server.motd", "A Minegate Server")
	v.SetDefault("server.max_players", 20)
	v.SetDefault("server.keep_alive_interval", "15s")
	v.SetDefault("server.idle_timeout", "30s")
	v.SetDefault("server.verify_timeout", "10s")

	v.SetDefault("session.session_url", "")
	v.SetDefault("session.account_url", "")
	v.SetDefault("session.services_url", "")
	v.SetDefault("session.timeout", "10s")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "data/profiles.db")
	v.SetDefault("cache.ttl", "1h")
	v.SetDefault("cache.seal_secret", "")

	v.SetDefault("api.enabled", true)
	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.enable_cors", true)
	v.SetDefault("api.rate_limit", 100)

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Server.CompressionThreshold < -1 {
		return fmt.Errorf("server.compression_threshold must be -1 (off) or a packet size, got %d",
			c.Server.CompressionThreshold)
	}
	if c.Server.MaxPlayers <= 0 {
		return fmt.Errorf("server.max_players must be positive, got %d", c.Server.MaxPlayers)
	}
	if c.Server.OnlineMode && strings.TrimSpace(c.Server.KeyPath) == "" {
		return fmt.Errorf("server.online_mode is true but server.key_path is empty")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) == "" {
		return fmt.Errorf("cache.enabled is true but cache.path is empty")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if !c.API.Enabled {
		return nil
	}
	if strings.TrimSpace(c.API.ListenAddr) == "" {
		return fmt.Errorf("api.enabled is true but api.listen_addr is empty")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got %d", c.API.RateLimit)
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:           ":25565",
			OnlineMode:           true,
			KeyPath:              "keys/gateway.pem",
			CompressionThreshold: 256,
			MOTD:                 "A Minegate Server",
			MaxPlayers:           20,
			KeepAliveInterval:    15 * time.Second,
			IdleTimeout:          30 * time.Second,
			VerifyTimeout:        10 * time.Second,
		},
		Session: SessionConfig{
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "data/profiles.db",
			TTL:     time.Hour,
		},
		API: APIConfig{
			Enabled:    true,
			ListenAddr: ":8080",
			EnableCORS: true,
			RateLimit:  100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}
