package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Runtime kinds. Federated sign-in is only interactive on RuntimeBrowser.
const (
	RuntimeBrowser = "browser"
	RuntimeNative  = "native"
)

// Backend names for the stores.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
)

// ClientConfig holds all configuration for the client.
// Tags use mapstructure for Viper unmarshalling.
type ClientConfig struct {
	Runtime string `mapstructure:"RUNTIME"`

	StoreBackend string `mapstructure:"STORE_BACKEND"`
	MongoURI     string `mapstructure:"MONGO_URI"`
	MongoDBName  string `mapstructure:"MONGO_DB_NAME"`

	SessionBackend    string `mapstructure:"SESSION_BACKEND"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`
	BoltPath          string `mapstructure:"BOLT_PATH"`
	SessionTTLHour    int    `mapstructure:"SESSION_TTL_HOUR"`
	SessionSigningKey string `mapstructure:"SESSION_SIGNING_KEY"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"` // used by the redirect flow
	OAuthCallbackPort  int    `mapstructure:"OAUTH_CALLBACK_PORT"` // 0 picks a free port

	ReroutePolicy string `mapstructure:"REROUTE_POLICY"`

	LogLevel        string `mapstructure:"LOG_LEVEL"`
	LogPretty       bool   `mapstructure:"LOG_PRETTY"`
	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`
	TracingEnabled  bool   `mapstructure:"TRACING_ENABLED"`
	MetricsEnabled  bool   `mapstructure:"METRICS_ENABLED"`
}

// LoadConfig reads configuration from file, environment variables, and defaults.
// cfgFile overrides the search path when non-empty.
func LoadConfig(cfgFile string) (*ClientConfig, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/shadow-interview/")
		v.AddConfigPath("$HOME/.shadow-interview")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine, defaults and env vars apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("RUNTIME", RuntimeBrowser)
	v.SetDefault("STORE_BACKEND", BackendBolt)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "shadow_interview")
	v.SetDefault("SESSION_BACKEND", BackendBolt)
	v.SetDefault("BOLT_PATH", defaultBoltPath())
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL_HOUR", 720) // 30 days
	v.SetDefault("SESSION_SIGNING_KEY", "a_very_secret_session_key_change_me") // CHANGE IN PRODUCTION
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "")
	v.SetDefault("OAUTH_CALLBACK_PORT", 0)
	v.SetDefault("REROUTE_POLICY", "keep")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "shadow-interview")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("METRICS_ENABLED", true)
}

// defaultBoltPath keeps the local database next to the user config.
func defaultBoltPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".shadow-interview", "client.db")
	}
	return filepath.Join(home, ".shadow-interview", "client.db")
}

// Validate rejects values the composition root cannot act on.
func (c *ClientConfig) Validate() error {
	switch c.Runtime {
	case RuntimeBrowser, RuntimeNative:
	default:
		return fmt.Errorf("invalid RUNTIME %q (want %q or %q)", c.Runtime, RuntimeBrowser, RuntimeNative)
	}
	switch c.StoreBackend {
	case BackendMemory, BackendMongo, BackendBolt:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.SessionBackend {
	case BackendMemory, BackendRedis, BackendBolt:
	default:
		return fmt.Errorf("invalid SESSION_BACKEND %q", c.SessionBackend)
	}
	if c.UsesBolt() && c.BoltPath == "" {
		return errors.New("BOLT_PATH must be set when a backend is bolt")
	}
	if c.SessionTTLHour <= 0 {
		return errors.New("SESSION_TTL_HOUR must be positive")
	}
	if c.SessionSigningKey == "" {
		return errors.New("SESSION_SIGNING_KEY must not be empty")
	}
	return nil
}

// UsesBolt reports whether any backend keeps its data in the BOLT_PATH file.
func (c *ClientConfig) UsesBolt() bool {
	return c.StoreBackend == BackendBolt || c.SessionBackend == BackendBolt
}

// AccountsOutliveProcess reports whether accounts and profiles are kept
// beyond the life of the process.
func (c *ClientConfig) AccountsOutliveProcess() bool {
	return c.StoreBackend != BackendMemory
}

// GoogleConfigured reports whether Google client credentials are present.
func (c *ClientConfig) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
