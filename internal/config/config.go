package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix           = "FLOWW"
	defaultBackendURL   = "http://localhost:8080"
	defaultDatabasePath = "floww-wall.db"
	defaultLogLevel     = "info"
	defaultPageSize     = 20
	defaultHTTPTimeout  = 15 * time.Second
)

// AppConfig captures runtime configuration for the wall client.
type AppConfig struct {
	BackendURL   string
	SessionToken string
	DatabasePath string
	LogLevel     string
	PageSize     int
	HTTPTimeout  time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("backend.url", defaultBackendURL)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("feed.page_size", defaultPageSize)
	configViper.SetDefault("http.timeout", defaultHTTPTimeout.String())
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		BackendURL:   configViper.GetString("backend.url"),
		SessionToken: configViper.GetString("session.token"),
		DatabasePath: configViper.GetString("database.path"),
		LogLevel:     configViper.GetString("log.level"),
		PageSize:     configViper.GetInt("feed.page_size"),
		HTTPTimeout:  configViper.GetDuration("http.timeout"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("backend.url is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("feed.page_size must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	return nil
}
