package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const envPrefix = "EVENTS"

var errNoTicketKeys = errors.New("ticket.keys must contain at least one key")

type AppConfig struct {
	API      *APIConfig      `mapstructure:"api"`
	Gin      *GinConfig      `mapstructure:"gin"`
	Postgres *PostgresConfig `mapstructure:"postgres"`
	Ticket   *TicketConfig   `mapstructure:"ticket"`
	Events   *EventsConfig   `mapstructure:"events"`
}

type APIConfig struct {
	Environment        string   `mapstructure:"environment"`
	BaseURL            string   `mapstructure:"base_url"`
	Port               string   `mapstructure:"port"`
	AllowedCORSDomains []string `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string   `mapstructure:"jwt_signing_key"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

// TicketConfig holds the ticket signing keys, base64 encoded, by key id.
// Only ActiveKeyID signs; every listed key still verifies.
type TicketConfig struct {
	ActiveKeyID string            `mapstructure:"active_key_id"`
	Keys        map[string]string `mapstructure:"keys"`
}

func (c *TicketConfig) DecodedKeys() (map[string][]byte, error) {
	if len(c.Keys) == 0 {
		return nil, errNoTicketKeys
	}

	keys := make(map[string][]byte, len(c.Keys))
	for id, encoded := range c.Keys {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("ticket key %q -> %w", id, err)
		}
		keys[id] = raw
	}
	return keys, nil
}

type EventsConfig struct {
	DefaultTimeZone string `mapstructure:"default_time_zone"`
}

// Load reads the YAML file at path. Any key can be overridden from the
// environment, e.g. EVENTS_API_PORT for api.port.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("events.default_time_zone", "UTC")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf, err := decode(v)
	if err != nil {
		return nil, err
	}

	loaded.Store(conf)
	watch(v)

	return conf, nil
}

var loaded atomic.Pointer[AppConfig]

// Current returns the most recently loaded configuration.
func Current() *AppConfig {
	return loaded.Load()
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}
	if conf.API == nil || conf.Gin == nil || conf.Postgres == nil || conf.Ticket == nil || conf.Events == nil {
		return nil, errors.New("config is missing a required section")
	}
	return conf, nil
}

// watch reloads the file on change. Only settings read through Current pick
// up the new values; listeners and database pools keep their startup values.
func watch(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		conf, err := decode(v)
		if err != nil {
			zap.L().Warn("config reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		loaded.Store(conf)
		zap.L().Info("config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()
}
