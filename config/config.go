package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// TOUCHLINE_STORAGE_BACKEND.
const EnvPrefix = "TOUCHLINE"

const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// Config holds the server settings.
type Config struct {
	Port string

	LogLevel       string
	LogDevelopment bool

	AWSRegion   string
	AWSEndpoint string

	StorageBackend     string
	MatchesTable       string
	ConversationsTable string
	MessagesTable      string

	ArchiveBucket string

	AMQPURL      string
	AMQPExchange string

	JWTSecret string

	ReconcileInterval time.Duration
	AllowedOrigins    []string
	MirrorMaxTries    uint
}

// New returns a viper instance with defaults and environment overrides
// applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("storage.backend", BackendMemory)
	v.SetDefault("tables.matches", "Matches")
	v.SetDefault("tables.conversations", "Conversations")
	v.SetDefault("tables.messages", "Messages")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "touchline.matches")
	v.SetDefault("auth.jwtSecret", "")
	v.SetDefault("reconcile.interval", "0s")
	v.SetDefault("cors.allowedOrigins", []string{"*"})
	v.SetDefault("mirror.maxTries", 3)
	return v
}

// Load reads the optional config file at path into v and returns the
// validated settings.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Port:               v.GetString("port"),
		LogLevel:           v.GetString("log.level"),
		LogDevelopment:     v.GetBool("log.development"),
		AWSRegion:          v.GetString("aws.region"),
		AWSEndpoint:        v.GetString("aws.endpoint"),
		StorageBackend:     strings.ToLower(v.GetString("storage.backend")),
		MatchesTable:       v.GetString("tables.matches"),
		ConversationsTable: v.GetString("tables.conversations"),
		MessagesTable:      v.GetString("tables.messages"),
		ArchiveBucket:      v.GetString("archive.bucket"),
		AMQPURL:            v.GetString("amqp.url"),
		AMQPExchange:       v.GetString("amqp.exchange"),
		JWTSecret:          v.GetString("auth.jwtSecret"),
		ReconcileInterval:  v.GetDuration("reconcile.interval"),
		AllowedOrigins:     v.GetStringSlice("cors.allowedOrigins"),
		MirrorMaxTries:     v.GetUint("mirror.maxTries"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendDynamoDB:
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
	if c.Port == "" {
		return fmt.Errorf("port must be set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret must be set")
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("reconcile.interval must not be negative")
	}
	if c.MirrorMaxTries == 0 {
		return fmt.Errorf("mirror.maxTries must be at least 1")
	}
	return nil
}
