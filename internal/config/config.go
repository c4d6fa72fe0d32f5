package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(NewConfig),
)

// Config holds all application configuration
type Config struct {
	// Server settings
	ServerPort    int    `env:"SERVER_PORT" envDefault:"8000"`
	ServerAddress string `env:"SERVER_ADDRESS" envDefault:"0.0.0.0"`
	Environment   string `env:"ENVIRONMENT" envDefault:"local"`
	Debug         bool   `env:"DEBUG" envDefault:"false"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`

	// Database settings
	Database DatabaseConfig

	// Embeddings configuration
	Embeddings EmbeddingsConfig

	// Ontology instance settings
	Ontology OntologyConfig

	// Run embedded migrations on startup
	AutoMigrate bool `env:"AUTO_MIGRATE" envDefault:"true"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"120s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	Port         int           `env:"POSTGRES_PORT" envDefault:"5432"`
	User         string        `env:"POSTGRES_USER" envDefault:"ontoforge"`
	Password     string        `env:"POSTGRES_PASSWORD" envDefault:""`
	Database     string        `env:"POSTGRES_DB" envDefault:"ontoforge"`
	SSLMode      string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	QueryDebug   bool          `env:"DB_QUERY_DEBUG" envDefault:"false"`
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
}

// EmbeddingsConfig holds embedding provider configuration
type EmbeddingsConfig struct {
	// Provider: "ollama", "googleai", or "" (disabled)
	Provider string `env:"EMBEDDING_PROVIDER" envDefault:""`

	// Embedding model name
	Model string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`

	// Embedding dimension (768 for nomic-embed-text)
	Dimension int `env:"EMBEDDING_DIMENSION" envDefault:"768"`

	// Base URL for the Ollama provider
	BaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`

	// Google API Key for the googleai provider
	GoogleAPIKey string `env:"GOOGLE_API_KEY" envDefault:""`

	// Request timeout per embed call
	Timeout time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"30s"`
}

// IsEnabled returns true if an embedding provider is configured
func (e *EmbeddingsConfig) IsEnabled() bool {
	switch e.Provider {
	case "ollama":
		return e.BaseURL != ""
	case "googleai":
		return e.GoogleAPIKey != ""
	default:
		return false
	}
}

// OntologyConfig identifies the ontology instance this server works against
type OntologyConfig struct {
	// Key of the ontology row seeded by migrations
	Key string `env:"ONTOLOGY_KEY" envDefault:"default"`
}

// NewConfig loads configuration from environment variables
func NewConfig(log *slog.Logger) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	log.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.ServerPort),
		slog.String("db_host", cfg.Database.Host),
		slog.String("embedding_provider", cfg.Embeddings.Provider),
	)

	return cfg, nil
}
