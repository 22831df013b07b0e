// Package config loads application configuration from viper defaults and
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Server configuration
	Server ServerConfig `mapstructure:"server"`

	// Graph database configuration
	Graph GraphConfig `mapstructure:"graph"`

	// Vector store configuration
	Vector VectorConfig `mapstructure:"vector"`

	// Embedding configuration
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Extraction oracle configuration
	Extraction ExtractionConfig `mapstructure:"extraction"`

	// Router configuration
	Router RouterConfig `mapstructure:"router"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// CircuitBreaker configuration
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// GraphConfig holds graph database configuration
type GraphConfig struct {
	Driver   string `mapstructure:"driver"` // neo4j, memory
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`

	// DefaultConfidence is assigned to relationships whose confidence
	// the extraction oracle does not supply.
	DefaultConfidence float64 `mapstructure:"default_confidence"`
}

// VectorConfig holds vector store configuration
type VectorConfig struct {
	Path       string `mapstructure:"path"`
	Collection string `mapstructure:"collection"`
}

// EmbeddingConfig holds embedding configuration
type EmbeddingConfig struct {
	Provider      string `mapstructure:"provider"` // openai, hash
	Model         string `mapstructure:"model"`
	APIKey        string `mapstructure:"api_key"`
	FallbackModel string `mapstructure:"fallback_model"`
}

// ExtractionConfig holds extraction oracle configuration
type ExtractionConfig struct {
	Model       string `mapstructure:"model"`
	APIKey      string `mapstructure:"api_key"`
	Concurrency int    `mapstructure:"concurrency"`
}

// RouterConfig holds hybrid router configuration
type RouterConfig struct {
	BranchTimeoutSeconds int     `mapstructure:"branch_timeout"` // in seconds
	ResultLimit          int     `mapstructure:"result_limit"`
	GraphBaseScore       float64 `mapstructure:"graph_base_score"`
	VectorWeight         float64 `mapstructure:"vector_weight"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	ParquetPath string `mapstructure:"parquet_path"`
}

// CircuitBreakerConfig holds configuration for circuit breaking
type CircuitBreakerConfig struct {
	Enabled          bool    `mapstructure:"enabled"`
	MaxRequests      uint32  `mapstructure:"max_requests"`
	Interval         int     `mapstructure:"interval"` // in seconds
	Timeout          int     `mapstructure:"timeout"`  // in seconds
	ReadyToTripRatio float64 `mapstructure:"ready_to_trip_ratio"`
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Override with environment variables if present
	overrideWithEnv(config)

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")

	// Graph defaults
	viper.SetDefault("graph.driver", "neo4j")
	viper.SetDefault("graph.uri", "bolt://localhost:7687")
	viper.SetDefault("graph.username", "neo4j")
	viper.SetDefault("graph.password", "")
	viper.SetDefault("graph.database", "")
	viper.SetDefault("graph.default_confidence", 0.9)

	// Vector defaults
	home, err := os.UserHomeDir()
	if err == nil {
		viper.SetDefault("vector.path", fmt.Sprintf("%s/.graphrag/vectors", home))
		viper.SetDefault("telemetry.parquet_path", fmt.Sprintf("%s/.graphrag/telemetry", home))
	}
	viper.SetDefault("vector.collection", "space_biology")

	// Embedding defaults
	viper.SetDefault("embedding.provider", "openai")
	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.fallback_model", "text-embedding-ada-002")

	// Extraction defaults
	viper.SetDefault("extraction.model", "gpt-4o-mini")
	viper.SetDefault("extraction.concurrency", 4)

	// Router defaults
	viper.SetDefault("router.branch_timeout", 10)
	viper.SetDefault("router.result_limit", 10)
	viper.SetDefault("router.graph_base_score", 0.8)
	viper.SetDefault("router.vector_weight", 0.7)

	// Circuit breaker defaults
	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 3)
	viper.SetDefault("circuit_breaker.interval", 60)
	viper.SetDefault("circuit_breaker.timeout", 30)
	viper.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.6)
}

// overrideWithEnv overrides config with environment variables
func overrideWithEnv(config *Config) {
	// Graph database credentials
	if uri := os.Getenv("NEO4J_URI"); uri != "" {
		config.Graph.URI = uri
	}
	if user := os.Getenv("NEO4J_USER"); user != "" {
		config.Graph.Username = user
	}
	if pass := os.Getenv("NEO4J_PASSWORD"); pass != "" {
		config.Graph.Password = pass
	}
	if db := os.Getenv("NEO4J_DATABASE"); db != "" {
		config.Graph.Database = db
	}
	if driver := os.Getenv("GRAPH_DRIVER"); driver != "" {
		config.Graph.Driver = driver
	}

	// OpenAI credentials are shared by embedding and extraction unless
	// overridden individually.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		if config.Embedding.APIKey == "" {
			config.Embedding.APIKey = apiKey
		}
		if config.Extraction.APIKey == "" {
			config.Extraction.APIKey = apiKey
		}
	}

	// Vector store settings
	if path := os.Getenv("VECTOR_PATH"); path != "" {
		config.Vector.Path = path
	}
	if collection := os.Getenv("VECTOR_COLLECTION"); collection != "" {
		config.Vector.Collection = collection
	}

	// Server settings
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	// Telemetry settings
	if path := os.Getenv("TELEMETRY_PARQUET_PATH"); path != "" {
		config.Telemetry.ParquetPath = path
	}
}
