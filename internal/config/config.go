package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Logger   LoggerConfig
	Search   SearchConfig
	Matching MatchingConfig
}

// DatabaseConfig holds catalog database connection settings
type DatabaseConfig struct {
	URL            string `validate:"required"`
	MigrationsPath string // Default: "migrations"
	MaxConns       int32  // Default: 4
	MinConns       int32  // Default: 1
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string `validate:"oneof=trace debug info warn warning error fatal panic"`
	Environment string `validate:"oneof=production development staging test"`
}

// SearchConfig holds the optional Meilisearch index settings.
// The index is used as a first-pass candidate source; an empty Host
// disables it and the engine queries the catalog directly.
type SearchConfig struct {
	Host   string `validate:"omitempty,url"`
	APIKey string
	Index  string // Default: "events"
}

// MatchingConfig holds tuning overrides for the matching engine
type MatchingConfig struct {
	SimilarityThreshold      float64 `validate:"gte=0,lte=1"`
	DistanceTolerancePercent float64 `validate:"gte=0,lte=1"`
	ConfidenceBase           float64 `validate:"gte=0,lte=1"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Constants for default values
const (
	DefaultMigrationsPath      = "migrations"
	DefaultLogLevel            = "info"
	DefaultEnvironment         = "development"
	DefaultSearchIndex         = "events"
	DefaultSimilarityThreshold = 0.75
	DefaultDistanceTolerance   = 0.1
	DefaultConfidenceBase      = 0.9
)

var validate = validator.New()

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MigrationsPath: getEnv("MIGRATIONS_PATH", DefaultMigrationsPath),
			MaxConns:       int32(getEnvAsInt("DATABASE_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("DATABASE_MIN_CONNS", 1)),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", DefaultLogLevel),
			Environment: getEnv("APP_ENV", DefaultEnvironment),
		},
		Search: SearchConfig{
			Host:   getEnv("MEILISEARCH_HOST", ""),
			APIKey: getEnv("MEILISEARCH_API_KEY", ""),
			Index:  getEnv("MEILISEARCH_INDEX", DefaultSearchIndex),
		},
		Matching: MatchingConfig{
			SimilarityThreshold:      getEnvAsFloat("MATCHING_SIMILARITY_THRESHOLD", DefaultSimilarityThreshold),
			DistanceTolerancePercent: getEnvAsFloat("MATCHING_DISTANCE_TOLERANCE", DefaultDistanceTolerance),
			ConfidenceBase:           getEnvAsFloat("MATCHING_CONFIDENCE_BASE", DefaultConfidenceBase),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return ValidationError{
				Field:   first.Namespace(),
				Message: fmt.Sprintf("failed %q check (value %v)", first.Tag(), first.Value()),
			}
		}
		return err
	}

	// Meilisearch needs an index name when enabled
	if c.Search.Host != "" && c.Search.Index == "" {
		return ValidationError{
			Field:   "MEILISEARCH_INDEX",
			Message: "index name is required when MEILISEARCH_HOST is set",
		}
	}

	return nil
}

// SearchEnabled reports whether the Meilisearch candidate source is configured
func (c *Config) SearchEnabled() bool {
	return c.Search.Host != ""
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Logger.Environment == "production"
}

// Helper functions for parsing environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
