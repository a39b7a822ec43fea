package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"pulse-backend/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	// Service identity
	AppName string `validate:"required"`
	Stage   string `validate:"required,oneof=development staging production"`

	// Server configuration
	ServerAddress string `validate:"required"`
	DebugAddress  string // empty disables the debug listener

	// Logging
	LogLevel         string `validate:"oneof=debug info warn error"`
	EnableRemoteLogs bool
	LogGroupName     string
	LogStreamName    string

	// Tracing
	EnableTracing bool
	DaemonAddress string // trace daemon endpoint, host:port

	// Metrics
	EnableMetrics   bool
	MetricNamespace string

	// AWS configuration
	AWSRegion string

	// Lambda configuration
	IsLambda bool

	// Simulated downstream call behavior
	DatabaseLatencyMin  time.Duration
	DatabaseLatencyMax  time.Duration
	ExternalLatencyMin  time.Duration
	ExternalLatencyMax  time.Duration
	DatabaseFailureRate float64 `validate:"gte=0,lte=1"`
	ExternalFailureRate float64 `validate:"gte=0,lte=1"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppName: getEnv("APP_NAME", "pulse-api"),
		Stage:   getEnv("STAGE", "development"),

		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		DebugAddress:  getEnv("DEBUG_ADDRESS", ""),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableRemoteLogs: getEnvBool("ENABLE_REMOTE_LOGS", false),
		LogGroupName:     getEnv("LOG_GROUP_NAME", "/pulse/api"),
		LogStreamName:    getEnv("LOG_STREAM_NAME", ""),

		EnableTracing: getEnvBool("ENABLE_TRACING", true),
		DaemonAddress: getEnv("TRACE_DAEMON_ADDRESS", "127.0.0.1:2000"),

		EnableMetrics:   getEnvBool("ENABLE_METRICS", false),
		MetricNamespace: getEnv("METRIC_NAMESPACE", "Pulse"),

		AWSRegion: getEnv("AWS_REGION", "us-west-2"),
		IsLambda:  getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""),

		DatabaseLatencyMin:  getEnvDuration("DB_LATENCY_MIN", 50*time.Millisecond),
		DatabaseLatencyMax:  getEnvDuration("DB_LATENCY_MAX", 200*time.Millisecond),
		ExternalLatencyMin:  getEnvDuration("EXTERNAL_LATENCY_MIN", 100*time.Millisecond),
		ExternalLatencyMax:  getEnvDuration("EXTERNAL_LATENCY_MAX", 300*time.Millisecond),
		DatabaseFailureRate: getEnvFloat("DB_FAILURE_RATE", 0.05),
		ExternalFailureRate: getEnvFloat("EXTERNAL_FAILURE_RATE", 0.10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present and consistent
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	if c.DatabaseLatencyMin > c.DatabaseLatencyMax {
		return fmt.Errorf("DB_LATENCY_MIN must not exceed DB_LATENCY_MAX")
	}
	if c.ExternalLatencyMin > c.ExternalLatencyMax {
		return fmt.Errorf("EXTERNAL_LATENCY_MIN must not exceed EXTERNAL_LATENCY_MAX")
	}

	if c.IsProduction() {
		if c.EnableRemoteLogs && c.LogGroupName == "" {
			return fmt.Errorf("LOG_GROUP_NAME is required when remote logs are enabled")
		}
		if c.EnableTracing && c.DaemonAddress == "" {
			return fmt.Errorf("TRACE_DAEMON_ADDRESS is required when tracing is enabled")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Stage == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Stage == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
