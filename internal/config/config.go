package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Create a new instance of the logger
// Configure it to log at the desired level
// and format it as JSON for structured logging
var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	environment := GetEnvWithDefault("APP_ENV", "development")
	switch environment {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		// Default to info level for other environments
		log.SetLevel(logrus.InfoLevel)
	}
}

// Config used for the server configuration, loading the input from environment variables
type Config struct {
	// Server Configuration
	Port      int    `json:"port"`
	Host      string `json:"host"`
	PublicURL string `json:"public_url"`

	// Database configuration
	DBDriver   string `json:"db_driver"`
	DBPath     string `json:"db_path"`
	DBHost     string `json:"db_host"`
	DBPort     string `json:"db_port"`
	DBName     string `json:"db_name"`
	DBUser     string `json:"db_user"`
	DBPassword string `json:"db_password"`
	DBSSLMode  string `json:"db_sslmode"`

	// Logging configuration
	LogLevel string `json:"log_level"`

	// Security Configuration
	JWTSecret      string        `json:"jwt_secret"`
	AccessTokenTTL time.Duration `json:"access_token_ttl"`

	// Device authorization grant
	DeviceCodeLifetime time.Duration `json:"device_code_lifetime"`
	DevicePollInterval time.Duration `json:"device_poll_interval"`
	DeviceSlowDownStep time.Duration `json:"device_slow_down_step"`

	// Built-in clients registered at startup
	CLIClientID string `json:"cli_client_id"`
	WebClientID string `json:"web_client_id"`

	// Origins allowed to call the API from a browser (the account web UI)
	CORSOrigins []string `json:"cors_origins"`
}

// String returns a string representation of Config with sensitive data masked
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port: %d, Host: %s, PublicURL: %s, DBDriver: %s, DBHost: %s, DBName: %s, DBUser: %s, DBPassword: [REDACTED], LogLevel: %s, JWTSecret: [REDACTED], DeviceCodeLifetime: %s, DevicePollInterval: %s}",
		c.Port, c.Host, c.PublicURL, c.DBDriver, c.DBHost, c.DBName, c.DBUser, c.LogLevel, c.DeviceCodeLifetime, c.DevicePollInterval)
}

// VerificationURI is the page the human opens to enter a user code
func (c *Config) VerificationURI() string {
	return strings.TrimRight(c.PublicURL, "/") + "/device"
}

// LoadConfig read the proper configuration from environment variables and returns a Config struct
// It also validates formats like PublicURL and the device flow timings
// Returns an error if any environment variable is invalid
func LoadConfig() (*Config, error) {
	log.Info("Loading configuration from environment variables")
	port, err := strconv.Atoi(GetEnvWithDefault("APP_PORT", "8080"))
	if err != nil {
		return nil, err
	}
	host := GetEnvWithDefault("APP_HOST", "localhost")

	publicURL := GetEnvWithDefault("PUBLIC_URL", fmt.Sprintf("http://%s:%d", host, port))
	if _, err := url.ParseRequestURI(publicURL); err != nil {
		return nil, fmt.Errorf("invalid PUBLIC_URL format %q: %w", publicURL, err)
	}

	config := &Config{
		Port:               port,
		Host:               host,
		PublicURL:          publicURL,
		DBDriver:           GetEnvWithDefault("DB_DRIVER", "sqlite"),
		DBPath:             GetEnvWithDefault("DB_PATH", "chat.sqlite"),
		DBHost:             GetEnvWithDefault("DB_HOST", "localhost"),
		DBPort:             GetEnvWithDefault("DB_PORT", "5432"),
		DBName:             GetEnvWithDefault("DB_NAME", "chat"),
		DBUser:             GetEnvWithDefault("DB_USER", "user"),
		DBPassword:         GetEnvWithDefault("DB_PASSWORD", "password"),
		DBSSLMode:          GetEnvWithDefault("DB_SSLMODE", "disable"),
		LogLevel:           GetEnvWithDefault("LOG_LEVEL", "info"),
		JWTSecret:          GetEnvWithDefault("JWT_SECRET", "secret"),
		AccessTokenTTL:     GetEnvAsType("ACCESS_TOKEN_TTL", 30*24*time.Hour),
		DeviceCodeLifetime: GetEnvAsType("DEVICE_CODE_LIFETIME", 900*time.Second),
		DevicePollInterval: GetEnvAsType("DEVICE_POLL_INTERVAL", 5*time.Second),
		DeviceSlowDownStep: GetEnvAsType("DEVICE_SLOW_DOWN_STEP", 5*time.Second),
		CLIClientID:        GetEnvWithDefault("CLI_CLIENT_ID", "chat-cli"),
		WebClientID:        GetEnvWithDefault("WEB_CLIENT_ID", "chat-web"),
		CORSOrigins:        splitList(GetEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
	}

	if config.DeviceCodeLifetime <= 0 {
		return nil, fmt.Errorf("DEVICE_CODE_LIFETIME must be positive, got %s", config.DeviceCodeLifetime)
	}
	if config.DevicePollInterval < time.Second {
		return nil, fmt.Errorf("DEVICE_POLL_INTERVAL must be at least 1s, got %s", config.DevicePollInterval)
	}

	log.Infof("Configuration loaded: %s", config.String())
	return config, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Helper to get environment with default values
func GetEnvWithDefault(key, defaultValue string) string {
	log.Tracef("Getting environment variable: %s", key)
	value := os.Getenv(key)
	if value == "" {
		log.Debugf("Environment variable %s not set, using default value: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// GetEnvAsType retrieves an environment variable and converts it to the specified type
// using generic type handling.
func GetEnvAsType[T any](key string, defaultValue T) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result T
	switch any(result).(type) {
	case int:
		intValue, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return any(intValue).(T)
	case string:
		return any(value).(T)
	case bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return any(boolValue).(T)
	case time.Duration:
		durationValue, err := time.ParseDuration(value)
		if err != nil {
			// Plain integers are read as seconds
			seconds, convErr := strconv.Atoi(value)
			if convErr != nil {
				log.Warnf("Environment variable %s has invalid duration %q, using default", key, value)
				return defaultValue
			}
			durationValue = time.Duration(seconds) * time.Second
		}
		return any(durationValue).(T)
	default:
		return defaultValue // Fallback for unsupported types
	}
}
