package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestGetEnvWithDefault(t *testing.T) {
	testCases := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		expected     string
	}{
		{
			name:         "should return env value when set",
			key:          "TEST_KEY",
			defaultValue: "default",
			envValue:     "from_env",
			expected:     "from_env",
		},
		{
			name:         "should return default when env not set",
			key:          "MISSING_KEY",
			defaultValue: "default_value",
			envValue:     "",
			expected:     "default_value",
		},
		{
			name:         "should return empty string default",
			key:          "EMPTY_KEY",
			defaultValue: "",
			envValue:     "",
			expected:     "",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}

			result := GetEnvWithDefault(tt.key, tt.defaultValue)

			if result != tt.expected {
				t.Errorf("GetEnvWithDefault() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Run("parses duration strings", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "90s")
		if got := GetEnvAsType("TEST_DURATION", time.Second); got != 90*time.Second {
			t.Errorf("GetEnvAsType() = %s, expected 90s", got)
		}
	})

	t.Run("reads bare integers as seconds", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "900")
		if got := GetEnvAsType("TEST_DURATION", time.Second); got != 900*time.Second {
			t.Errorf("GetEnvAsType() = %s, expected 15m", got)
		}
	})

	t.Run("falls back on garbage", func(t *testing.T) {
		t.Setenv("TEST_DURATION", "soon")
		if got := GetEnvAsType("TEST_DURATION", 5*time.Second); got != 5*time.Second {
			t.Errorf("GetEnvAsType() = %s, expected default 5s", got)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	vars := []string{
		"APP_PORT", "APP_HOST", "LOG_LEVEL", "JWT_SECRET", "PUBLIC_URL",
		"DEVICE_CODE_LIFETIME", "DEVICE_POLL_INTERVAL", "CORS_ORIGINS",
	}
	cleanupTestEnv := func() {
		for _, v := range vars {
			os.Unsetenv(v)
		}
	}

	t.Run("successful config load with all env vars", func(t *testing.T) {
		cleanupTestEnv()
		t.Setenv("APP_PORT", "9000")
		t.Setenv("APP_HOST", "0.0.0.0")
		t.Setenv("LOG_LEVEL", "debug")
		t.Setenv("JWT_SECRET", "super_secret_jwt_key")
		t.Setenv("PUBLIC_URL", "https://chat.example.com/")
		t.Setenv("DEVICE_CODE_LIFETIME", "10m")
		t.Setenv("CORS_ORIGINS", "https://chat.example.com, http://localhost:3000")

		config, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() returned error: %v", err)
		}

		if config.Port != 9000 {
			t.Errorf("Port = %d, expected 9000", config.Port)
		}
		if config.Host != "0.0.0.0" {
			t.Errorf("Host = %s, expected 0.0.0.0", config.Host)
		}
		if config.LogLevel != "debug" {
			t.Errorf("LogLevel = %s, expected debug", config.LogLevel)
		}
		if config.DeviceCodeLifetime != 10*time.Minute {
			t.Errorf("DeviceCodeLifetime = %s, expected 10m", config.DeviceCodeLifetime)
		}
		if got := config.VerificationURI(); got != "https://chat.example.com/device" {
			t.Errorf("VerificationURI() = %s", got)
		}
		if len(config.CORSOrigins) != 2 {
			t.Errorf("CORSOrigins = %v, expected two entries", config.CORSOrigins)
		}
	})

	t.Run("should fail with invalid port", func(t *testing.T) {
		cleanupTestEnv()
		t.Setenv("APP_PORT", "not_a_number")

		config, err := LoadConfig()

		if err == nil {
			t.Error("LoadConfig() should return error when APP_PORT is invalid")
		}
		if config != nil {
			t.Error("Config should be nil when error occurs")
		}
	})

	t.Run("should fail with sub-second poll interval", func(t *testing.T) {
		cleanupTestEnv()
		t.Setenv("DEVICE_POLL_INTERVAL", "100ms")

		if _, err := LoadConfig(); err == nil {
			t.Error("LoadConfig() should reject a poll interval below one second")
		}
	})

	t.Run("should use defaults when optional env vars not set", func(t *testing.T) {
		cleanupTestEnv()

		config, err := LoadConfig()
		if err != nil {
			t.Fatalf("LoadConfig() returned unexpected error: %v", err)
		}

		if config.Port != 8080 {
			t.Errorf("Port = %d, expected default 8080", config.Port)
		}
		if config.Host != "localhost" {
			t.Errorf("Host = %s, expected default localhost", config.Host)
		}
		if config.LogLevel != "info" {
			t.Errorf("LogLevel = %s, expected default info", config.LogLevel)
		}
		if config.DeviceCodeLifetime != 900*time.Second {
			t.Errorf("DeviceCodeLifetime = %s, expected default 900s", config.DeviceCodeLifetime)
		}
		if config.DevicePollInterval != 5*time.Second {
			t.Errorf("DevicePollInterval = %s, expected default 5s", config.DevicePollInterval)
		}
		if config.PublicURL != "http://localhost:8080" {
			t.Errorf("PublicURL = %s, expected derived default", config.PublicURL)
		}
	})
}

// resolveCLI parses args the way the chat root command does and resolves
// the result through viper
func resolveCLI(t *testing.T, args ...string) CLIConfig {
	t.Helper()
	flags := pflag.NewFlagSet("chat", pflag.ContinueOnError)
	AddCLIFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	v, err := NewCLIViper(flags)
	if err != nil {
		t.Fatalf("NewCLIViper: %v", err)
	}
	return ResolveCLIConfig(v)
}

func TestResolveCLIConfig(t *testing.T) {
	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv("CHAT_SERVER_URL", "http://from-env:8080")
		cfg := resolveCLI(t, "--server", "http://from-flag:8080")
		if cfg.ServerURL != "http://from-flag:8080" {
			t.Errorf("ServerURL = %s, expected flag value", cfg.ServerURL)
		}
	})

	t.Run("env wins over default", func(t *testing.T) {
		t.Setenv("CHAT_CLIENT_ID", "custom-cli")
		t.Setenv("CHAT_CREDENTIALS_FILE", "/tmp/chat/creds.json")
		cfg := resolveCLI(t)
		if cfg.ClientID != "custom-cli" {
			t.Errorf("ClientID = %s, expected env value", cfg.ClientID)
		}
		if cfg.CredentialsPath != "/tmp/chat/creds.json" {
			t.Errorf("CredentialsPath = %s, expected env value", cfg.CredentialsPath)
		}
	})

	t.Run("empty env falls back to default", func(t *testing.T) {
		t.Setenv("CHAT_SCOPE", "")
		cfg := resolveCLI(t)
		if cfg.Scope != "chat" {
			t.Errorf("Scope = %s, expected default", cfg.Scope)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		os.Unsetenv("CHAT_SERVER_URL")
		os.Unsetenv("CHAT_CLIENT_ID")
		os.Unsetenv("CHAT_CREDENTIALS_FILE")
		cfg := resolveCLI(t)
		if cfg.ServerURL != "http://localhost:8080" {
			t.Errorf("ServerURL = %s, expected default", cfg.ServerURL)
		}
		if cfg.ClientID != "chat-cli" {
			t.Errorf("ClientID = %s, expected default", cfg.ClientID)
		}
		if cfg.CredentialsPath != DefaultCredentialsPath() {
			t.Errorf("CredentialsPath = %s, expected the per-user default", cfg.CredentialsPath)
		}
	})
}

// Benchmark tests (optional but good practice)
func BenchmarkGetEnvWithDefault(b *testing.B) {
	os.Setenv("BENCH_KEY", "test_value")
	defer os.Unsetenv("BENCH_KEY")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GetEnvWithDefault("BENCH_KEY", "default")
	}
}
