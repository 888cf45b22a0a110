package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys, shared by the flag names and viper
const (
	KeyServerURL       = "server"
	KeyClientID        = "client-id"
	KeyScope           = "scope"
	KeyCredentialsPath = "credentials"
)

// CLIConfig is the resolved configuration of the chat command line client
type CLIConfig struct {
	ServerURL       string
	ClientID        string
	Scope           string
	CredentialsPath string
}

// AddCLIFlags registers the settings flags on flags. Defaults live in viper
// so an unset flag never shadows the environment.
func AddCLIFlags(flags *pflag.FlagSet) {
	flags.String(KeyServerURL, "", "Server URL (env CHAT_SERVER_URL, default http://localhost:8080)")
	flags.String(KeyClientID, "", "OAuth client id (env CHAT_CLIENT_ID, default chat-cli)")
	flags.String(KeyScope, "", "Requested scope (env CHAT_SCOPE, default chat)")
	flags.String(KeyCredentialsPath, "", "Credential file path (env CHAT_CREDENTIALS_FILE)")
}

// NewCLIViper binds the settings to their flags and CHAT_* variables. Viper
// resolves a changed flag first, then the environment, then the default.
func NewCLIViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault(KeyServerURL, "http://localhost:8080")
	v.SetDefault(KeyClientID, "chat-cli")
	v.SetDefault(KeyScope, "chat")
	v.SetDefault(KeyCredentialsPath, DefaultCredentialsPath())

	envs := map[string]string{
		KeyServerURL:       "CHAT_SERVER_URL",
		KeyClientID:        "CHAT_CLIENT_ID",
		KeyScope:           "CHAT_SCOPE",
		KeyCredentialsPath: "CHAT_CREDENTIALS_FILE",
	}
	for key, env := range envs {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
		if flag := flags.Lookup(key); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

// ResolveCLIConfig reads the bound settings back into a CLIConfig
func ResolveCLIConfig(v *viper.Viper) CLIConfig {
	return CLIConfig{
		ServerURL:       v.GetString(KeyServerURL),
		ClientID:        v.GetString(KeyClientID),
		Scope:           v.GetString(KeyScope),
		CredentialsPath: v.GetString(KeyCredentialsPath),
	}
}

// DefaultCredentialsPath returns the per-user location of the credential file
func DefaultCredentialsPath() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "chat-cli", "credentials.json")
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".chat-cli", "credentials.json")
	}
	return filepath.Join(".chat-cli", "credentials.json")
}
