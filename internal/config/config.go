package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Log      LogConfig      `mapstructure:"log"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// OpenAIConfig holds completion service settings.
type OpenAIConfig struct {
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	OrgID     string `mapstructure:"org_id"`
	Model     string `mapstructure:"model"`
	MaxTokens int    `mapstructure:"max_tokens"`
	Stream    bool   `mapstructure:"stream"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and env. Env var overrides use prefix PRIMER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "primer", "primer.db"))
	v.SetDefault("openai.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.org_id", "")
	v.SetDefault("openai.model", "gpt-5")
	v.SetDefault("openai.max_tokens", 4096)
	v.SetDefault("openai.stream", true)
	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("PRIMER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "primer"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PRIMER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// ResolveAPIKey returns the completion service key, preferring the configured
// environment variable over the key stored in the config file.
func (c Config) ResolveAPIKey() string {
	env := strings.TrimSpace(c.OpenAI.APIKeyEnv)
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return strings.TrimSpace(c.OpenAI.APIKey)
}
