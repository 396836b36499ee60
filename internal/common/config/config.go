// Package config provides configuration management for the agent network,
// loading from environment variables, an optional config file, and
// defaults via github.com/spf13/viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every configuration section recognized by the system (see
// spec.md §6 "Configuration").
type Config struct {
	System  SystemConfig  `mapstructure:"system"`
	APIService APIServiceConfig `mapstructure:"api_service"`
	Proxy   ProxyConfig   `mapstructure:"proxy"`
	MCP     map[string]MCPServiceConfig `mapstructure:"mcp"`
	Logging LoggingConfig `mapstructure:"logging"`
	NATS    NATSConfig    `mapstructure:"nats"`
	FileStore FileStoreConfig `mapstructure:"filestore"`
	Docker  DockerConfig  `mapstructure:"docker"`
	Prompts map[string]string `mapstructure:"prompts"`
}

// SystemConfig holds the core runtime knobs named in spec.md §6.
type SystemConfig struct {
	Port                 int      `mapstructure:"port"`
	KeepAliveInterval    int      `mapstructure:"keep_alive_interval"`  // seconds
	KeepAliveThreshold   int      `mapstructure:"keep_alive_threshold"` // seconds
	SupportedMediaTypes  []string `mapstructure:"supported_media_types"`
	Role                 string   `mapstructure:"role"` // selects the worker/planner personality
	Name                 string   `mapstructure:"name"`
	Category             string   `mapstructure:"category"`
	URL                  string   `mapstructure:"url"`
	Expose               bool     `mapstructure:"expose"`
	VisibleTo            []string `mapstructure:"visible_to"`
	RegistryURL          string   `mapstructure:"registry_url"`
	MaxConcurrentTasks   int      `mapstructure:"max_concurrent_tasks"`
}

// KeepAliveIntervalDuration returns KeepAliveInterval as a time.Duration.
func (s SystemConfig) KeepAliveIntervalDuration() time.Duration {
	return time.Duration(s.KeepAliveInterval) * time.Second
}

// KeepAliveThresholdDuration returns KeepAliveThreshold as a time.Duration.
func (s SystemConfig) KeepAliveThresholdDuration() time.Duration {
	return time.Duration(s.KeepAliveThreshold) * time.Second
}

// APIServiceConfig configures the reasoning-model provider (C2).
type APIServiceConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Tools   bool   `mapstructure:"tools"`
}

// ProxyConfig configures outbound HTTP proxying for provider calls.
type ProxyConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Use     string `mapstructure:"use"`
}

// MCPServiceConfig describes one auxiliary MCP service, keyed by port in
// the parent map (mcp.<port>).
type MCPServiceConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	URL     string   `mapstructure:"url"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// NATSConfig holds best-effort event bus configuration. An empty URL
// disables publishing entirely.
type NATSConfig struct {
	URL      string `mapstructure:"url"`
	ClientID string `mapstructure:"client_id"`
}

// FileStoreConfig configures the content-addressed blob cache (C1).
type FileStoreConfig struct {
	Dir string `mapstructure:"dir"`
}

// DockerConfig configures the optional agentctl dev harness.
type DockerConfig struct {
	Host       string `mapstructure:"host"`
	APIVersion string `mapstructure:"api_version"`
}

// Load reads configuration from the current directory and environment.
func Load() (*Config, error) {
	return LoadWithPath("")
}

// LoadWithPath reads configuration from configPath (if non-empty) or the
// default search locations, falling back to defaults when no file exists.
func LoadWithPath(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("AGENTNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/agentnet/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("system.port", 8080)
	v.SetDefault("system.keep_alive_interval", 10)
	v.SetDefault("system.keep_alive_threshold", 30)
	v.SetDefault("system.supported_media_types", []string{"image/png", "image/jpeg", "audio/wav", "text/plain"})
	v.SetDefault("system.role", "planner")
	v.SetDefault("system.expose", false)
	v.SetDefault("system.max_concurrent_tasks", 5)
	// Empty defaults register these keys with viper so AutomaticEnv can fill
	// them from AGENTNET_* variables when no config file sets them.
	v.SetDefault("system.name", "")
	v.SetDefault("system.category", "")
	v.SetDefault("system.url", "")
	v.SetDefault("system.registry_url", "")
	v.SetDefault("prompts.planner", "You are the planner for a multi-agent network. "+
		"Use agent_discover to find workers and agent_send_message to delegate subtasks.")

	v.SetDefault("api_service.api_key", "")
	v.SetDefault("api_service.model", "claude-sonnet-4-5")
	v.SetDefault("api_service.tools", true)

	v.SetDefault("proxy.enabled", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output_path", "stdout")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.client_id", "agentnet")

	v.SetDefault("filestore.dir", "./data/files")

	v.SetDefault("docker.host", "unix:///var/run/docker.sock")
	v.SetDefault("docker.api_version", "1.41")
}
