package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Search Search `yaml:"search"`
	Brief  Brief  `yaml:"brief"`
	Fetch  Fetch  `yaml:"fetch"`
	Output Output `yaml:"output"`
	Server Server `yaml:"server"`
}

// Search configures the ranking provider queries.
type Search struct {
	APIKeyEnv      string `yaml:"api_key_env"`
	Results        int    `yaml:"results"`
	Country        string `yaml:"country"`
	Language       string `yaml:"language"`
	ExcludeDomain  string `yaml:"exclude_domain"`
	NewsFallback   bool   `yaml:"news_fallback"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Brief configures the LLM synthesis step.
type Brief struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	MaxTokens int    `yaml:"max_tokens"`
	Audience  string `yaml:"audience"`
	Goal      string `yaml:"goal"`
}

// Fetch configures the per-page competitor fetches.
type Fetch struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	DelayMs        int    `yaml:"delay_ms"`
	UserAgent      string `yaml:"user_agent"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

// ConfigDir returns the XDG config directory for briefgen.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "briefgen")
}

// DataDir returns the XDG data directory for briefgen.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "briefgen")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/briefgen/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'briefgen init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Search: Search{
			APIKeyEnv:      "SERP_API_KEY",
			Results:        8,
			Country:        "it",
			Language:       "it",
			TimeoutSeconds: 15,
		},
		Brief: Brief{
			Model:     "gpt-4o",
			APIKeyEnv: "OPENAI_API_KEY",
			MaxTokens: 4096,
			Audience:  "SEO manager e content strategist",
			Goal:      "Posizionarsi per questa keyword e generare lead",
		},
		Fetch: Fetch{
			TimeoutSeconds: 8,
			DelayMs:        1000,
			UserAgent:      "Mozilla/5.0 (compatible; ContentBriefBot/1.0)",
		},
		Server: Server{Port: 8000},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// SerpAPIKey returns the ranking-provider API key from the environment.
func (c *Config) SerpAPIKey() string {
	return os.Getenv(c.Search.APIKeyEnv)
}

// ExcludedDomain returns the domain to filter out of ranking results.
// The config value wins; TARGET_DOMAIN is the environment fallback.
func (c *Config) ExcludedDomain() string {
	if c.Search.ExcludeDomain != "" {
		return c.Search.ExcludeDomain
	}
	return strings.TrimSpace(os.Getenv("TARGET_DOMAIN"))
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
