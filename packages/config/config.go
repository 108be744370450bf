package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/itsJohnCnstn/httpcall/packages/client"
	"github.com/itsJohnCnstn/httpcall/packages/redirect"
)

// Config represents the httpcall configuration
type Config struct {
	ConnectTimeout    int               `json:"connectTimeout,omitempty"`    // milliseconds
	InactivityTimeout int               `json:"inactivityTimeout,omitempty"` // milliseconds
	TotalTimeout      int               `json:"totalTimeout,omitempty"`      // milliseconds
	RedirectPolicy    string            `json:"redirectPolicy,omitempty"`    // strict, lax, none
	MaxRedirects      int               `json:"maxRedirects,omitempty"`
	ValidateSSL       *bool             `json:"validateSSL,omitempty"`
	Proxy             string            `json:"proxy,omitempty"`
	UserAgent         string            `json:"userAgent,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"` // Default headers for all requests
	HistoryDB         string            `json:"historyDb,omitempty"`
	NoColor           *bool             `json:"noColor,omitempty"`
}

// BoolPtr returns a pointer to a bool value
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// Options converts the configuration into client options.
func (c *Config) Options() []client.ClientOption {
	var opts []client.ClientOption

	if c.ConnectTimeout > 0 {
		opts = append(opts, client.WithConnectTimeout(time.Duration(c.ConnectTimeout)*time.Millisecond))
	}
	if c.InactivityTimeout > 0 {
		opts = append(opts, client.WithInactivityTimeout(time.Duration(c.InactivityTimeout)*time.Millisecond))
	}
	if c.TotalTimeout > 0 {
		opts = append(opts, client.WithTotalTimeout(time.Duration(c.TotalTimeout)*time.Millisecond))
	}
	if c.RedirectPolicy != "" {
		opts = append(opts, client.WithRedirectPolicy(redirect.ByName(c.RedirectPolicy)))
	}
	if c.MaxRedirects > 0 {
		opts = append(opts, client.WithMaxRedirects(c.MaxRedirects))
	}
	if !c.GetValidateSSL() {
		opts = append(opts, client.WithValidateSSL(false))
	}
	if c.Proxy != "" {
		opts = append(opts, client.WithProxy(c.Proxy))
	}
	if c.UserAgent != "" {
		opts = append(opts, client.WithUserAgent(c.UserAgent))
	}
	if len(c.Headers) > 0 {
		opts = append(opts, client.WithDefaultHeaders(c.Headers))
	}

	return opts
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".httpcall.config.json",
	"httpcall.config.json",
	".httpcallrc",
	".httpcallrc.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// No config file found, return empty config
	return &Config{}, nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}
