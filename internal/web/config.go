package web

import (
	"github.com/domain-scraper/internal/config"
)

// Config represents the web server configuration
type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Features FeatureConfig
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port int
	Host string
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	APIKey string
}

// FeatureConfig contains feature toggles
type FeatureConfig struct {
	ExportEnabled bool
}

// FromWebConfig maps the environment-sourced settings onto a server config
func FromWebConfig(c config.WebConfig) *Config {
	return &Config{
		Server:   ServerConfig{Host: c.Host, Port: c.Port},
		Auth:     AuthConfig{APIKey: c.APIKey},
		Features: FeatureConfig{ExportEnabled: c.ExportEnabled},
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, Host: "0.0.0.0"},
		Features: FeatureConfig{ExportEnabled: true},
	}
}
