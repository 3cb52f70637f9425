package config

import (
	"fmt"
	"time"
)

// Config is the full process configuration, sourced from the environment
type Config struct {
	Database DatabaseConfig
	Scrape   ScrapeConfig
	Web      WebConfig
	Log      LogConfig
}

// DatabaseConfig selects and addresses the results database
type DatabaseConfig struct {
	Driver         string // postgres or mysql
	Host           string
	Port           string
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConnections int
}

// ScrapeConfig controls the scraping run
type ScrapeConfig struct {
	Input        string
	Output       string
	Source       string // meta or maps
	Workers      int
	RatePerSec   float64
	Timeout      time.Duration
	MapsWait     time.Duration
	Headless     bool
	UserAgent    string
	DNSCheck     bool
	Nameservers  []string
	StatusColumn bool
}

// WebConfig contains HTTP server settings
type WebConfig struct {
	Host          string
	Port          int
	APIKey        string // empty disables the X-API-Key check
	ExportEnabled bool
}

// LogConfig selects the zap level and encoder
type LogConfig struct {
	Level string
	Dev   bool
}

// DefaultUserAgent is sent by the HTTP and browser scrapers
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Load reads .env then builds a Config from the environment
func Load() (*Config, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment only
func FromEnv() *Config {
	driver := GetEnv("DB_DRIVER", "postgres")
	defaultPort := "5432"
	if driver == "mysql" {
		defaultPort = "3306"
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:         driver,
			Host:           GetEnv("DB_HOST", "localhost"),
			Port:           GetEnv("DB_PORT", defaultPort),
			User:           GetEnv("DB_USER", "postgres"),
			Password:       GetEnv("DB_PASSWORD", "postgres"),
			Name:           GetEnv("DB_NAME", "domain_scraper"),
			SSLMode:        GetEnv("DB_SSLMODE", "disable"),
			MaxConnections: GetEnvInt("DB_MAX_CONNECTIONS", 10),
		},
		Scrape: ScrapeConfig{
			Input:        GetEnv("SCRAPE_INPUT", "domains.csv"),
			Output:       GetEnv("SCRAPE_OUTPUT", "output.csv"),
			Source:       GetEnv("SCRAPE_SOURCE", "meta"),
			Workers:      GetEnvInt("SCRAPE_WORKERS", 4),
			RatePerSec:   GetEnvFloat("SCRAPE_RATE_PER_SEC", 1),
			Timeout:      GetEnvDuration("SCRAPE_TIMEOUT", 10*time.Second),
			MapsWait:     GetEnvDuration("SCRAPE_MAPS_WAIT", 10*time.Second),
			Headless:     GetEnvBool("SCRAPE_HEADLESS", true),
			UserAgent:    GetEnv("SCRAPE_USER_AGENT", DefaultUserAgent),
			DNSCheck:     GetEnvBool("SCRAPE_DNS_CHECK", false),
			Nameservers:  GetEnvList("SCRAPE_NAMESERVERS", []string{"8.8.8.8:53", "1.1.1.1:53"}),
			StatusColumn: GetEnvBool("SCRAPE_STATUS_COLUMN", false),
		},
		Web: WebConfig{
			Host:          GetEnv("WEB_HOST", "localhost"),
			Port:          GetEnvInt("WEB_PORT", 8080),
			APIKey:        GetEnv("WEB_API_KEY", ""),
			ExportEnabled: GetEnvBool("WEB_EXPORT_ENABLED", true),
		},
		Log: LogConfig{
			Level: GetEnv("LOG_LEVEL", "info"),
			Dev:   GetEnvBool("LOG_DEV", false),
		},
	}
}
