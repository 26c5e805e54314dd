// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/usestring/splunk-mcp/internal/cache"
	"github.com/usestring/splunk-mcp/internal/scheduler"
	"github.com/usestring/splunk-mcp/pkg/client"
)

// Config holds all configuration for the MCP server.
type Config struct {
	// Connection defaults. Lookup options passed by the host override them.
	SplunkURL   string // SPLUNK_URL, default ""
	APIToken    string // SPLUNK_API_TOKEN
	Username    string // SPLUNK_USERNAME
	Password    string // SPLUNK_PASSWORD
	AuthMode    string // SPLUNK_AUTH_MODE: token, basic or session
	OptionsFile string // SPLUNK_OPTIONS_FILE, YAML file with default lookup options

	// HTTP transport
	HTTPClientTimeout  time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 30000ms (30s)
	CAFile             string        // SPLUNK_CA_FILE
	CertFile           string        // SPLUNK_CERT_FILE
	KeyFile            string        // SPLUNK_KEY_FILE
	InsecureSkipVerify bool          // SPLUNK_INSECURE_SKIP_VERIFY, default false
	ProxyURL           string        // SPLUNK_PROXY_URL

	// Lookup scheduling
	LookupBatchSize      int // LOOKUP_BATCH_SIZE, default 10
	LookupMaxConcurrency int // LOOKUP_MAX_CONCURRENCY, default 10

	// Session key cache
	TokenCacheTTL      time.Duration // TOKEN_CACHE_TTL_MS, default 300000ms (5m)
	TokenCacheMaxItems int           // TOKEN_CACHE_MAX_ITEMS, default 256

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 5
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		SplunkURL:   getEnvString("SPLUNK_URL", ""),
		APIToken:    getEnvString("SPLUNK_API_TOKEN", ""),
		Username:    getEnvString("SPLUNK_USERNAME", ""),
		Password:    getEnvString("SPLUNK_PASSWORD", ""),
		AuthMode:    getEnvString("SPLUNK_AUTH_MODE", ""),
		OptionsFile: getEnvString("SPLUNK_OPTIONS_FILE", ""),

		HTTPClientTimeout:  getEnvDurationMs("HTTP_CLIENT_TIMEOUT_MS", 30000),
		CAFile:             getEnvString("SPLUNK_CA_FILE", ""),
		CertFile:           getEnvString("SPLUNK_CERT_FILE", ""),
		KeyFile:            getEnvString("SPLUNK_KEY_FILE", ""),
		InsecureSkipVerify: getEnvBool("SPLUNK_INSECURE_SKIP_VERIFY", false),
		ProxyURL:           getEnvString("SPLUNK_PROXY_URL", ""),

		LookupBatchSize:      getEnvInt("LOOKUP_BATCH_SIZE", scheduler.DefaultBatchSize),
		LookupMaxConcurrency: getEnvInt("LOOKUP_MAX_CONCURRENCY", scheduler.DefaultMaxConcurrency),

		TokenCacheTTL:      getEnvDurationMs("TOKEN_CACHE_TTL_MS", int(client.DefaultSessionTTL/time.Millisecond)),
		TokenCacheMaxItems: getEnvInt("TOKEN_CACHE_MAX_ITEMS", cache.DefaultMaxItems),

		LogLevel:      getEnvString("LOG_LEVEL", "info"),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),
	}
}

// HTTPOptions returns the transport settings for the Splunk client.
func (c *Config) HTTPOptions() client.HTTPOptions {
	return client.HTTPOptions{
		Timeout:            c.HTTPClientTimeout,
		CAFile:             c.CAFile,
		CertFile:           c.CertFile,
		KeyFile:            c.KeyFile,
		InsecureSkipVerify: c.InsecureSkipVerify,
		ProxyURL:           c.ProxyURL,
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDurationMs(key string, defaultMs int) time.Duration {
	ms := getEnvInt(key, defaultMs)
	return time.Duration(ms) * time.Millisecond
}
