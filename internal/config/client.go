package config

import (
	"fmt"
	"net/url"
	"time"
)

// ClientConfig holds settings for page and popup contexts talking to the service.
type ClientConfig struct {
	// ServerURL is the base URL of the background service.
	ServerURL string
	// Timeout bounds a single message round trip.
	Timeout time.Duration
	// PingTimeout bounds the popup connectivity check.
	PingTimeout time.Duration
	// LoadTimeout bounds the popup data load before falling back to the cache.
	LoadTimeout time.Duration
	// MinUpdateInterval throttles repeated page updates within one session.
	MinUpdateInterval time.Duration
}

// LoadClientConfigFromEnv loads client configuration from environment variables.
func LoadClientConfigFromEnv() ClientConfig {
	return ClientConfig{
		ServerURL:         GetEnv("PRTRACKER_SERVER_URL", "http://127.0.0.1:8080"),
		Timeout:           GetEnvDuration("CLIENT_TIMEOUT", 10*time.Second),
		PingTimeout:       GetEnvDuration("PING_TIMEOUT", 3*time.Second),
		LoadTimeout:       GetEnvDuration("LOAD_TIMEOUT", 5*time.Second),
		MinUpdateInterval: GetEnvDuration("MIN_UPDATE_INTERVAL", time.Second),
	}
}

// Validate validates client configuration.
func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid PRTRACKER_SERVER_URL: %q", c.ServerURL)
	}
	if c.Timeout <= 0 || c.PingTimeout <= 0 || c.LoadTimeout <= 0 {
		return fmt.Errorf("client timeouts must be greater than 0")
	}
	if c.MinUpdateInterval < 0 {
		return fmt.Errorf("MinUpdateInterval must not be negative")
	}
	return nil
}
