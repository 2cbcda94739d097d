package config

import (
	"fmt"
	"time"
)

// SchedulerConfig holds background alarm configuration.
type SchedulerConfig struct {
	// CacheRefreshInterval is the keep-alive period that rebuilds pr_data_cache.
	CacheRefreshInterval time.Duration
	// ReconcileInterval is the period of the full-namespace reconciliation. Zero disables it.
	ReconcileInterval time.Duration
	// ReconcileOnStart runs reconciliation and the unknown purge when the service starts.
	ReconcileOnStart bool
}

// LoadSchedulerConfigFromEnv loads scheduler configuration from environment variables.
func LoadSchedulerConfigFromEnv() SchedulerConfig {
	return SchedulerConfig{
		CacheRefreshInterval: GetEnvDuration("CACHE_REFRESH_INTERVAL", time.Minute),
		ReconcileInterval:    GetEnvDuration("RECONCILE_INTERVAL", 30*time.Minute),
		ReconcileOnStart:     GetEnvBool("RECONCILE_ON_START", true),
	}
}

// Validate validates scheduler configuration.
func (c SchedulerConfig) Validate() error {
	if c.CacheRefreshInterval <= 0 {
		return fmt.Errorf("CacheRefreshInterval must be greater than 0")
	}
	if c.ReconcileInterval < 0 {
		return fmt.Errorf("ReconcileInterval must not be negative")
	}
	return nil
}
