package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Run("existing env var", func(t *testing.T) {
		t.Setenv("PRTRACKER_TEST_KEY", "value")
		assert.Equal(t, "value", GetEnv("PRTRACKER_TEST_KEY", "default"))
	})

	t.Run("empty env var falls back", func(t *testing.T) {
		t.Setenv("PRTRACKER_TEST_KEY", "")
		assert.Equal(t, "default", GetEnv("PRTRACKER_TEST_KEY", "default"))
	})
}

func TestGetEnvInt(t *testing.T) {
	t.Run("valid integer", func(t *testing.T) {
		t.Setenv("PRTRACKER_TEST_INT", "42")
		assert.Equal(t, 42, GetEnvInt("PRTRACKER_TEST_INT", 0))
	})

	t.Run("invalid integer", func(t *testing.T) {
		t.Setenv("PRTRACKER_TEST_INT", "forty-two")
		assert.Equal(t, 7, GetEnvInt("PRTRACKER_TEST_INT", 7))
	})
}

func TestGetEnvDuration(t *testing.T) {
	t.Run("valid duration", func(t *testing.T) {
		t.Setenv("PRTRACKER_TEST_DURATION", "1m30s")
		assert.Equal(t, 90*time.Second, GetEnvDuration("PRTRACKER_TEST_DURATION", time.Second))
	})

	t.Run("invalid duration", func(t *testing.T) {
		t.Setenv("PRTRACKER_TEST_DURATION", "soon")
		assert.Equal(t, time.Second, GetEnvDuration("PRTRACKER_TEST_DURATION", time.Second))
	})
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		expected     bool
	}{
		{name: "true", value: "true", defaultValue: false, expected: true},
		{name: "zero", value: "0", defaultValue: true, expected: false},
		{name: "garbage keeps default", value: "maybe", defaultValue: true, expected: true},
		{name: "unset keeps default", value: "", defaultValue: false, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PRTRACKER_TEST_BOOL", tt.value)
			assert.Equal(t, tt.expected, GetEnvBool("PRTRACKER_TEST_BOOL", tt.defaultValue))
		})
	}
}
