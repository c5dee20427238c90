package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := New("8080", "http://localhost:8080", DriverSQLite, "file:catalog.db", time.Hour, 10, 20, "development", "info")
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	cfg := validConfig(t)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.ServerURL)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "file:catalog.db", cfg.Database.DSN)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 10.0, cfg.RateLimit.RPS)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
}

func TestNew_EnvOverride(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://env-wins")
	t.Setenv("DB_DRIVER", DriverPostgres)

	cfg, err := New("8080", "http://localhost:8080", "", "", time.Hour, 10, 20, "production", "info")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env-wins", cfg.Database.DSN)
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int)
		errContains string
	}{
		{
			name: "empty port",
			mutate: func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int) {
				*port = ""
			},
			errContains: "server port",
		},
		{
			name: "empty server URL",
			mutate: func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int) {
				*serverURL = ""
			},
			errContains: "server URL",
		},
		{
			name: "unknown driver",
			mutate: func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int) {
				*driver = "oracle"
			},
			errContains: "unsupported database driver",
		},
		{
			name: "empty DSN",
			mutate: func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int) {
				*dsn = ""
			},
			errContains: "database DSN",
		},
		{
			name: "zero TTL",
			mutate: func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int) {
				*ttl = 0
			},
			errContains: "cache TTL",
		},
		{
			name: "zero RPS",
			mutate: func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int) {
				*rps = 0
			},
			errContains: "rate limit RPS",
		},
		{
			name: "zero burst",
			mutate: func(port, serverURL, driver, dsn *string, ttl *time.Duration, rps *float64, burst *int) {
				*burst = 0
			},
			errContains: "rate limit burst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port, serverURL, driver, dsn := "8080", "http://localhost:8080", DriverSQLite, "file:catalog.db"
			ttl := time.Hour
			rps := 10.0
			burst := 20

			tt.mutate(&port, &serverURL, &driver, &dsn, &ttl, &rps, &burst)

			cfg, err := New(port, serverURL, driver, dsn, ttl, rps, burst, "development", "info")
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}
