package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := New()
	v.Set("auth.jwtSecret", "secret")

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
	assert.Equal(t, "Matches", cfg.MatchesTable)
	assert.Equal(t, uint(3), cfg.MirrorMaxTries)
	assert.Equal(t, time.Duration(0), cfg.ReconcileInterval)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TOUCHLINE_STORAGE_BACKEND", "dynamodb")
	t.Setenv("TOUCHLINE_AUTH_JWTSECRET", "from-env")
	t.Setenv("TOUCHLINE_RECONCILE_INTERVAL", "5m")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, BackendDynamoDB, cfg.StorageBackend)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "touchline.yaml")
	contents := "port: \"9090\"\nauth:\n  jwtSecret: file-secret\ntables:\n  matches: MatchesDev\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "file-secret", cfg.JWTSecret)
	assert.Equal(t, "MatchesDev", cfg.MatchesTable)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{Port: "8080", StorageBackend: BackendMemory, JWTSecret: "s", MirrorMaxTries: 3}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "postgres" }, wantErr: "unknown storage backend"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "jwtSecret"},
		{name: "negative interval", mutate: func(c *Config) { c.ReconcileInterval = -time.Second }, wantErr: "reconcile.interval"},
		{name: "zero mirror tries", mutate: func(c *Config) { c.MirrorMaxTries = 0 }, wantErr: "mirror.maxTries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
