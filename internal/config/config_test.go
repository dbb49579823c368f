package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "https://api.exa.ai", cfg.Exa.BaseURL)
	assert.Equal(t, "https://api.tavily.com", cfg.Tavily.BaseURL)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.InDelta(t, 2.0, cfg.Scout.RateLimit, 1e-9)
	assert.Equal(t, 90, cfg.Scout.LookbackDays)
	assert.True(t, cfg.Schedule.Verify)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EDGECITY_STORE_DRIVER", "sqlite")
	t.Setenv("EDGECITY_STORE_DATABASE_URL", "/tmp/leads.db")
	t.Setenv("EDGECITY_EXA_KEY", "exa-secret")
	t.Setenv("EDGECITY_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "/tmp/leads.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "exa-secret", cfg.Exa.Key)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		store   StoreConfig
		wantErr string
	}{
		{
			name:  "postgres_with_url",
			store: StoreConfig{Driver: "postgres", DatabaseURL: "postgres://localhost/leads"},
		},
		{
			name:    "postgres_missing_url",
			store:   StoreConfig{Driver: "postgres"},
			wantErr: "database_url",
		},
		{
			name:  "sqlite_with_path",
			store: StoreConfig{Driver: "sqlite", DatabaseURL: "leads.db"},
		},
		{
			name:    "sqlite_missing_path",
			store:   StoreConfig{Driver: "sqlite"},
			wantErr: "database_url",
		},
		{
			name:    "unknown_driver",
			store:   StoreConfig{Driver: "oracle"},
			wantErr: "unknown store driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: tt.store}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	require.Error(t, InitLogger(LogConfig{Level: "loud", Format: "json"}))
}
