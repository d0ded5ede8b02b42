package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "missing jwt secret fails",
			env:     map[string]string{"JWT_SECRET": ""},
			wantErr: true,
		},
		{
			name: "defaults",
			env:  map[string]string{"JWT_SECRET": "s3cret"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Port)
				assert.Equal(t, "production", cfg.AppEnv)
				assert.Equal(t, 100.0, cfg.SignupSilverCoins)
				assert.Equal(t, 0.0, cfg.SignupGoldCoins)
			},
		},
		{
			name: "env overrides and app env normalization",
			env: map[string]string{
				"JWT_SECRET":          "s3cret",
				"PORT":                "9090",
				"APP_ENV":             "Dev",
				"SIGNUP_SILVER_COINS": "250",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "9090", cfg.Port)
				assert.Equal(t, "development", cfg.AppEnv)
				assert.Equal(t, 250.0, cfg.SignupSilverCoins)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := LoadConfig()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestNormalizeEnv(t *testing.T) {
	assert.Equal(t, "development", normalizeEnv("local"))
	assert.Equal(t, "production", normalizeEnv("PROD"))
	assert.Equal(t, "staging", normalizeEnv(" stage "))
	assert.Equal(t, "custom", normalizeEnv("Custom"))
}
