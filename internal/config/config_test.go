package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		expectError bool
	}{
		{
			"missing port",
			Config{JWTSecret: "secret"},
			true,
		},
		{
			"missing jwt secret",
			Config{Port: "8473"},
			true,
		},
		{
			"development defaults pass",
			Config{Port: "8473", JWTSecret: "dev-secret", Env: "development"},
			false,
		},
		{
			"production rejects default jwt secret",
			Config{Port: "8473", JWTSecret: "your-secret-key-change-in-production", DBPassword: "strong", Env: "production"},
			true,
		},
		{
			"production rejects short jwt secret",
			Config{Port: "8473", JWTSecret: "short", DBPassword: "strong", Env: "production"},
			true,
		},
		{
			"production rejects default db password",
			Config{Port: "8473", JWTSecret: "secure-secret-at-least-32-chars-long", DBPassword: "password", Env: "production"},
			true,
		},
		{
			"production passes with strong values",
			Config{Port: "8473", JWTSecret: "secure-secret-at-least-32-chars-long", DBPassword: "strong-password", DBSSLMode: "require", Env: "production"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "8473", c.Port)
	assert.Equal(t, "localhost:6379", c.RedisURL)
	assert.Equal(t, "development", c.Env)
}
