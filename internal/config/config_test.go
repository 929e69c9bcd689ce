package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentFallsBackToDevSecret(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, "admin-token", cfg.Auth.CookieName)
	assert.False(t, cfg.App.SecureCookies())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_ProductionRejectsDevSecret(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("AUTH_JWT_SECRET", DevJWTSecret)

	_, err := Load()

	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "a-long-random-secret")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "90")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.App.SecureCookies())
	assert.Equal(t, 90*time.Minute, cfg.Auth.TokenTTL())
}

func TestAppConfig_SecureCookies(t *testing.T) {
	for _, env := range []string{"production", "prod", "staging", "PRODUCTION"} {
		assert.True(t, AppConfig{Env: env}.SecureCookies(), env)
	}
	for _, env := range []string{"development", "dev", "local", "test"} {
		assert.False(t, AppConfig{Env: env}.SecureCookies(), env)
	}
}

func TestAppConfig_Addr(t *testing.T) {
	app := AppConfig{Host: "127.0.0.1", Port: "9000"}
	assert.Equal(t, "127.0.0.1:9000", app.Addr())
}
