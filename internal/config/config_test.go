package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-connect/internal/config"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	for _, v := range []string{"PORT", "ENV", "APP_URL", "SESSION_BACKEND", "PROVIDER_TIMEOUT", "STRICT_PROVIDER_ERRORS", "CORS_ALLOWED_ORIGINS", "COOKIE_SECRET"} {
		t.Setenv(v, "")
	}
	cfg := config.New()

	require.Equal(t, ":8080", cfg.GetPort())
	require.Equal(t, "DEV", cfg.GetEnv())
	require.True(t, cfg.IsDev())
	require.Equal(t, "http://localhost:8080", cfg.GetAppURL())
	require.Equal(t, config.SessionBackendMemory, cfg.GetSessionBackend())
	require.Equal(t, 15*time.Second, cfg.GetProviderTimeout())
	require.Equal(t, 3, cfg.GetFacebookRetryAttempts())
	require.Equal(t, 2*time.Second, cfg.GetFacebookRetryBaseDelay())
	require.False(t, cfg.GetStrictProviderErrors())
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
	require.GreaterOrEqual(t, len(cfg.GetCookieSecret()), config.MinCookieSecretLength)
	require.False(t, cfg.GetSecureCookies())
}

func TestConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("ENV", "PROD")
	t.Setenv("APP_URL", "https://connect.example.com/")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("STRICT_PROVIDER_ERRORS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("COOKIE_SECRET", "")
	t.Setenv("FACEBOOK_APP_ID", "fb-id")
	t.Setenv("FACEBOOK_APP_SECRET", "fb-secret")
	t.Setenv("INSTAGRAM_CLIENT_ID", "")
	t.Setenv("INSTAGRAM_CLIENT_SECRET", "")
	cfg := config.New()

	require.Equal(t, ":9000", cfg.GetPort())
	require.False(t, cfg.IsDev())
	require.Equal(t, "https://connect.example.com", cfg.GetAppURL())
	require.Equal(t, 5*time.Second, cfg.GetProviderTimeout())
	require.True(t, cfg.GetStrictProviderErrors())
	require.Len(t, cfg.GetAllowedOrigins(), 2)
	require.True(t, cfg.GetAllowedOrigins().IsAllowedOrigin("https://b.example.com"))
	require.Empty(t, cfg.GetCookieSecret())
	require.True(t, cfg.GetSecureCookies())
	require.Equal(t, config.ProviderCredentials{ClientID: "fb-id", ClientSecret: "fb-secret"}, cfg.GetInstagramCredentials())
}

func TestConfig_NonPositiveCountsFallBackToDefaults(t *testing.T) {
	for _, v := range []string{"-1", "0", "many"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("PROVIDER_BREAKER_FAILURES", v)
			t.Setenv("FACEBOOK_RETRY_ATTEMPTS", v)
			cfg := config.New()

			require.Equal(t, 5, cfg.GetBreakerFailureThreshold())
			require.Equal(t, 3, cfg.GetFacebookRetryAttempts())
		})
	}

	t.Setenv("PROVIDER_BREAKER_FAILURES", "8")
	require.Equal(t, 8, config.New().GetBreakerFailureThreshold())
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("TWITTER_CLIENT_ID=from-file\n"), 0o600))

	t.Setenv("TWITTER_CLIENT_ID", "")
	require.NoError(t, os.Unsetenv("TWITTER_CLIENT_ID"))
	require.NoError(t, config.LoadEnvFiles(filepath.Join(dir, "missing.env"), path))
	require.Equal(t, "from-file", config.New().GetTwitterCredentials().ClientID)
}
