package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-swipe-client/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.FromValues(nil)

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, 10, c.GetPageLimit())
	require.Equal(t, "/edit-profile", c.GetPostLoginRedirect())
	require.Equal(t, "http://localhost:8080/code_callback", c.GetRedirectURL())
	require.Equal(t, 30*time.Minute, c.GetMaxSessionAge())
	require.False(t, c.GetEnableRateLimiting())
	require.Empty(t, c.GetRedisAddr())
}

func TestPrecedence(t *testing.T) {
	c := config.FromValues(map[string]string{
		"API_URL":    "https://file.example.com/",
		"PAGE_LIMIT": "25",
		"PORT":       "9000",
	})

	t.Run("file value used when env unset", func(t *testing.T) {
		require.Equal(t, "https://file.example.com", c.GetAPIURL())
		require.Equal(t, 25, c.GetPageLimit())
	})

	t.Run("env wins over file", func(t *testing.T) {
		t.Setenv("PORT", ":7000")
		require.Equal(t, ":7000", c.GetPort())
	})

	t.Run("bad values fall back to defaults", func(t *testing.T) {
		t.Setenv("PAGE_LIMIT", "lots")
		t.Setenv("SESSION_IDLE_TIMEOUT", "soon")
		require.Equal(t, 10, c.GetPageLimit())
		require.Equal(t, 30*time.Minute, c.GetMaxSessionAge())
	})
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	origins := config.FromValues(nil).GetAllowedOrigins()

	require.True(t, origins.IsAllowedOrigin("https://a.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://c.example.com"))
}

func TestNew_ReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "swipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("API_URL: \"https://yaml.example.com\"\nAPI_RATE_LIMIT: \"5\"\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, "https://yaml.example.com", c.GetAPIURL())
	require.True(t, c.GetEnableRateLimiting())
	require.Equal(t, 5.0, c.GetAPIRateLimit())
}

func TestNew_RejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("API_URL: [unterminated"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := config.New()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse config file")
}
