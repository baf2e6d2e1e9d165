package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  url: postgres://kalyana@localhost/kalyana?sslmode=disable
email:
  smtp_host: smtp.example.com
  smtp_user: bot@example.com
geocoding:
  cache_size: 32
telegram:
  chat_id: -1001
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "postgres://kalyana@localhost/kalyana?sslmode=disable", cfg.Database.DSN)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTPHost)
	require.Equal(t, "bot@example.com", cfg.Email.FromEmail, "from defaults to smtp user")
	require.Equal(t, 32, cfg.Geocoding.CacheSize)
	require.Equal(t, int64(-1001), cfg.Telegram.ChatID)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 587, cfg.Email.SMTPPort)
	require.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoding.BaseURL)
	require.Equal(t, "in", cfg.Geocoding.CountryCodes)
	require.Equal(t, 12*time.Second, cfg.Geocoding.Timeout())
	require.Equal(t, 256, cfg.Geocoding.CacheSize)
	require.Equal(t, 8.0, cfg.Matching.DefaultRadiusKm)
	require.Equal(t, 24*time.Hour, cfg.TokenTTL())
	require.Equal(t, "./files", cfg.Files.RootDir)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file
security:
  secret_key: from-file
`)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("SECRET_KEY", "from-env")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "postgres://env", cfg.Database.DSN)
	require.Equal(t, "from-env", cfg.Security.SecretKey)
	require.Equal(t, 2525, cfg.Email.SMTPPort)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not, a, map")
	_, err := LoadConfig(path)
	require.Error(t, err)
}
