package config

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "localhost:8080", cfg.Server.Addr())
	require.Equal(t, "https://app1.xuanyiy.cn/v1/products", cfg.Catalog.APIURL)
	require.Contains(t, cfg.Catalog.CheckoutURL, "{pid}")
	require.Zero(t, cfg.Catalog.MaxRetries)
	require.NotEqual(t, cfg.Catalog.APIURL, cfg.Catalog.ProxyCheckURL)
	require.Equal(t, 5, cfg.Catalog.ProxyCheckRate)
	require.False(t, cfg.Redis.Enabled())
	require.False(t, cfg.Database.Enabled())
	require.Equal(t, "CATALOG_SESSION", cfg.Session.CookieName)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9090
catalog:
  api_url: http://catalog.internal/v1/products
  proxies:
    - http://proxy-1:3128
redis:
  host: redis
database:
  host: postgres
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "http://catalog.internal/v1/products", cfg.Catalog.APIURL)
	require.Equal(t, []string{"http://proxy-1:3128"}, cfg.Catalog.Proxies)
	require.True(t, cfg.Redis.Enabled())
	require.Equal(t, 6379, cfg.Redis.Port)
	require.True(t, cfg.Database.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsBrokenConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unterminated"), 0o600))

	_, err := LoadFrom(dir)
	require.Error(t, err)
}

func TestConfigureLogger(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	require.NoError(t, ConfigureLogger(LogConfig{Level: "warn", Format: "json"}))
	require.Equal(t, log.WarnLevel, log.GetLevel())
	require.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	require.NoError(t, ConfigureLogger(LogConfig{Level: "info", Format: "text"}))
	require.Error(t, ConfigureLogger(LogConfig{Level: "loud"}))
	require.Error(t, ConfigureLogger(LogConfig{Level: "info", Format: "xml"}))
}
