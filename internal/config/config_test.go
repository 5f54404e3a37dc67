package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "credenciados.db", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(4), cfg.Store.MaxConns)
	assert.Equal(t, 3, cfg.Store.ConnectAttempts)
	assert.Equal(t, 10, cfg.Import.MaxDisplayErrors)
	assert.Equal(t, 0, cfg.Import.DefaultSheet)
	assert.True(t, cfg.Import.Latin1Fallback)
	assert.Equal(t, 60*time.Second, cfg.Fetch.Timeout())
	assert.InDelta(t, 5.0, cfg.Fetch.RateLimit, 0.001)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/credenciados
  max_conns: 8
import:
  max_display_errors: 25
  latin1_fallback: false
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/credenciados", cfg.Store.DatabaseURL)
	assert.Equal(t, int32(8), cfg.Store.MaxConns)
	assert.Equal(t, 25, cfg.Import.MaxDisplayErrors)
	assert.False(t, cfg.Import.Latin1Fallback)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Store.ConnectAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("CREDENCIADOS_STORE_DRIVER", "postgres")
	t.Setenv("CREDENCIADOS_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("CREDENCIADOS_IMPORT_MAX_DISPLAY_ERRORS", "3")
	t.Setenv("CREDENCIADOS_STORE_DATABASE_URL", "/data/rede.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Import.MaxDisplayErrors)
	assert.Equal(t, "/data/rede.db", cfg.Store.DatabaseURL)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

func validDefaults() *Config {
	return &Config{
		Store:  StoreConfig{Driver: "sqlite", DatabaseURL: "credenciados.db", MaxConns: 4, MinConns: 1},
		Import: ImportConfig{MaxDisplayErrors: 10},
		Fetch:  FetchConfig{TimeoutSecs: 60, RateLimit: 5},
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	assert.NoError(t, cfg.Validate("import"))
	assert.NoError(t, cfg.Validate("store"))
}

func TestValidate_StoreErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"
	cfg.Store.DatabaseURL = ""
	cfg.Store.MinConns = 10

	err := cfg.Validate("store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be postgres or sqlite")
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "store.min_conns must not exceed store.max_conns")
}

func TestValidate_ImportOnlyChecks(t *testing.T) {
	cfg := validDefaults()
	cfg.Import.MaxDisplayErrors = -1
	cfg.Fetch.RateLimit = 0

	assert.NoError(t, cfg.Validate("store"))

	err := cfg.Validate("import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import.max_display_errors must be >= 0")
	assert.Contains(t, err.Error(), "fetch.rate_limit must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
