package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_FLOAT", "0.5")
	t.Setenv("TEST_BOOL", "yes")
	t.Setenv("TEST_DUR", "250ms")
	t.Setenv("TEST_LIST", " a:53, ,b:53 ")

	assert.Equal(t, "value", GetEnv("TEST_STR", "x"))
	assert.Equal(t, "x", GetEnv("TEST_MISSING", "x"))
	assert.Equal(t, 42, GetEnvInt("TEST_INT", 1))
	assert.Equal(t, 1, GetEnvInt("TEST_BAD_INT", 1))
	assert.Equal(t, 0.5, GetEnvFloat("TEST_FLOAT", 1))
	assert.True(t, GetEnvBool("TEST_BOOL", false))
	assert.Equal(t, 250*time.Millisecond, GetEnvDuration("TEST_DUR", time.Second))
	assert.Equal(t, []string{"a:53", "b:53"}, GetEnvList("TEST_LIST", nil))
	assert.Equal(t, []string{"d"}, GetEnvList("TEST_MISSING", []string{"d"}))
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_PORT", "")
	t.Setenv("SCRAPE_WORKERS", "8")

	cfg := FromEnv()
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 8, cfg.Scrape.Workers)
	assert.Equal(t, DefaultUserAgent, cfg.Scrape.UserAgent)
	assert.True(t, cfg.Web.ExportEnabled)
}

func TestFromEnvWeb(t *testing.T) {
	t.Setenv("WEB_PORT", "9090")
	t.Setenv("WEB_API_KEY", "k")
	t.Setenv("WEB_EXPORT_ENABLED", "off")

	web := FromEnv().Web
	assert.Equal(t, 9090, web.Port)
	assert.Equal(t, "k", web.APIKey)
	assert.False(t, web.ExportEnabled)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("# comment\nDOTENV_ONLY=from-file\nDOTENV_SET=from-file\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("DOTENV_SET", "from-env")
	t.Setenv("DOTENV_ONLY", "")
	os.Unsetenv("DOTENV_ONLY")

	require.NoError(t, LoadEnv())
	assert.Equal(t, "from-file", os.Getenv("DOTENV_ONLY"))
	assert.Equal(t, "from-env", os.Getenv("DOTENV_SET"))
}
