package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_MergesEnvironmentOverBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "db:\n  host: localhost\n  port: 5432\nserver:\n  port: \":8080\"\n")
	writeFile(t, dir, "staging.yaml", "db:\n  host: staging-db\n")

	merged, err := LoadConfig("staging", dir)
	require.NoError(t, err)

	db := merged["db"].(map[string]interface{})
	assert.Equal(t, "staging-db", db["host"])
	assert.Equal(t, 5432, db["port"])
	assert.Equal(t, ":8080", merged["server"].(map[string]interface{})["port"])
}

func TestLoadConfig_MissingEnvFileFallsBackToBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "app:\n  timezone: UTC\n")

	merged, err := LoadConfig("nope", dir)
	require.NoError(t, err)
	assert.Equal(t, "UTC", merged["app"].(map[string]interface{})["timezone"])
}

func TestLoadConfig_MissingBaseFails(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	require.Error(t, err)
}

func TestLoadConfig_Placeholders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "jwt:\n  secret: ${JWT_SECRET}\ndb:\n  password: ${DB_PASSWORD}\n  user: ${SAMPLEAPPS_UNSET_VAR}\n")
	writeFile(t, dir, "secrets.env", "# comment\nJWT_SECRET=\"from-file\"\n")
	t.Setenv("DB_PASSWORD", "from-env")

	merged, err := LoadConfig("", dir)
	require.NoError(t, err)

	assert.Equal(t, "from-file", merged["jwt"].(map[string]interface{})["secret"])
	db := merged["db"].(map[string]interface{})
	assert.Equal(t, "from-env", db["password"])
	assert.Equal(t, "${SAMPLEAPPS_UNSET_VAR}", db["user"])
}

func TestDecode(t *testing.T) {
	raw := map[string]interface{}{
		"host":           "db",
		"port":           6543,
		"slow_threshold": "250ms",
	}
	var cfg DBConfig
	require.NoError(t, Decode(raw, &cfg))
	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, "250ms", cfg.SlowThreshold.String())
}

func TestOverrideDBFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "envhost")
	t.Setenv("DB_PORT", "not-a-number")
	cfg := DBConfig{Host: "a", Port: 1}
	OverrideDBFromEnv(&cfg)
	assert.Equal(t, "envhost", cfg.Host)
	assert.Equal(t, 1, cfg.Port)
}

func TestAppConfigLocation(t *testing.T) {
	assert.Equal(t, "UTC", AppConfig{}.Location().String())
	assert.Equal(t, "UTC", AppConfig{Timezone: "Mars/Olympus"}.Location().String())
	assert.Equal(t, "Asia/Tokyo", AppConfig{Timezone: "Asia/Tokyo"}.Location().String())
}
