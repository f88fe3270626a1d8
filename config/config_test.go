package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPort(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{name: "unset", env: "", want: 8080},
		{name: "valid", env: "9090", want: 9090},
		{name: "not a number", env: "abc", want: 8080},
		{name: "out of range", env: "70000", want: 8080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DISPATCH_PORT", tt.env)
			assert.Equal(t, tt.want, GetPort())
		})
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("DISPATCH_DEBUG", "")
	t.Setenv("DISPATCH_LOG_LEVEL", "")
	assert.Equal(t, Info, GetLogLevel())

	t.Setenv("DISPATCH_LOG_LEVEL", "warn")
	assert.Equal(t, Warn, GetLogLevel())

	t.Setenv("DISPATCH_DEBUG", "true")
	assert.Equal(t, Debug, GetLogLevel())
}

func TestGetCacheType(t *testing.T) {
	t.Setenv("DISPATCH_CACHE", "REDIS")
	assert.Equal(t, CacheRedis, GetCacheType())

	t.Setenv("DISPATCH_CACHE", "whatever")
	assert.Equal(t, CacheMemory, GetCacheType())
}

func TestEmbeddedNameAndVersion(t *testing.T) {
	assert.Equal(t, "dispatch", GetName())
	assert.NotEmpty(t, GetVersion())
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DISPATCH_TEST_LOADENV=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DISPATCH_TEST_LOADENV") })

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("DISPATCH_TEST_LOADENV"))
}

func TestLoadDatabaseConfigDefaults(t *testing.T) {
	t.Setenv("DISPATCH_DB_TYPE", "")
	t.Setenv("DISPATCH_DB_FOLDER", "/tmp/dispatch-test")

	cfg, err := LoadDatabaseConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.IsSQLite())
	assert.Equal(t, "/tmp/dispatch-test/dispatch.db", cfg.GetDSN())
}

func TestLoadDatabaseConfigFromTOML(t *testing.T) {
	t.Setenv("DISPATCH_DB_TYPE", "")
	t.Setenv("DISPATCH_DB_PASSWORD", "secret")

	path := filepath.Join(t.TempDir(), "db.toml")
	content := `
type = "postgres"

[postgres]
host = "db.internal"
port = 5433
database = "fleet"
username = "fleet"
ssl_mode = "require"
time_zone = "UTC"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadDatabaseConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsPostgreSQL())
	assert.Equal(t,
		"host=db.internal user=fleet password=secret dbname=fleet port=5433 sslmode=require TimeZone=UTC",
		cfg.GetDSN())
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *DatabaseConfig)
		wantErr bool
	}{
		{name: "default sqlite", mutate: func(c *DatabaseConfig) {}},
		{name: "empty sqlite path", mutate: func(c *DatabaseConfig) { c.SQLite.Path = "" }, wantErr: true},
		{name: "postgres ok", mutate: func(c *DatabaseConfig) { c.Type = DatabaseTypePostgreSQL }},
		{name: "postgres bad port", mutate: func(c *DatabaseConfig) {
			c.Type = DatabaseTypePostgreSQL
			c.Postgres.Port = 0
		}, wantErr: true},
		{name: "unknown type", mutate: func(c *DatabaseConfig) { c.Type = "mongo" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultDatabaseConfig()
			tt.mutate(cfg)
			err := cfg.ValidateConfig()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
