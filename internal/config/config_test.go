package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"ENV", "DB_DRIVER", "DB_HOST", "DB_DATABASE", "DB_NAME", "DB_USER",
	"DB_PASSWORD", "DB_PORT", "DB_SSLMODE", "STORAGE_PATH", "HOST", "PORT", "RELOAD",
}

// clearEnv unsets every key Load reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, Database{
		Driver:  DriverPostgres,
		Host:    "localhost",
		Name:    "postgres",
		User:    "postgres",
		Port:    5432,
		SSLMode: "disable",
		Path:    "storage/persons.db",
	}, cfg.Database)
	assert.Equal(t, "0.0.0.0", cfg.HTTPServer.Host)
	assert.Equal(t, 8000, cfg.HTTPServer.Port)
	assert.True(t, cfg.HTTPServer.ReloadEnabled())
	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPServer.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "people")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("RELOAD", "False")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "people", cfg.Database.Name)
	assert.Equal(t, "app", cfg.Database.User)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "127.0.0.1:9090", cfg.HTTPServer.Addr())
	assert.False(t, cfg.HTTPServer.ReloadEnabled())
}

func TestDatabaseNamePrefersDBDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_NAME", "from_name")
	t.Setenv("DB_DATABASE", "from_database")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from_database", cfg.Database.Name)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestLoadYAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
database:
  driver: sqlite
  storage_path: /tmp/persons.db
http_server:
  host: localhost
  port: 8082
  reload: "false"
`), 0o600))
	t.Setenv("PORT", "8083")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/persons.db", cfg.Database.Path)
	assert.Equal(t, "localhost:8083", cfg.HTTPServer.Addr())
	assert.False(t, cfg.HTTPServer.ReloadEnabled())
}

func TestDSNEscapesCredentials(t *testing.T) {
	d := Database{
		Host:     "db",
		Name:     "people",
		User:     "app",
		Password: "p@ss/word",
		Port:     5432,
		SSLMode:  "require",
	}

	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/people?sslmode=require", d.DSN())
}

func TestReloadEnabled(t *testing.T) {
	for value, want := range map[string]bool{
		"true": true, "True": true, "TRUE": true,
		"false": false, "1": false, "yes": false, "": false,
	} {
		assert.Equal(t, want, HTTPServer{Reload: value}.ReloadEnabled(), value)
	}
}

func TestAddrIPv6(t *testing.T) {
	assert.Equal(t, "[::]:8000", HTTPServer{Host: "::", Port: 8000}.Addr())
}
