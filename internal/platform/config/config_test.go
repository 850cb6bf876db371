package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "Current User", cfg.Service.DefaultActor)
	assert.Equal(t, 8086, cfg.Server.Port)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
service:
  name: recruitment
server:
  port: 9000
  shutdownTimeout: 3s
store:
  driver: postgres
roles:
  default: Chief Executive
  sections:
    Pharmacy: Medical Director
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "recruitment", cfg.Service.Name)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "Chief Executive", cfg.Roles.Default)
	assert.Equal(t, "Medical Director", cfg.Roles.Sections["Pharmacy"])
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	t.Setenv("HTTP_PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("HTTP_PORT", "")
	t.Setenv("STORE_DRIVER", "redis")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, Database: "hr", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/hr?sslmode=disable", d.DSN())
}
