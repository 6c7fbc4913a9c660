package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test in an empty directory so no stray .env or
// config.json is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

var serverEnv = []string{"CONFIG", "SERVER_ADDRESS", "DATABASE_DSN", "LOG_LEVEL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "TOMBSTONE_RETENTION", "TLS_CERT_FILE", "TLS_KEY_FILE"}

func TestParseServer_Flags(t *testing.T) {
	chdirTemp(t)
	clearEnv(t, serverEnv...)

	opts, err := ParseServer([]string{"-a", ":9090", "-d", "postgres://db"})
	require.NoError(t, err)
	assert.Equal(t, ":9090", opts.Port)
	assert.Equal(t, "postgres://db", opts.DatabaseDSN)
	assert.Equal(t, float64(20), opts.RateLimitRPS)
	assert.Equal(t, Duration(30*24*time.Hour), opts.TombstoneRetention)
}

func TestParseServer_FileThenEnv(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t, serverEnv...)

	path := filepath.Join(dir, "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server_address": ":7000",
		"database_dsn": "postgres://file",
		"rate_limit_burst": 5,
		"cleanup_interval": "10m"
	}`), 0o600))
	t.Setenv("CONFIG", path)
	t.Setenv("SERVER_ADDRESS", ":7001")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	opts, err := ParseServer(nil)
	require.NoError(t, err)
	assert.Equal(t, ":7001", opts.Port, "environment wins over the file")
	assert.Equal(t, "postgres://file", opts.DatabaseDSN)
	assert.Equal(t, 5, opts.RateLimitBurst)
	assert.Equal(t, 2.5, opts.RateLimitRPS)
	assert.Equal(t, Duration(10*time.Minute), opts.CleanupInterval)
}

func TestParseServer_DotEnv(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t, serverEnv...)
	// godotenv does not override variables that are already set, even to "".
	require.NoError(t, os.Unsetenv("DATABASE_DSN"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_DSN=postgres://dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("DATABASE_DSN") })

	opts, err := ParseServer(nil)
	require.NoError(t, err)
	assert.Equal(t, "postgres://dotenv", opts.DatabaseDSN)
}

func TestParseServer_Errors(t *testing.T) {
	dir := chdirTemp(t)
	clearEnv(t, serverEnv...)

	_, err := ParseServer(nil)
	assert.Error(t, err, "DSN is required")

	t.Setenv("RATE_LIMIT_BURST", "lots")
	_, err = ParseServer([]string{"-d", "postgres://db"})
	assert.Error(t, err)

	clearEnv(t, "RATE_LIMIT_BURST")
	_, err = ParseServer([]string{"-d", "postgres://db", "-tls-cert", "server.crt"})
	assert.Error(t, err, "a certificate without a key is rejected")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o600))
	_, err = ParseServer([]string{"-d", "postgres://db", "-c", bad})
	assert.Error(t, err)
}

var clientEnv = []string{"CONFIG", "SERVER_URL", "SESSION_TOKEN", "BACKEND", "LOG_LEVEL", "REQUEST_TIMEOUT", "CA_FILE"}

func TestParseClient(t *testing.T) {
	chdirTemp(t)
	clearEnv(t, clientEnv...)
	t.Setenv("SESSION_TOKEN", "tok-1")

	opts, err := ParseClient([]string{"-backend", "memory", "-refresh", "0s", "-timeout", "3s"})
	require.NoError(t, err)
	assert.Equal(t, "memory", opts.Backend)
	assert.Equal(t, "tok-1", opts.Token)
	assert.Equal(t, "http://localhost:8080", opts.ServerURL)
	assert.Equal(t, Duration(0), opts.RefreshInterval)
	assert.Equal(t, Duration(3*time.Second), opts.RequestTimeout)
}

func TestParseClient_UnknownBackend(t *testing.T) {
	chdirTemp(t)
	clearEnv(t, clientEnv...)

	_, err := ParseClient([]string{"-backend", "carrier-pigeon"})
	assert.Error(t, err)
}
