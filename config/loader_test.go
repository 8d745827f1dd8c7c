package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "blueprint.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// clearEnv blanks the overrides so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DATABASE_URL", "REDIS_ADDR", "BLUEPRINT_ADDR", "BLUEPRINT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoader_Defaults(t *testing.T) {
	clearEnv(t)
	l, err := NewLoader("")
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 256, cfg.Server.MaxSessions)
}

func TestLoader_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, t.TempDir(), `
server:
  addr: ":8081"
  shutdown_timeout: 3s
store:
  driver: redis
  redis:
    addr: "localhost:6379"
    ttl: 24h
log:
  level: debug
`)
	l, err := NewLoader(path)
	require.NoError(t, err)
	cfg := l.Config()

	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverRedis, cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoader_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/blueprint")
	t.Setenv("BLUEPRINT_LOG_LEVEL", "warn")

	l, err := NewLoader("")
	require.NoError(t, err)
	cfg := l.Config()
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/blueprint", cfg.Store.Postgres.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := NewLoader(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = NewLoader(writeConfig(t, dir, "server: [oops"))
	assert.Error(t, err)

	_, err = NewLoader(writeConfig(t, dir, "store:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "store.postgres.url")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	err := Validate(&Config{
		Store:  StoreConf{Driver: "sqlite"},
		Log:    LogConf{Level: "loud"},
		Server: ServerConf{MaxSessions: -1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver")
	assert.Contains(t, err.Error(), "log.level")
	assert.Contains(t, err.Error(), "server.max_sessions")
}

func TestLoader_ReloadNotifies(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "log:\n  level: info\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	var got *Config
	l.OnChange(func(c *Config) { got = c })

	writeConfig(t, dir, "log:\n  level: error\n")
	cfg, err := l.Reload()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	require.NotNil(t, got)
	assert.Equal(t, "error", got.Log.Level)
	assert.Equal(t, "error", l.Config().Log.Level)

	// An invalid file keeps the previous config.
	writeConfig(t, dir, "log:\n  level: nope\n")
	_, err = l.Reload()
	assert.Error(t, err)
	assert.Equal(t, "error", l.Config().Log.Level)
}

func TestLoader_Watch(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "log:\n  level: info\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	levels := make(chan string, 16)
	l.OnChange(func(c *Config) { levels <- c.Log.Level })

	stop, err := l.Watch(nil)
	require.NoError(t, err)
	defer stop()

	writeConfig(t, dir, "log:\n  level: debug\n")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case lvl := <-levels:
			if lvl == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestLoader_WatchWithoutFile(t *testing.T) {
	l, err := NewLoader("")
	require.NoError(t, err)
	stop, err := l.Watch(nil)
	require.NoError(t, err)
	stop()
}

// replaceConfig saves the way many editors do: write a temp file, then
// rename it over the config.
func replaceConfig(t *testing.T, dir, body string) {
	t.Helper()
	tmp := filepath.Join(dir, ".blueprint.yaml.swp")
	require.NoError(t, os.WriteFile(tmp, []byte(body), 0o600))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "blueprint.yaml")))
}

func TestLoader_WatchSurvivesRenameReplace(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeConfig(t, dir, "log:\n  level: info\n")
	l, err := NewLoader(path)
	require.NoError(t, err)

	levels := make(chan string, 16)
	l.OnChange(func(c *Config) { levels <- c.Log.Level })
	errs := make(chan error, 16)
	stop, err := l.Watch(func(err error) { errs <- err })
	require.NoError(t, err)
	defer stop()

	// Other files in the directory are ignored, even when invalid.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("log: [\n"), 0o600))

	waitFor := func(want string) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		for {
			select {
			case lvl := <-levels:
				if lvl == want {
					return
				}
			case <-deadline:
				t.Fatalf("level %q was not observed", want)
			}
		}
	}

	replaceConfig(t, dir, "log:\n  level: debug\n")
	waitFor("debug")
	replaceConfig(t, dir, "log:\n  level: warn\n")
	waitFor("warn")

	assert.Equal(t, "warn", l.Config().Log.Level)
	assert.Empty(t, errs)
}
