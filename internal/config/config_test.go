package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
seeds:
  - "https://weibo.com/hot/weibo/102803"
scroll:
  iterations: 5
  min_distance_px: 600
  max_distance_px: 1400
  min_settle_ms: 1500
  max_settle_ms: 4000
storage:
  driver: postgres
  dsn: "postgres://localhost/weibo"
  command_timeout_ms: 3000
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Scroll.Iterations)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, 3*time.Second, cfg.GetCommandTimeout())
	assert.Equal(t, "https://weibo.com", cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.GetNavigationTimeout())
	assert.Equal(t, 10, cfg.Cards.Limit)
	assert.Equal(t, "https://s.weibo.com/top/summary?cate=realtimehot", cfg.Hot.URL)
	assert.Equal(t, 5*time.Second, cfg.GetCloseTimeout())
	assert.Equal(t, 20*time.Second, cfg.GetTotalTimeout())
	assert.Equal(t, 3, cfg.HTTP.MaxRetries)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "seeds: [\n"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "seeds: []\n"))
	assert.ErrorContains(t, err, "seeds")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		EnvCookie:     "SUB=abc",
		EnvStorageDSN: "sqlserver://sa@localhost?database=weibo",
		EnvLogLevel:   "",
	}

	cfg.ApplyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})

	assert.Equal(t, "SUB=abc", cfg.Cookie)
	assert.Equal(t, "sqlserver://sa@localhost?database=weibo", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative seed", func(c *Config) { c.Seeds = []string{"/hot"} }, true},
		{"zero scroll iterations allowed", func(c *Config) { c.Scroll.Iterations = 0 }, false},
		{"unbounded scroll", func(c *Config) { c.Scroll.Iterations = 10000 }, true},
		{"inverted distance range", func(c *Config) { c.Scroll.MinDistancePX = 2000 }, true},
		{"inverted settle range", func(c *Config) { c.Scroll.MinSettleMS = 5000 }, true},
		{"no navigation timeout", func(c *Config) { c.Rod.NavigationTimeoutS = 0 }, true},
		{"no close timeout", func(c *Config) { c.Rod.CloseTimeoutS = 0 }, true},
		{"inverted backoff", func(c *Config) { c.HTTP.BackoffMinMS = 10000 }, true},
		{"connect above total", func(c *Config) { c.HTTP.ConnectTimeoutMS = 60000 }, true},
		{"too many retries", func(c *Config) { c.HTTP.MaxRetries = 50 }, true},
		{"zero http rpm", func(c *Config) { c.HTTP.RPM = 0 }, true},
		{"robots without ttl", func(c *Config) { c.HTTP.RespectRobots = true; c.HTTP.RobotsCacheTTLHours = 0 }, true},
		{"relative hot url", func(c *Config) { c.Hot.URL = "/top/summary" }, true},
		{"no hot output dir", func(c *Config) { c.Hot.OutputDir = "" }, true},
		{"zero rpm", func(c *Config) { c.RateLimit.RPM = 0 }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, true},
		{"empty dsn", func(c *Config) { c.Storage.DSN = "" }, true},
		{"bad timezone", func(c *Config) { c.Date.SourceTimezone = "Mars/Olympus" }, true},
		{"no log sink", func(c *Config) {
			c.Observability.LogPath = ""
			c.Observability.Console = false
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Seeds = []string{"https://weibo.com/hot"}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSourceLocation(t *testing.T) {
	cfg := Default()

	loc, err := cfg.SourceLocation()
	require.NoError(t, err)
	_, offset := time.Date(2022, 1, 27, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*60*60, offset)

	cfg.Date.SourceTimezone = ""
	loc, err = cfg.SourceLocation()
	require.NoError(t, err)
	_, offset = time.Date(2022, 1, 27, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, 8*60*60, offset)
}
