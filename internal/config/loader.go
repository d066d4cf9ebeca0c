package config

import (
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment overrides, typically supplied through a .env file.
const (
	EnvCookie     = "WEIBO_COOKIE"
	EnvStorageDSN = "WEIBO_STORAGE_DSN"
	EnvLogLevel   = "WEIBO_LOG_LEVEL"
)

func LoadConfig(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("Warning: failed to close config file: %v", closeErr)
		}
	}()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

// Default returns the values used for any key the YAML file leaves out.
func Default() *Config {
	return &Config{
		BaseURL:      "https://weibo.com",
		CookieDomain: ".weibo.com",
		Rod: RodConfig{
			Headless:           true,
			NavigationTimeoutS: 60,
			NetworkIdleMS:      1500,
			RenderTimeoutS:     15,
			ElementTimeoutS:    10,
			DetailSettleMS:     3000,
			CloseTimeoutS:      5,
		},
		Scroll: ScrollConfig{
			Iterations:    20,
			MinDistancePX: 600,
			MaxDistancePX: 1400,
			MinSettleMS:   1500,
			MaxSettleMS:   4000,
		},
		RateLimit: RateLimitConfig{
			RPM:   12,
			Burst: 1,
		},
		Date: DateConfig{
			SourceTimezone: "UTC+8",
		},
		Normalize: NormalizeConfig{
			StripSelectors: []string{"span.expand", "a.woo-box-flex[title='展开']"},
			TrimNBSP:       true,
			CollapseSpaces: true,
		},
		Storage: StorageConfig{
			Driver:           "sqlite",
			DSN:              "data/weibo.db",
			CommandTimeoutMS: 5000,
		},
		Cards: CardsConfig{
			Limit:     10,
			OutputDir: "output",
			Title:     "微博热点卡片展示",
		},
		HTTP: HTTPConfig{
			UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			AcceptLanguage:      "zh-CN,zh;q=0.9",
			ConnectTimeoutMS:    5000,
			TotalTimeoutMS:      20000,
			MaxRetries:          3,
			BackoffMinMS:        500,
			BackoffMaxMS:        8000,
			JitterPct:           20,
			RPM:                 30,
			Burst:               1,
			RobotsCacheTTLHours: 12,
		},
		Hot: HotConfig{
			URL:       "https://s.weibo.com/top/summary?cate=realtimehot",
			BaseURL:   "https://s.weibo.com",
			OutputDir: ".",
			Store:     true,
		},
		Observability: ObservabilityConfig{
			LogPath:    "logs/weibo-harvest.log",
			LogLevel:   "info",
			Console:    true,
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// ApplyEnv overrides secrets and deployment-specific values from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvCookie); ok && v != "" {
		c.Cookie = v
	}
	if v, ok := lookup(EnvStorageDSN); ok && v != "" {
		c.Storage.DSN = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Observability.LogLevel = v
	}
}
