package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Seeds         []string            `yaml:"seeds"`
	BaseURL       string              `yaml:"base_url"`
	Cookie        string              `yaml:"cookie"`
	CookieDomain  string              `yaml:"cookie_domain"`
	Rod           RodConfig           `yaml:"rod"`
	Scroll        ScrollConfig        `yaml:"scroll"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	SelectorsFile string              `yaml:"selectors_file"`
	Date          DateConfig          `yaml:"date"`
	Normalize     NormalizeConfig     `yaml:"normalize"`
	Storage       StorageConfig       `yaml:"storage"`
	Cards         CardsConfig         `yaml:"cards"`
	HTTP          HTTPConfig          `yaml:"http"`
	Hot           HotConfig           `yaml:"hot"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type RodConfig struct {
	ChromePath         string `yaml:"chrome_path"`
	Headless           bool   `yaml:"headless"`
	NavigationTimeoutS int    `yaml:"navigation_timeout_s"`
	NetworkIdleMS      int    `yaml:"network_idle_ms"`
	RenderTimeoutS     int    `yaml:"render_timeout_s"`
	ElementTimeoutS    int    `yaml:"element_timeout_s"`
	DetailSettleMS     int    `yaml:"detail_settle_ms"`
	CloseTimeoutS      int    `yaml:"close_timeout_s"`
}

type ScrollConfig struct {
	Iterations    int `yaml:"iterations"`
	MinDistancePX int `yaml:"min_distance_px"`
	MaxDistancePX int `yaml:"max_distance_px"`
	MinSettleMS   int `yaml:"min_settle_ms"`
	MaxSettleMS   int `yaml:"max_settle_ms"`
}

type RateLimitConfig struct {
	RPM   int `yaml:"rpm"`
	Burst int `yaml:"burst"`
}

type PipelineConfig struct {
	SkipStoredLinks bool `yaml:"skip_stored_links"`
}

type DateConfig struct {
	SourceTimezone string `yaml:"source_timezone"`
	LegacyOffset   bool   `yaml:"legacy_offset"`
}

type NormalizeConfig struct {
	StripSelectors []string `yaml:"strip_selectors"`
	TrimNBSP       bool     `yaml:"trim_nbsp"`
	CollapseSpaces bool     `yaml:"collapse_spaces"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver"`
	DSN              string `yaml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms"`
}

type CardsConfig struct {
	Limit     int    `yaml:"limit"`
	OutputDir string `yaml:"output_dir"`
	Title     string `yaml:"title"`
}

// HTTPConfig drives the plain HTTP client used for pages that need no rendering.
type HTTPConfig struct {
	UserAgent           string `yaml:"user_agent"`
	AcceptLanguage      string `yaml:"accept_language"`
	ConnectTimeoutMS    int    `yaml:"connect_timeout_ms"`
	TotalTimeoutMS      int    `yaml:"total_timeout_ms"`
	MaxRetries          int    `yaml:"max_retries"`
	BackoffMinMS        int    `yaml:"backoff_min_ms"`
	BackoffMaxMS        int    `yaml:"backoff_max_ms"`
	JitterPct           int    `yaml:"jitter_pct"`
	RPM                 int    `yaml:"rpm"`
	Burst               int    `yaml:"burst"`
	RespectRobots       bool   `yaml:"respect_robots"`
	RobotsCacheTTLHours int    `yaml:"robots_cache_ttl_hours"`
}

type HotConfig struct {
	URL       string `yaml:"url"`
	BaseURL   string `yaml:"base_url"`
	OutputDir string `yaml:"output_dir"`
	Store     bool   `yaml:"store"`
}

type ObservabilityConfig struct {
	LogPath    string `yaml:"log_path"`
	LogLevel   string `yaml:"log_level"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Validation
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return fmt.Errorf("seeds must contain at least one URL")
	}
	for i, seed := range c.Seeds {
		u, err := url.Parse(seed)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("seeds[%d] is not an absolute URL: %q", i, seed)
		}
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.CookieDomain == "" {
		return fmt.Errorf("cookie_domain is required")
	}
	if c.Rod.NavigationTimeoutS <= 0 {
		return fmt.Errorf("rod.navigation_timeout_s must be > 0")
	}
	if c.Rod.NetworkIdleMS <= 0 {
		return fmt.Errorf("rod.network_idle_ms must be > 0")
	}
	if c.Rod.RenderTimeoutS <= 0 {
		return fmt.Errorf("rod.render_timeout_s must be > 0")
	}
	if c.Rod.ElementTimeoutS <= 0 {
		return fmt.Errorf("rod.element_timeout_s must be > 0")
	}
	if c.Rod.DetailSettleMS < 0 {
		return fmt.Errorf("rod.detail_settle_ms must be >= 0")
	}
	if c.Rod.CloseTimeoutS <= 0 {
		return fmt.Errorf("rod.close_timeout_s must be > 0")
	}
	if c.Scroll.Iterations < 0 || c.Scroll.Iterations > 500 {
		return fmt.Errorf("scroll.iterations must be between 0 and 500")
	}
	if c.Scroll.MinDistancePX <= 0 || c.Scroll.MinDistancePX > c.Scroll.MaxDistancePX {
		return fmt.Errorf("scroll.min_distance_px must be > 0 and <= scroll.max_distance_px")
	}
	if c.Scroll.MinSettleMS < 0 || c.Scroll.MinSettleMS > c.Scroll.MaxSettleMS {
		return fmt.Errorf("scroll.min_settle_ms must be >= 0 and <= scroll.max_settle_ms")
	}
	if c.RateLimit.RPM <= 0 {
		return fmt.Errorf("rate_limit.rpm must be > 0")
	}
	if c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit.burst must be >= 0")
	}
	if _, err := c.SourceLocation(); err != nil {
		return fmt.Errorf("date.source_timezone: %w", err)
	}
	switch c.Storage.Driver {
	case "mssql", "postgres", "sqlite":
	default:
		return fmt.Errorf("storage.driver must be 'mssql', 'postgres' or 'sqlite'")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn is required")
	}
	if c.Storage.CommandTimeoutMS <= 0 {
		return fmt.Errorf("storage.command_timeout_ms must be > 0")
	}
	if c.Cards.Limit <= 0 {
		return fmt.Errorf("cards.limit must be > 0")
	}
	if err := c.validateHTTP(); err != nil {
		return err
	}
	for name, raw := range map[string]string{"hot.url": c.Hot.URL, "hot.base_url": c.Hot.BaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s is not an absolute URL: %q", name, raw)
		}
	}
	if c.Hot.OutputDir == "" {
		return fmt.Errorf("hot.output_dir is required")
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("observability.log_level is required")
	}
	if c.Observability.LogPath == "" && !c.Observability.Console {
		return fmt.Errorf("observability.log_path is required when console logging is off")
	}
	return nil
}

func (c *Config) validateHTTP() error {
	h := c.HTTP
	if h.ConnectTimeoutMS <= 0 || h.TotalTimeoutMS <= 0 {
		return fmt.Errorf("http.connect_timeout_ms and http.total_timeout_ms must be > 0")
	}
	if h.ConnectTimeoutMS > h.TotalTimeoutMS {
		return fmt.Errorf("http.connect_timeout_ms must be <= http.total_timeout_ms")
	}
	if h.MaxRetries < 0 || h.MaxRetries > 10 {
		return fmt.Errorf("http.max_retries must be between 0 and 10")
	}
	if h.BackoffMinMS <= 0 || h.BackoffMinMS > h.BackoffMaxMS {
		return fmt.Errorf("http.backoff_min_ms must be > 0 and <= http.backoff_max_ms")
	}
	if h.JitterPct < 0 || h.JitterPct > 100 {
		return fmt.Errorf("http.jitter_pct must be between 0 and 100")
	}
	if h.RPM <= 0 {
		return fmt.Errorf("http.rpm must be > 0")
	}
	if h.RespectRobots && h.RobotsCacheTTLHours <= 0 {
		return fmt.Errorf("http.robots_cache_ttl_hours must be > 0 when http.respect_robots is on")
	}
	return nil
}

// SourceLocation resolves the timezone the source renders its dates in.
// An empty value or "UTC+8" yields a fixed +08:00 zone so no tzdata is needed.
func (c *Config) SourceLocation() (*time.Location, error) {
	switch c.Date.SourceTimezone {
	case "", "UTC+8":
		return time.FixedZone("UTC+8", 8*60*60), nil
	default:
		return time.LoadLocation(c.Date.SourceTimezone)
	}
}

// Getters
func (c *Config) GetNavigationTimeout() time.Duration {
	return time.Duration(c.Rod.NavigationTimeoutS) * time.Second
}

func (c *Config) GetNetworkIdle() time.Duration {
	return time.Duration(c.Rod.NetworkIdleMS) * time.Millisecond
}

func (c *Config) GetRenderTimeout() time.Duration {
	return time.Duration(c.Rod.RenderTimeoutS) * time.Second
}

func (c *Config) GetElementTimeout() time.Duration {
	return time.Duration(c.Rod.ElementTimeoutS) * time.Second
}

func (c *Config) GetDetailSettle() time.Duration {
	return time.Duration(c.Rod.DetailSettleMS) * time.Millisecond
}

func (c *Config) GetCloseTimeout() time.Duration {
	return time.Duration(c.Rod.CloseTimeoutS) * time.Second
}

func (c *Config) GetMinSettle() time.Duration {
	return time.Duration(c.Scroll.MinSettleMS) * time.Millisecond
}

func (c *Config) GetMaxSettle() time.Duration {
	return time.Duration(c.Scroll.MaxSettleMS) * time.Millisecond
}

func (c *Config) GetCommandTimeout() time.Duration {
	return time.Duration(c.Storage.CommandTimeoutMS) * time.Millisecond
}

func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.HTTP.ConnectTimeoutMS) * time.Millisecond
}

func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetBackoffMin() time.Duration {
	return time.Duration(c.HTTP.BackoffMinMS) * time.Millisecond
}

func (c *Config) GetBackoffMax() time.Duration {
	return time.Duration(c.HTTP.BackoffMaxMS) * time.Millisecond
}

func (c *Config) GetRobotsCacheTTL() time.Duration {
	return time.Duration(c.HTTP.RobotsCacheTTLHours) * time.Hour
}
