package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SettleFixed  = "fixed"
	SettleStable = "stable"
)

type Config struct {
	Site    SiteConfig
	Crawl   CrawlConfig
	Browser BrowserConfig
	Output  OutputConfig
	Logging LoggingConfig
	Metrics MetricsConfig
	Redis   RedisConfig
}

type SiteConfig struct {
	BaseURL             string
	SearchInputSelector string
	ResultsSelector     string
	ProductLinkSelector string
}

type CrawlConfig struct {
	MaxPages        int
	ResultsTimeout  time.Duration
	ScrollStep      int
	ScrollInterval  time.Duration
	SettleDelay     time.Duration
	SettleMode      string
	StablePolls     int
	MaxSettlePolls  int
	ProductDelayMin time.Duration
	ProductDelayMax time.Duration
	ContinueOnError bool
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type OutputConfig struct {
	QueriesFile string
	Dir         string
	FilePattern string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Addr string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Site: SiteConfig{
			BaseURL:             getEnvOrDefault("SITE_BASE_URL", "https://www.ozon.ru"),
			SearchInputSelector: getEnvOrDefault("SITE_SEARCH_INPUT_SELECTOR", ".yz3.tsBody500Medium"),
			ResultsSelector:     getEnvOrDefault("SITE_RESULTS_SELECTOR", `div[data-widget="searchResultsV2"]`),
			ProductLinkSelector: getEnvOrDefault("SITE_PRODUCT_LINK_SELECTOR", `a[href*="/product/"]`),
		},
		Crawl: CrawlConfig{
			MaxPages:        getIntOrDefault("CRAWL_MAX_PAGES", 60),
			ResultsTimeout:  getDurationOrDefault("CRAWL_RESULTS_TIMEOUT", 10*time.Second),
			ScrollStep:      getIntOrDefault("CRAWL_SCROLL_STEP", 200),
			ScrollInterval:  getDurationOrDefault("CRAWL_SCROLL_INTERVAL", 100*time.Millisecond),
			SettleDelay:     getDurationOrDefault("CRAWL_SETTLE_DELAY", 5*time.Second),
			SettleMode:      getEnvOrDefault("CRAWL_SETTLE_MODE", SettleFixed),
			StablePolls:     getIntOrDefault("CRAWL_STABLE_POLLS", 3),
			MaxSettlePolls:  getIntOrDefault("CRAWL_MAX_SETTLE_POLLS", 50),
			ProductDelayMin: getDurationOrDefault("CRAWL_PRODUCT_DELAY_MIN", 0),
			ProductDelayMax: getDurationOrDefault("CRAWL_PRODUCT_DELAY_MAX", 0),
			ContinueOnError: getBoolOrDefault("CRAWL_CONTINUE_ON_ERROR", false),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", ""),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "ru-RU,ru;q=0.9,en;q=0.8"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Europe/Moscow"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "ru-RU"),
		},
		Output: OutputConfig{
			QueriesFile: getEnvOrDefault("OUTPUT_QUERIES_FILE", "search_queries.csv"),
			Dir:         getEnvOrDefault("OUTPUT_DIR", "."),
			FilePattern: getEnvOrDefault("OUTPUT_FILE_PATTERN", "results_%s.csv"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:scrape_runs"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("SITE_BASE_URL cannot be empty")
	}

	u, err := url.Parse(c.Site.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid SITE_BASE_URL: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("SITE_BASE_URL must include a host")
	}

	if c.Crawl.MaxPages < 1 {
		return fmt.Errorf("CRAWL_MAX_PAGES must be at least 1")
	}

	if c.Crawl.ScrollStep < 1 {
		return fmt.Errorf("CRAWL_SCROLL_STEP must be at least 1")
	}

	if c.Crawl.ResultsTimeout < 0 || c.Crawl.ScrollInterval < 0 || c.Crawl.SettleDelay < 0 {
		return fmt.Errorf("crawl durations cannot be negative")
	}

	if c.Crawl.SettleMode != SettleFixed && c.Crawl.SettleMode != SettleStable {
		return fmt.Errorf("CRAWL_SETTLE_MODE must be %q or %q", SettleFixed, SettleStable)
	}

	if c.Crawl.SettleMode == SettleStable && (c.Crawl.StablePolls < 1 || c.Crawl.MaxSettlePolls < c.Crawl.StablePolls) {
		return fmt.Errorf("CRAWL_MAX_SETTLE_POLLS must be at least CRAWL_STABLE_POLLS (>= 1)")
	}

	if c.Crawl.ProductDelayMin < 0 {
		return fmt.Errorf("CRAWL_PRODUCT_DELAY_MIN cannot be negative")
	}

	if c.Crawl.ProductDelayMin > c.Crawl.ProductDelayMax {
		return fmt.Errorf("CRAWL_PRODUCT_DELAY_MIN cannot be greater than CRAWL_PRODUCT_DELAY_MAX")
	}

	if !strings.Contains(c.Output.FilePattern, "%s") {
		return fmt.Errorf("OUTPUT_FILE_PATTERN must contain %%s for the keyword")
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
