package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// DelayRange bounds the randomized pause taken before a polite outbound query.
type DelayRange struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// DiscoveryConfig tunes the phone discovery pipeline.
type DiscoveryConfig struct {
	UserAgent       string `yaml:"user_agent"`
	SearchEngineURL string `yaml:"search_engine_url"`
	DirectoryURL    string `yaml:"directory_url"`

	ProbeTimeout   time.Duration `yaml:"probe_timeout"`
	PageTimeout    time.Duration `yaml:"page_timeout"`
	QueryTimeout   time.Duration `yaml:"query_timeout"`
	ContactTimeout time.Duration `yaml:"contact_timeout"`

	SearchDelay         DelayRange `yaml:"search_delay"`
	DirectoryDelay      DelayRange `yaml:"directory_delay"`
	DirectoryRetryDelay DelayRange `yaml:"directory_retry_delay"`

	ContactPaths []string `yaml:"contact_paths"`
}

// RegistryConfig points the registry client at BRREG.
type RegistryConfig struct {
	BaseURL  string
	PageSize int
	Timeout  time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port            string
	LogLevel        string
	RateLimitScrape RateLimitConfig
	Registry        RegistryConfig
	Discovery       DiscoveryConfig
}

// DefaultDiscovery returns the discovery settings used when nothing overrides them.
func DefaultDiscovery() DiscoveryConfig {
	return DiscoveryConfig{
		UserAgent:           "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		SearchEngineURL:     "https://www.google.com/search",
		DirectoryURL:        "https://www.gulesider.no/resultat",
		ProbeTimeout:        5 * time.Second,
		PageTimeout:         10 * time.Second,
		QueryTimeout:        15 * time.Second,
		ContactTimeout:      8 * time.Second,
		SearchDelay:         DelayRange{Min: 2 * time.Second, Max: 5 * time.Second},
		DirectoryDelay:      DelayRange{Min: time.Second, Max: 3 * time.Second},
		DirectoryRetryDelay: DelayRange{Min: 2 * time.Second, Max: 5 * time.Second},
		ContactPaths:        []string{"/kontakt", "/contact", "/om-oss", "/about", "/kontaktinfo", "/contact-info"},
	}
}

// Load reads configuration from environment variables and applies sane defaults.
// When DISCOVERY_CONFIG names a YAML file, its values override the discovery section.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Registry: RegistryConfig{
			BaseURL:  getEnv("BRREG_BASE_URL", "https://data.brreg.no/enhetsregisteret/api"),
			PageSize: parseInt(getEnv("BRREG_PAGE_SIZE", "1000"), 1000),
			Timeout:  parseDuration(getEnv("BRREG_TIMEOUT", "30s"), 30*time.Second),
		},
		Discovery: DefaultDiscovery(),
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SCRAPE", "20/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SCRAPE value: %w", err)
	}
	cfg.RateLimitScrape = rl

	d := &cfg.Discovery
	d.UserAgent = getEnv("USER_AGENT", d.UserAgent)
	d.SearchEngineURL = getEnv("SEARCH_ENGINE_URL", d.SearchEngineURL)
	d.DirectoryURL = getEnv("DIRECTORY_URL", d.DirectoryURL)

	for key, target := range map[string]*DelayRange{
		"DELAY_SEARCH":          &d.SearchDelay,
		"DELAY_DIRECTORY":       &d.DirectoryDelay,
		"DELAY_DIRECTORY_RETRY": &d.DirectoryRetryDelay,
	} {
		raw := getEnv(key, "")
		if raw == "" {
			continue
		}
		r, err := parseDelayRange(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value: %w", key, err)
		}
		*target = r
	}

	if path := getEnv("DISCOVERY_CONFIG", ""); path != "" {
		if err := overlayDiscovery(d, path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func overlayDiscovery(d *DiscoveryConfig, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read discovery config: %w", err)
	}
	// Decoding into the populated struct keeps every field the file leaves out.
	if err := yaml.Unmarshal(raw, d); err != nil {
		return fmt.Errorf("parse discovery config %s: %w", path, err)
	}
	if d.SearchDelay.Max < d.SearchDelay.Min || d.DirectoryDelay.Max < d.DirectoryDelay.Min ||
		d.DirectoryRetryDelay.Max < d.DirectoryRetryDelay.Min {
		return fmt.Errorf("discovery config %s: delay max must not be below min", path)
	}
	return nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

// parseDelayRange accepts "<min>-<max>" durations, e.g. "2s-5s", or a single fixed duration.
func parseDelayRange(value string) (DelayRange, error) {
	parts := strings.SplitN(value, "-", 2)
	lo, err := time.ParseDuration(strings.TrimSpace(parts[0]))
	if err != nil {
		return DelayRange{}, fmt.Errorf("invalid min delay: %w", err)
	}
	hi := lo
	if len(parts) == 2 {
		hi, err = time.ParseDuration(strings.TrimSpace(parts[1]))
		if err != nil {
			return DelayRange{}, fmt.Errorf("invalid max delay: %w", err)
		}
	}
	if lo < 0 || hi < lo {
		return DelayRange{}, fmt.Errorf("delay range %q is not ordered", value)
	}
	return DelayRange{Min: lo, Max: hi}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(input string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
