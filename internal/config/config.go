package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"informe/internal/domain"
)

// Render modes for the PDF endpoint.
const (
	RenderModeContent  = "content"
	RenderModeNavigate = "navigate"
)

// Config is the complete service configuration.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
		// BaseURL is how the service addresses its own template endpoint.
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Limits struct {
		MaxBodyBytes int `yaml:"max_body_bytes"`
		MaxPDFBytes  int `yaml:"max_pdf_bytes"`
		// MaxURLBytes bounds request URLs, including the template URL built in navigate mode.
		MaxURLBytes  int `yaml:"max_url_bytes"`
	} `yaml:"limits"`

	PDF struct {
		TimeoutSecs     int           `yaml:"timeout_secs"`
		SettleTimeout   time.Duration `yaml:"settle_timeout"`
		ProbeTimeout    time.Duration `yaml:"probe_timeout"`
		QuietPeriod     time.Duration `yaml:"quiet_period"`
		RenderMode      string        `yaml:"render_mode"`
		VerifyOutput    bool          `yaml:"verify_output"`
		ChromePath      string        `yaml:"chrome_path"`
		ChromeNoSandbox bool          `yaml:"chrome_no_sandbox"`
		UserDataDir     string        `yaml:"user_data_dir"`
	} `yaml:"pdf"`

	Fonts struct {
		Primary  string `yaml:"primary"`
		Fallback string `yaml:"fallback"`
		Generic  string `yaml:"generic"`
	} `yaml:"fonts"`

	RateLimiter struct {
		Enabled  bool          `yaml:"enabled"`
		Max      int           `yaml:"max"`
		Interval time.Duration `yaml:"interval"`
	} `yaml:"rate_limiter"`

	Cache struct {
		RedisHost   string `yaml:"redis_host"`
		RateLimitDB int    `yaml:"redis_rate_db"`
	} `yaml:"cache"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Port = ":3000"
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 7
	cfg.Limits.MaxBodyBytes = 1 << 20
	cfg.Limits.MaxPDFBytes = 20 << 20
	cfg.Limits.MaxURLBytes = 64 << 10
	cfg.PDF.TimeoutSecs = 30
	cfg.PDF.SettleTimeout = 10 * time.Second
	cfg.PDF.ProbeTimeout = 10 * time.Second
	cfg.PDF.QuietPeriod = 200 * time.Millisecond
	cfg.PDF.RenderMode = RenderModeContent
	cfg.PDF.VerifyOutput = true
	cfg.Fonts.Primary = domain.DefaultFontSet.Primary
	cfg.Fonts.Fallback = domain.DefaultFontSet.Fallback
	cfg.Fonts.Generic = domain.DefaultFontSet.Generic
	cfg.RateLimiter.Max = 60
	cfg.RateLimiter.Interval = time.Minute
	return cfg
}

// Load reads the file named by CONFIG_PATH (default config.yaml). A missing
// default file yields Default() with environment overrides applied.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			applyEnv(&cfg)
			mustValidate(&cfg)
			return cfg
		}
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the YAML file at path. It panics when the file
// cannot be read or holds invalid values.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	applyEnv(&cfg)
	mustValidate(&cfg)
	return cfg
}

// applyEnv lets the container environment override the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Server.Port = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("CHROME_BIN"); v != "" && cfg.PDF.ChromePath == "" {
		cfg.PDF.ChromePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
}

func mustValidate(cfg *Config) {
	if err := cfg.Validate(); err != nil {
		panic("config: " + err.Error())
	}
}

// Validate checks the configuration and fills derived values such as the base URL.
func (cfg *Config) Validate() error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is empty")
	}
	if cfg.Server.BaseURL == "" {
		host := cfg.Server.Host
		if host == "" || host == "0.0.0.0" {
			host = "localhost"
		}
		cfg.Server.BaseURL = "http://" + host + cfg.Server.Port
	}
	u, err := url.Parse(cfg.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.base_url %q must be an absolute http(s) URL", cfg.Server.BaseURL)
	}
	if cfg.Limits.MaxBodyBytes <= 0 || cfg.Limits.MaxPDFBytes <= 0 || cfg.Limits.MaxURLBytes <= 0 {
		return errors.New("limits must be positive")
	}
	if cfg.PDF.TimeoutSecs <= 0 {
		return errors.New("pdf.timeout_secs must be positive")
	}
	if cfg.PDF.SettleTimeout <= 0 || cfg.PDF.ProbeTimeout <= 0 {
		return errors.New("pdf.settle_timeout and pdf.probe_timeout must be positive")
	}
	if cfg.PDF.QuietPeriod < 0 {
		return errors.New("pdf.quiet_period must not be negative")
	}
	switch cfg.PDF.RenderMode {
	case RenderModeContent, RenderModeNavigate:
	default:
		return fmt.Errorf("pdf.render_mode %q must be %q or %q", cfg.PDF.RenderMode, RenderModeContent, RenderModeNavigate)
	}
	for name, v := range map[string]string{
		"fonts.primary":  cfg.Fonts.Primary,
		"fonts.fallback": cfg.Fonts.Fallback,
		"fonts.generic":  cfg.Fonts.Generic,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is empty", name)
		}
		if strings.ContainsAny(v, `<>{};\`) {
			return fmt.Errorf("%s contains characters not allowed in a font name", name)
		}
	}
	if strings.ContainsAny(cfg.Fonts.Generic, `"' ,`) {
		return errors.New("fonts.generic must be a single generic family keyword")
	}
	if cfg.RateLimiter.Enabled && (cfg.RateLimiter.Max <= 0 || cfg.RateLimiter.Interval <= 0) {
		return errors.New("rate_limiter.max and rate_limiter.interval must be positive when enabled")
	}
	return nil
}

// FontSet returns the configured font policy.
func (cfg Config) FontSet() domain.FontSet {
	return domain.FontSet{
		Primary:  cfg.Fonts.Primary,
		Fallback: cfg.Fonts.Fallback,
		Generic:  cfg.Fonts.Generic,
	}
}

// RenderTimeout bounds a whole PDF conversion.
func (cfg Config) RenderTimeout() time.Duration {
	return time.Duration(cfg.PDF.TimeoutSecs) * time.Second
}
