package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `yaml:"is_prod"`

	// Backend API
	API APIConfig `yaml:"api"`

	// Session / token lifecycle
	Session SessionConfig `yaml:"session"`

	// Signals page defaults
	Signals SignalsConfig `yaml:"signals"`

	// Whale plays page defaults
	WhalePlays WhalePlaysConfig `yaml:"whale_plays"`

	// Terminal rendering
	Render RenderConfig `yaml:"render"`
}

// APIConfig holds backend connection configuration.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig holds token persistence and refresh configuration.
type SessionConfig struct {
	TokenStorePath  string        `yaml:"token_store_path"`
	RefreshInterval time.Duration `yaml:"refresh_interval"` // silent token refresh cadence
	Email           string        `yaml:"-"`                // env var only
	Password        string        `yaml:"-"`                // env var only
}

// SignalsConfig holds default signal list query values.
type SignalsConfig struct {
	Sport        string        `yaml:"sport"`       // "All" = no server-side filter
	DateFilter   string        `yaml:"date_filter"` // e.g. "this_week"
	Hours        int           `yaml:"hours"`
	PollInterval time.Duration `yaml:"poll_interval"` // dashboard re-fetch cadence
}

// WhalePlaysConfig holds default whale-plays query values.
type WhalePlaysConfig struct {
	PageSize int    `yaml:"page_size"`
	Status   string `yaml:"status"`
}

// RenderConfig controls console table output.
type RenderConfig struct {
	MaxRows  int  `yaml:"max_rows"`
	UseColor bool `yaml:"use_color"`
}

// Load builds a Config from environment variables. A .env file in the
// working directory is read first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		API: APIConfig{
			BaseURL: envString("WHALEDECK_API_URL", "http://localhost:8000"),
			Timeout: envDuration("WHALEDECK_API_TIMEOUT", 30*time.Second),
		},

		Session: SessionConfig{
			TokenStorePath:  envString("WHALEDECK_TOKEN_STORE", "whaledeck_tokens.db"),
			RefreshInterval: envDuration("WHALEDECK_REFRESH_INTERVAL", 10*time.Minute),
			Email:           envString("WHALEDECK_EMAIL", ""),
			Password:        envString("WHALEDECK_PASSWORD", ""),
		},

		Signals: SignalsConfig{
			Sport:        envString("WHALEDECK_SPORT", "All"),
			DateFilter:   envString("WHALEDECK_DATE_FILTER", "this_week"),
			Hours:        envInt("WHALEDECK_HOURS", 0),
			PollInterval: envDuration("WHALEDECK_POLL_INTERVAL", 1*time.Minute),
		},

		WhalePlays: WhalePlaysConfig{
			PageSize: envInt("WHALEDECK_PAGE_SIZE", 20),
			Status:   envString("WHALEDECK_STATUS", "open"),
		},

		Render: RenderConfig{
			MaxRows:  envInt("WHALEDECK_MAX_ROWS", 50),
			UseColor: envBoolDefault("WHALEDECK_COLOR", true),
		},
	}
}

// LoadFile layers a YAML config file under the environment: file values fill
// in anything the environment left at its default, env vars win on conflict.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}

	envCfg := Load()
	return merge(&fileCfg, envCfg), nil
}

// merge overlays env-derived values on the file config. Only fields the
// environment actually set (i.e. that differ from the built-in defaults)
// override the file.
func merge(fileCfg, envCfg *Config) *Config {
	defaults := defaultConfig()
	out := *fileCfg

	if envCfg.IsProd != defaults.IsProd {
		out.IsProd = envCfg.IsProd
	}
	if envCfg.API.BaseURL != defaults.API.BaseURL {
		out.API.BaseURL = envCfg.API.BaseURL
	}
	if envCfg.API.Timeout != defaults.API.Timeout {
		out.API.Timeout = envCfg.API.Timeout
	}
	if envCfg.Session.TokenStorePath != defaults.Session.TokenStorePath {
		out.Session.TokenStorePath = envCfg.Session.TokenStorePath
	}
	if envCfg.Session.RefreshInterval != defaults.Session.RefreshInterval {
		out.Session.RefreshInterval = envCfg.Session.RefreshInterval
	}
	// Credentials never come from the file.
	out.Session.Email = envCfg.Session.Email
	out.Session.Password = envCfg.Session.Password

	if envCfg.Signals.Sport != defaults.Signals.Sport {
		out.Signals.Sport = envCfg.Signals.Sport
	}
	if envCfg.Signals.DateFilter != defaults.Signals.DateFilter {
		out.Signals.DateFilter = envCfg.Signals.DateFilter
	}
	if envCfg.Signals.Hours != defaults.Signals.Hours {
		out.Signals.Hours = envCfg.Signals.Hours
	}
	if envCfg.Signals.PollInterval != defaults.Signals.PollInterval {
		out.Signals.PollInterval = envCfg.Signals.PollInterval
	}
	if envCfg.WhalePlays.PageSize != defaults.WhalePlays.PageSize {
		out.WhalePlays.PageSize = envCfg.WhalePlays.PageSize
	}
	if envCfg.WhalePlays.Status != defaults.WhalePlays.Status {
		out.WhalePlays.Status = envCfg.WhalePlays.Status
	}
	if envCfg.Render.MaxRows != defaults.Render.MaxRows {
		out.Render.MaxRows = envCfg.Render.MaxRows
	}
	if envCfg.Render.UseColor != defaults.Render.UseColor {
		out.Render.UseColor = envCfg.Render.UseColor
	}

	setDefaults(&out)
	return &out
}

// defaultConfig returns the built-in defaults with no environment applied.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			TokenStorePath:  "whaledeck_tokens.db",
			RefreshInterval: 10 * time.Minute,
		},
		Signals: SignalsConfig{
			Sport:        "All",
			DateFilter:   "this_week",
			PollInterval: 1 * time.Minute,
		},
		WhalePlays: WhalePlaysConfig{
			PageSize: 20,
			Status:   "open",
		},
		Render: RenderConfig{
			MaxRows:  50,
			UseColor: true,
		},
	}
}

// setDefaults fills zero values left by a sparse YAML file.
func setDefaults(cfg *Config) {
	d := defaultConfig()
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = d.API.BaseURL
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = d.API.Timeout
	}
	if cfg.Session.TokenStorePath == "" {
		cfg.Session.TokenStorePath = d.Session.TokenStorePath
	}
	if cfg.Session.RefreshInterval <= 0 {
		cfg.Session.RefreshInterval = d.Session.RefreshInterval
	}
	if cfg.Signals.Sport == "" {
		cfg.Signals.Sport = d.Signals.Sport
	}
	if cfg.Signals.DateFilter == "" {
		cfg.Signals.DateFilter = d.Signals.DateFilter
	}
	if cfg.Signals.PollInterval <= 0 {
		cfg.Signals.PollInterval = d.Signals.PollInterval
	}
	if cfg.WhalePlays.PageSize <= 0 {
		cfg.WhalePlays.PageSize = d.WhalePlays.PageSize
	}
	if cfg.WhalePlays.Status == "" {
		cfg.WhalePlays.Status = d.WhalePlays.Status
	}
	if cfg.Render.MaxRows <= 0 {
		cfg.Render.MaxRows = d.Render.MaxRows
	}
}

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}
