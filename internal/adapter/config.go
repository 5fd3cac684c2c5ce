package adapter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/vista/internal/domain"
	"github.com/mmcdole/vista/internal/query"
	"github.com/mmcdole/vista/internal/viewport"
	"github.com/spf13/viper"
	"github.com/ygrebnov/errorc"
)

// SourceType identifies where the catalogue is loaded from
type SourceType string

const (
	SourceTypeHTTP   SourceType = "http"
	SourceTypeMemory SourceType = "memory"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds catalogue server configuration
type ServerConfig struct {
	Type    SourceType    `mapstructure:"type"` // "http" or "memory"
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`

	DemoItems   int           `mapstructure:"demo_items"`   // memory source size
	DemoLatency time.Duration `mapstructure:"demo_latency"` // memory source delay per fetch
}

// EngineConfig tunes the segmented query cache
type EngineConfig struct {
	SegmentSize int           `mapstructure:"segment_size"`
	QueryDelay  time.Duration `mapstructure:"query_delay"`
}

// ViewportConfig holds grid geometry
type ViewportConfig struct {
	Columns        int              `mapstructure:"columns"`
	AspectRatio    float64          `mapstructure:"aspect_ratio"`
	BufferRows     float64          `mapstructure:"buffer_rows"`
	MinUpdateDelta int              `mapstructure:"min_update_delta"`
	Padding        viewport.Padding `mapstructure:"padding"`
}

// CacheConfig controls the on-disk page cache
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Path    string        `mapstructure:"path"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Type:        SourceTypeMemory,
			Timeout:     30 * time.Second,
			DemoItems:   5000,
			DemoLatency: 150 * time.Millisecond,
		},
		Engine: EngineConfig{
			SegmentSize: query.DefaultSegmentSize,
			QueryDelay:  query.DefaultQueryDelay,
		},
		Viewport: ViewportConfig{
			Columns:        4,
			AspectRatio:    5,
			BufferRows:     2,
			MinUpdateDelta: 1,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    filepath.Join(defaultCachePath(), "pages.db"),
			TTL:     24 * time.Hour,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vista", "vista.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vista", "vista.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vista")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "vista")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "vista", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vista", "cache")
	}
}

// LoadConfig loads configuration from the OS config directory, the working
// directory and VISTA_* environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(defaultConfigPath(), ".")
}

// LoadConfigFrom loads config.yaml from the first of dirs that has one.
// A missing file is not an error.
func LoadConfigFrom(dirs ...string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper instance seeded with every key of cfg, so that
// environment overrides apply even when no file sets the key
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("VISTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range cfg.settings() {
		v.SetDefault(key, value)
	}
	return v
}

// settings flattens cfg into snake_case viper keys
func (c *Config) settings() map[string]any {
	return map[string]any{
		"server.type":               string(c.Server.Type),
		"server.url":                c.Server.URL,
		"server.token":              c.Server.Token,
		"server.timeout":            c.Server.Timeout,
		"server.demo_items":         c.Server.DemoItems,
		"server.demo_latency":       c.Server.DemoLatency,
		"engine.segment_size":       c.Engine.SegmentSize,
		"engine.query_delay":        c.Engine.QueryDelay,
		"viewport.columns":          c.Viewport.Columns,
		"viewport.aspect_ratio":     c.Viewport.AspectRatio,
		"viewport.buffer_rows":      c.Viewport.BufferRows,
		"viewport.min_update_delta": c.Viewport.MinUpdateDelta,
		"viewport.padding.top":      c.Viewport.Padding.Top,
		"viewport.padding.bottom":   c.Viewport.Padding.Bottom,
		"viewport.padding.left":     c.Viewport.Padding.Left,
		"viewport.padding.right":    c.Viewport.Padding.Right,
		"cache.enabled":             c.Cache.Enabled,
		"cache.path":                c.Cache.Path,
		"cache.ttl":                 c.Cache.TTL,
		"logging.file":              c.Logging.File,
		"logging.level":             c.Logging.Level,
	}
}

// Validate rejects values the engine cannot work with. Errors wrap
// domain.ErrInvalidConfig and carry the offending key.
func (c *Config) Validate() error {
	switch {
	case c.Server.Type != SourceTypeHTTP && c.Server.Type != SourceTypeMemory:
		return invalid("server.type", fmt.Sprintf("unknown server type %q", c.Server.Type))
	case c.Server.Type == SourceTypeHTTP && c.Server.URL == "":
		return invalid("server.url", "required for http sources")
	case c.Server.Type == SourceTypeMemory && c.Server.DemoItems < 0:
		return invalid("server.demo_items", "must not be negative")
	case c.Engine.SegmentSize <= 0:
		return invalid("engine.segment_size", "must be positive")
	case c.Engine.QueryDelay < 0:
		return invalid("engine.query_delay", "must not be negative")
	case c.Viewport.Columns <= 0:
		return invalid("viewport.columns", "must be positive")
	case c.Viewport.AspectRatio <= 0:
		return invalid("viewport.aspect_ratio", "must be positive")
	case c.Viewport.BufferRows < 0:
		return invalid("viewport.buffer_rows", "must not be negative")
	}
	return nil
}

func invalid(key, reason string) error {
	return errorc.With(domain.ErrInvalidConfig, errorc.String(key, reason))
}

// QueryOptions returns engine options for the configured cache
func (c *Config) QueryOptions() query.Options {
	opts := query.DefaultOptions()
	opts.SegmentSize = c.Engine.SegmentSize
	opts.QueryDelay = c.Engine.QueryDelay
	return opts
}

// GridConfig returns the viewport configuration for the catalogue grid
func (c *Config) GridConfig() viewport.GridConfig {
	return viewport.GridConfig{
		Padding:        c.Viewport.Padding,
		BufferRows:     c.Viewport.BufferRows,
		Columns:        c.Viewport.Columns,
		AspectRatio:    c.Viewport.AspectRatio,
		MinUpdateDelta: c.Viewport.MinUpdateDelta,
	}
}

// SaveConfig writes cfg as config.yaml into the OS config directory
func SaveConfig(cfg *Config) error {
	return SaveConfigTo(cfg, defaultConfigPath())
}

// SaveConfigTo writes cfg as config.yaml into dir
func SaveConfigTo(cfg *Config, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	for key, value := range cfg.settings() {
		v.Set(key, value)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
