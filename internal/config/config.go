// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/contentheight/internal/estimator"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Estimation() EstimationConfig

	// Estimation Setters
	SetEstimationPreset(string)
	SetEstimationMaxDepth(int)
	SetEstimationConcurrency(int)

	// Browser Setters
	SetBrowserHeadless(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	BrowserCfg    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
	EstimationCfg EstimationConfig `mapstructure:"estimation" yaml:"estimation"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig         { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig       { return c.BrowserCfg }
func (c *Config) Estimation() EstimationConfig { return c.EstimationCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetEstimationPreset(p string)    { c.EstimationCfg.Preset = p }
func (c *Config) SetEstimationMaxDepth(d int)    { c.EstimationCfg.MaxDepth = &d }
func (c *Config) SetEstimationConcurrency(n int) { c.EstimationCfg.Concurrency = n }
func (c *Config) SetBrowserHeadless(b bool)      { c.BrowserCfg.Headless = b }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the headless browser used to capture snapshots.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	UserAgent         string         `mapstructure:"user_agent" yaml:"user_agent"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	CaptureTimeout    time.Duration  `mapstructure:"capture_timeout" yaml:"capture_timeout"`
	PostLoadWait      time.Duration  `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	SnapshotDir       string         `mapstructure:"snapshot_dir" yaml:"snapshot_dir"`

	// NavigationRate caps page loads per second within a session. 0 disables the cap.
	NavigationRate float64 `mapstructure:"navigation_rate" yaml:"navigation_rate"`
}

// ViewportConfig is the browser window size in CSS pixels.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// EstimationConfig selects a preset and optional per-field overrides. Unset
// overrides (nil) keep the preset's value.
type EstimationConfig struct {
	Preset          string   `mapstructure:"preset" yaml:"preset"`
	MaxDepth        *int     `mapstructure:"max_depth" yaml:"max_depth"`
	IncludeMargins  *bool    `mapstructure:"include_margins" yaml:"include_margins"`
	IncludePadding  *bool    `mapstructure:"include_padding" yaml:"include_padding"`
	UseScrollHeight *bool    `mapstructure:"use_scroll_height" yaml:"use_scroll_height"`
	LayoutTypes     []string `mapstructure:"layout_types" yaml:"layout_types"`

	// Concurrency bounds how many selectors are estimated at once.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// Options converts the overrides into estimator options layered on the preset.
func (e EstimationConfig) Options() (estimator.Options, error) {
	name := e.Preset
	if name == "" {
		name = estimator.PresetStandard
	}
	base, ok := estimator.Preset(name)
	if !ok {
		return estimator.Options{}, fmt.Errorf("unknown estimation preset %q (known: %s)", name, strings.Join(estimator.PresetNames(), ", "))
	}
	return base.Merge(estimator.Options{
		MaxDepth:        e.MaxDepth,
		IncludeMargins:  e.IncludeMargins,
		IncludePadding:  e.IncludePadding,
		UseScrollHeight: e.UseScrollHeight,
		LayoutTypes:     e.LayoutTypes,
	}), nil
}

// Resolve produces the complete estimator configuration.
func (e EstimationConfig) Resolve() (estimator.Config, error) {
	opts, err := e.Options()
	if err != nil {
		return estimator.Config{}, err
	}
	return estimator.Resolve(opts), nil
}

// Validate checks the estimation settings.
func (e *EstimationConfig) Validate() error {
	cfg, err := e.Resolve()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if e.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	return nil
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "contentheight")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport.width", 1280)
	v.SetDefault("browser.viewport.height", 800)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.capture_timeout", "10s")
	v.SetDefault("browser.post_load_wait", "500ms")
	v.SetDefault("browser.snapshot_dir", "~/.contentheight/snapshots")
	v.SetDefault("browser.navigation_rate", 1.0)

	// -- Estimation --
	v.SetDefault("estimation.preset", estimator.PresetStandard)
	v.SetDefault("estimation.concurrency", 4)
}

// EnvPrefix is prepended to environment variable overrides, e.g.
// CONTENTHEIGHT_ESTIMATION_PRESET=fast.
const EnvPrefix = "CONTENTHEIGHT"

// estimationOverrideKeys have no default, so AutomaticEnv alone never
// surfaces them to Unmarshal. Giving them defaults would clobber the preset.
var estimationOverrideKeys = []string{
	"estimation.max_depth",
	"estimation.include_margins",
	"estimation.include_padding",
	"estimation.use_scroll_height",
	"estimation.layout_types",
}

// BindEnv makes every configuration key overridable from the environment.
// List values such as CONTENTHEIGHT_ESTIMATION_LAYOUT_TYPES are comma separated.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range estimationOverrideKeys {
		// BindEnv only errors when called without a key.
		_ = v.BindEnv(key)
	}
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves "~" in file system settings.
func (c *Config) expandPaths() error {
	var err error
	if c.LoggerCfg.LogFile, err = homedir.Expand(c.LoggerCfg.LogFile); err != nil {
		return fmt.Errorf("logger.log_file: %w", err)
	}
	if c.BrowserCfg.SnapshotDir, err = homedir.Expand(c.BrowserCfg.SnapshotDir); err != nil {
		return fmt.Errorf("browser.snapshot_dir: %w", err)
	}
	if c.BrowserCfg.ExecPath, err = homedir.Expand(c.BrowserCfg.ExecPath); err != nil {
		return fmt.Errorf("browser.exec_path: %w", err)
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.BrowserCfg.Viewport.Width <= 0 || c.BrowserCfg.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport width and height must be positive")
	}
	if c.BrowserCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.BrowserCfg.CaptureTimeout <= 0 {
		return fmt.Errorf("browser.capture_timeout must be a positive duration")
	}
	if c.BrowserCfg.NavigationRate < 0 {
		return fmt.Errorf("browser.navigation_rate must not be negative")
	}
	if err := c.EstimationCfg.Validate(); err != nil {
		return fmt.Errorf("estimation configuration invalid: %w", err)
	}
	return nil
}
