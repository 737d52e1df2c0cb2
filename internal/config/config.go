// Package config loads the engine configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/philipparndt/takeoff/internal/keys"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config is the full engine configuration
type Config struct {
	Viewport ViewportConfig      `yaml:"viewport"`
	Drawing  DrawingConfig       `yaml:"drawing"`
	History  HistoryConfig       `yaml:"history"`
	Review   ReviewConfig        `yaml:"review"`
	Notices  NoticesConfig       `yaml:"notices"`
	Keys     map[string][]string `yaml:"keys"` // overrides of the default bindings
	Store    StoreConfig         `yaml:"store"`
	Log      LogConfig           `yaml:"log"`
}

// ViewportConfig holds zoom limits and fit behavior
type ViewportConfig struct {
	MinZoom   float64 `yaml:"min_zoom"`
	MaxZoom   float64 `yaml:"max_zoom"`
	FitMargin float64 `yaml:"fit_margin"`
	WheelStep float64 `yaml:"wheel_step"` // zoom factor per wheel notch
}

// DrawingConfig holds gesture tolerances, all in screen pixels
type DrawingConfig struct {
	CloseToStartRadius float64 `yaml:"close_to_start_radius"`
	DragThreshold      float64 `yaml:"drag_threshold"`
	HitTolerance       float64 `yaml:"hit_tolerance"`
	HandleRadius       float64 `yaml:"handle_radius"`
}

// HistoryConfig bounds the undo stack
type HistoryConfig struct {
	Limit int `yaml:"limit"`
}

// ReviewConfig holds the review mode defaults
type ReviewConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// NoticesConfig controls transient user notices
type NoticesConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Store drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// StoreConfig selects the persistence adapter
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Viewport: ViewportConfig{MinZoom: 0.1, MaxZoom: 10, FitMargin: 0.9, WheelStep: 1.1},
		Drawing:  DrawingConfig{CloseToStartRadius: 10, DragThreshold: 4, HitTolerance: 6, HandleRadius: 8},
		History:  HistoryConfig{Limit: 100},
		Review:   ReviewConfig{ConfidenceThreshold: 0.8},
		Notices:  NoticesConfig{TTL: 2500 * time.Millisecond},
		Store:    StoreConfig{Driver: DriverMemory, Path: "takeoff.db"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Bindings resolves the key table with the configured overrides
func (c Config) Bindings() (keys.Bindings, error) {
	return keys.NewBindings(c.Keys)
}

// Validate reports every problem found, wrapped in ErrInvalid
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	v := c.Viewport
	check(v.MinZoom > 0, "viewport.min_zoom must be positive, got %v", v.MinZoom)
	check(v.MaxZoom >= v.MinZoom, "viewport.max_zoom %v is below min_zoom %v", v.MaxZoom, v.MinZoom)
	check(v.FitMargin > 0 && v.FitMargin <= 1, "viewport.fit_margin must be in (0,1], got %v", v.FitMargin)
	check(v.WheelStep > 1, "viewport.wheel_step must be greater than 1, got %v", v.WheelStep)

	d := c.Drawing
	check(d.CloseToStartRadius >= 0, "drawing.close_to_start_radius must not be negative")
	check(d.DragThreshold >= 0, "drawing.drag_threshold must not be negative")
	check(d.HitTolerance >= 0, "drawing.hit_tolerance must not be negative")
	check(d.HandleRadius >= 0, "drawing.handle_radius must not be negative")

	check(c.History.Limit > 0, "history.limit must be positive, got %d", c.History.Limit)
	check(c.Review.ConfidenceThreshold >= 0 && c.Review.ConfidenceThreshold <= 1,
		"review.confidence_threshold must be in [0,1], got %v", c.Review.ConfidenceThreshold)
	check(c.Notices.TTL > 0, "notices.ttl must be positive, got %v", c.Notices.TTL)

	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		check(c.Store.Path != "", "store.path is required for the sqlite driver")
	default:
		check(false, "unknown store.driver %q", c.Store.Driver)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := c.Bindings(); err != nil {
		errs = append(errs, fmt.Errorf("keys: %w", err))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}
