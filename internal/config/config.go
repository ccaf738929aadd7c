// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/LimTec-de/dockapptoggler/internal/daemon"
	"github.com/LimTec-de/dockapptoggler/internal/usecase"
)

// Config is the on-disk daemon configuration. Durations are expressed in
// milliseconds so the file stays plain-integer TOML.
type Config struct {
	Dock     DockConfig     `toml:"dock"`
	Chooser  ChooserConfig  `toml:"chooser"`
	Windows  WindowsConfig  `toml:"windows"`
	Watchdog WatchdogConfig `toml:"watchdog"`
	Memory   MemoryConfig   `toml:"memory"`
}

// DockConfig tunes icon hit-testing.
type DockConfig struct {
	IconBandHeight     float64 `toml:"icon_band_height"`     // base icon strip height in points
	MagnificationScale float64 `toml:"magnification_scale"`  // worst-case magnification factor
	BandMargin         float64 `toml:"band_margin"`          // extra slack above the strip
}

// ChooserConfig tunes the hover chooser state machine.
type ChooserConfig struct {
	HoverDebounceMS    int     `toml:"hover_debounce_ms"`
	LeaveDebounceMS    int     `toml:"leave_debounce_ms"`
	DismissalMargin    float64 `toml:"dismissal_margin"`
	MinClickIntervalMS int     `toml:"min_click_interval_ms"`
	MenuSettleDelayMS  int     `toml:"menu_settle_delay_ms"`
	WindowListTTLMS    int     `toml:"window_list_ttl_ms"`
}

// WindowsConfig tunes window hide and restore behavior.
type WindowsConfig struct {
	RaiseSettleDelayMS int `toml:"raise_settle_delay_ms"`
	BatchSize          int `toml:"batch_size"`
	BatchDelayMS       int `toml:"batch_delay_ms"`
}

// WatchdogConfig tunes the liveness watchdogs.
type WatchdogConfig struct {
	LivenessWindowMS     int `toml:"liveness_window_ms"`
	SessionIdleTimeoutMS int `toml:"session_idle_timeout_ms"`
}

// MemoryConfig tunes the memory watchdog thresholds in MB.
type MemoryConfig struct {
	ElevatedMB float64 `toml:"elevated_mb"`
	CriticalMB float64 `toml:"critical_mb"`
	RestartMB  float64 `toml:"restart_mb"`
}

// DefaultConfig returns a Config mirroring the built-in defaults.
func DefaultConfig() *Config {
	hit := usecase.DefaultHitTesterConfig()
	ctrl := usecase.DefaultControllerConfig()
	win := usecase.DefaultWindowServiceConfig()
	ev := daemon.DefaultEventMonitorConfig()
	health := daemon.DefaultHealthConfig()

	return &Config{
		Dock: DockConfig{
			IconBandHeight:     hit.IconBandHeight,
			MagnificationScale: hit.MagnificationScale,
			BandMargin:         hit.BandMargin,
		},
		Chooser: ChooserConfig{
			HoverDebounceMS:    int(ctrl.HoverDebounce / time.Millisecond),
			LeaveDebounceMS:    int(ctrl.LeaveDebounce / time.Millisecond),
			DismissalMargin:    ctrl.DismissalMargin,
			MinClickIntervalMS: int(ctrl.MinClickInterval / time.Millisecond),
			MenuSettleDelayMS:  int(ctrl.MenuSettleDelay / time.Millisecond),
			WindowListTTLMS:    int(ctrl.WindowListTTL / time.Millisecond),
		},
		Windows: WindowsConfig{
			RaiseSettleDelayMS: int(win.RaiseSettleDelay / time.Millisecond),
			BatchSize:          win.BatchSize,
			BatchDelayMS:       int(win.BatchDelay / time.Millisecond),
		},
		Watchdog: WatchdogConfig{
			LivenessWindowMS:     int(ev.LivenessWindow / time.Millisecond),
			SessionIdleTimeoutMS: int(health.SessionIdleTimeout / time.Millisecond),
		},
		Memory: MemoryConfig{
			ElevatedMB: health.ElevatedMB,
			CriticalMB: health.CriticalMB,
			RestartMB:  health.RestartMB,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "docktoggler", "config.toml")
}

// Load reads configuration from path, or the default path when empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings the daemon cannot run with.
func (c *Config) Validate() error {
	if c.Dock.IconBandHeight <= 0 {
		return errors.New("dock.icon_band_height must be positive")
	}
	if c.Dock.MagnificationScale < 1 {
		return errors.New("dock.magnification_scale must be at least 1")
	}
	if c.Chooser.HoverDebounceMS <= 0 || c.Chooser.LeaveDebounceMS <= 0 {
		return errors.New("chooser debounce intervals must be positive")
	}
	if c.Windows.BatchSize <= 0 {
		return errors.New("windows.batch_size must be positive")
	}
	if !(c.Memory.ElevatedMB < c.Memory.CriticalMB && c.Memory.CriticalMB < c.Memory.RestartMB) {
		return errors.New("memory thresholds must ascend elevated < critical < restart")
	}
	return nil
}

// RunnerConfig maps the file settings onto the component configurations,
// keeping built-in defaults for everything the file does not expose.
func (c *Config) RunnerConfig() daemon.RunnerConfig {
	rc := daemon.DefaultRunnerConfig()

	rc.HitTester.IconBandHeight = c.Dock.IconBandHeight
	rc.HitTester.MagnificationScale = c.Dock.MagnificationScale
	rc.HitTester.BandMargin = c.Dock.BandMargin

	rc.Controller.HoverDebounce = time.Duration(c.Chooser.HoverDebounceMS) * time.Millisecond
	rc.Controller.LeaveDebounce = time.Duration(c.Chooser.LeaveDebounceMS) * time.Millisecond
	rc.Controller.DismissalMargin = c.Chooser.DismissalMargin
	rc.Controller.MinClickInterval = time.Duration(c.Chooser.MinClickIntervalMS) * time.Millisecond
	rc.Controller.MenuSettleDelay = time.Duration(c.Chooser.MenuSettleDelayMS) * time.Millisecond
	rc.Controller.WindowListTTL = time.Duration(c.Chooser.WindowListTTLMS) * time.Millisecond

	rc.Windows.RaiseSettleDelay = time.Duration(c.Windows.RaiseSettleDelayMS) * time.Millisecond
	rc.Windows.BatchSize = c.Windows.BatchSize
	rc.Windows.BatchDelay = time.Duration(c.Windows.BatchDelayMS) * time.Millisecond

	rc.Events.LivenessWindow = time.Duration(c.Watchdog.LivenessWindowMS) * time.Millisecond
	rc.Health.SessionIdleTimeout = time.Duration(c.Watchdog.SessionIdleTimeoutMS) * time.Millisecond
	rc.Health.ElevatedMB = c.Memory.ElevatedMB
	rc.Health.CriticalMB = c.Memory.CriticalMB
	rc.Health.RestartMB = c.Memory.RestartMB

	return rc
}
