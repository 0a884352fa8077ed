// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	applog "synesthesia/internal/log"
	"synesthesia/pkg/bitint"
)

// Defaults for a session. Frame size and sample rate match the renderer
// contract the visual side was tuned against.
const (
	DefaultSampleRate      = 44100.0
	DefaultFramesPerBuffer = 1024
	DefaultQueueDepth      = 10
	DefaultOnsetThreshold  = 0.3
	DefaultOSCTarget       = "127.0.0.1:12000"
	DefaultMonitorPort     = "8080"

	MinDeviceID   = -1 // -1 selects the system default input device
	MinSampleRate = 8000.0
	MaxSampleRate = 192000.0
	MaxFrameSize  = 8192
)

// Config is the application configuration, loaded from YAML with env
// overrides applied on top.
type Config struct {
	Debug    bool          `yaml:"debug"`     // Verbose diagnostics.
	LogLevel string        `yaml:"log_level"` // "debug", "info", "warn", "error".
	Audio    AudioConfig   `yaml:"audio"`
	Rules    RulesConfig   `yaml:"rules"`
	OSC      OSCConfig     `yaml:"osc"`
	Monitor  MonitorConfig `yaml:"monitor"`
	Record   RecordConfig  `yaml:"recording"`

	// Set by the CLI layer, never read from the config file.
	Command    string `yaml:"-"` // Subcommand to run ("list" or empty).
	RunSession bool   `yaml:"-"` // True when a capture session should start.
}

// AudioConfig holds capture and analysis settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index, -1 for default.
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Samples per frame; power of 2.
	LowLatency      bool    `yaml:"low_latency"`       // Request low-latency stream settings.
	QueueDepth      int     `yaml:"queue_depth"`       // Frame queue capacity.
	OnsetThreshold  float64 `yaml:"onset_threshold"`   // RMS delta that counts as an onset.
}

// RulesConfig points at the mapping-rules document.
type RulesConfig struct {
	Path string `yaml:"path"` // JSON document; empty or missing uses built-in defaults.
}

// OSCConfig holds the outbound visual protocol settings.
type OSCConfig struct {
	TargetAddress string `yaml:"target_address"` // host:port of the renderer.
}

// MonitorConfig holds the websocket monitoring feed settings.
type MonitorConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Port          string        `yaml:"port"`
	StatsInterval time.Duration `yaml:"stats_interval"` // Interval between stats broadcasts.
}

// RecordConfig holds optional session WAV capture settings.
type RecordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputFile string `yaml:"output_file"` // Empty generates a timestamped name.
}

// Load reads configuration from the YAML file at path. An empty path checks
// "config.yaml" in the working directory; if no file exists the built-in
// defaults are used. Env overrides apply after the file, and the final
// configuration is validated once.
func Load(path string) (*Config, error) {
	cfg := Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     MinDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      false,
			QueueDepth:      DefaultQueueDepth,
			OnsetThreshold:  DefaultOnsetThreshold,
		},
		Rules: RulesConfig{
			Path: "",
		},
		OSC: OSCConfig{
			TargetAddress: DefaultOSCTarget,
		},
		Monitor: MonitorConfig{
			Enabled:       false,
			Port:          DefaultMonitorPort,
			StatsInterval: time.Second,
		},
		Record: RecordConfig{
			Enabled:    false,
			OutputFile: "",
		},
	}

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks ranges and normalizes the frame size to a power of 2,
// which the FFT plan and window cache are sized for.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("sample rate %.1f outside supported range [%.0f, %.0f]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxFrameSize {
		return fmt.Errorf("frames per buffer %d outside supported range (0, %d]",
			c.Audio.FramesPerBuffer, MaxFrameSize)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) {
		rounded := bitint.NextPowerOfTwo(c.Audio.FramesPerBuffer)
		applog.Warnf("Config: frames_per_buffer %d is not a power of 2, rounding up to %d",
			c.Audio.FramesPerBuffer, rounded)
		c.Audio.FramesPerBuffer = rounded
	}
	if c.Audio.QueueDepth <= 0 {
		c.Audio.QueueDepth = DefaultQueueDepth
	}
	if c.Audio.OnsetThreshold <= 0 {
		c.Audio.OnsetThreshold = DefaultOnsetThreshold
	}
	if _, _, err := net.SplitHostPort(c.OSC.TargetAddress); err != nil {
		return fmt.Errorf("osc target address %q is not host:port: %w", c.OSC.TargetAddress, err)
	}
	if c.Monitor.Enabled && c.Monitor.StatsInterval <= 0 {
		c.Monitor.StatsInterval = time.Second
	}
	return nil
}

// applyEnvOverrides applies ENGINE_* environment variables on top of the
// loaded configuration.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENGINE_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			applog.Debugf("Config: overriding debug from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENGINE_OSC_TARGET"); ok {
		c.OSC.TargetAddress = val
		applog.Debugf("Config: overriding osc.target_address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENGINE_RULES_PATH"); ok {
		c.Rules.Path = val
		applog.Debugf("Config: overriding rules.path from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENGINE_MONITOR_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Monitor.Enabled = bVal
			applog.Debugf("Config: overriding monitor.enabled from env: %v", bVal)
		}
	}
	if val, ok := os.LookupEnv("ENGINE_MONITOR_PORT"); ok {
		c.Monitor.Port = val
		applog.Debugf("Config: overriding monitor.port from env: %s", val)
	}
}
