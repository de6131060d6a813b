package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bryanchriswhite/drop/internal/capture"
	"github.com/bryanchriswhite/drop/internal/logger"
	"github.com/bryanchriswhite/drop/internal/platform"
	"github.com/bryanchriswhite/drop/internal/stop"
)

// Config represents the application configuration
type Config struct {
	Drop          DropConfig       `json:"drop" yaml:"drop" mapstructure:"drop"`
	Screencast    ScreencastConfig `json:"screencast" yaml:"screencast" mapstructure:"screencast"`
	DisplayServer string           `json:"display_server" yaml:"display_server" mapstructure:"display_server"`
	LogLevel      string           `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	Verbose       bool             `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
}

// DropConfig holds settings shared by every capture mode
type DropConfig struct {
	Dir          string `json:"dir" yaml:"dir" mapstructure:"dir"`
	Delay        int    `json:"delay" yaml:"delay" mapstructure:"delay"`
	Transparent  bool   `json:"transparent" yaml:"transparent" mapstructure:"transparent"`
	UniqueLength int    `json:"unique_length" yaml:"unique_length" mapstructure:"unique_length"`
}

// ScreencastConfig holds video capture settings
type ScreencastConfig struct {
	Format      string `json:"format" yaml:"format" mapstructure:"format"`
	Audio       bool   `json:"audio" yaml:"audio" mapstructure:"audio"`
	AudioSource string `json:"audio_source" yaml:"audio_source" mapstructure:"audio_source"`
	Border      bool   `json:"border" yaml:"border" mapstructure:"border"`
	Mouse       bool   `json:"mouse" yaml:"mouse" mapstructure:"mouse"`
	Stop        string `json:"stop" yaml:"stop" mapstructure:"stop"`
	Hotkey      string `json:"hotkey" yaml:"hotkey" mapstructure:"hotkey"`
}

var defaults = map[string]any{
	"drop.dir":                "~/Pictures/drop",
	"drop.delay":              0,
	"drop.transparent":        false,
	"drop.unique_length":      10,
	"screencast.format":       "mp4",
	"screencast.audio":        false,
	"screencast.audio_source": "desktop",
	"screencast.border":       true,
	"screencast.mouse":        true,
	"screencast.stop":         string(stop.Auto),
	"screencast.hotkey":       "ctrl+shift+q",
	"display_server":          "",
	"log_level":               "info",
	"verbose":                 false,
}

// flagKeys maps command line flag names onto configuration keys.
var flagKeys = map[string]string{
	"log-level":      "log_level",
	"verbose":        "verbose",
	"display-server": "display_server",
	"dir":            "drop.dir",
	"delay":          "drop.delay",
	"transparent":    "drop.transparent",
	"format":         "screencast.format",
	"audio":          "screencast.audio",
	"audio-source":   "screencast.audio_source",
	"border":         "screencast.border",
	"mouse":          "screencast.mouse",
	"stop":           "screencast.stop",
	"hotkey":         "screencast.hotkey",
}

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	mu         sync.RWMutex
}

// DefaultPath returns $XDG_CONFIG_HOME/drop/config.toml, falling back to ~/.config.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "drop", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "drop", "config.toml"), nil
}

// NewManager creates a new configuration manager. A missing config file is
// not an error; defaults and DROP_* environment variables still apply.
func NewManager(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix("DROP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	m := &Manager{configPath: path, v: v}
	log := logger.WithComponent("config")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("Config loaded")
	} else if os.IsNotExist(err) {
		log.Debug().Str("path", path).Msg("Config file not found, using defaults")
	} else {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return m, nil
}

// GetConfigPath returns the config file path
func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// GetViper returns the underlying viper instance
func (m *Manager) GetViper() *viper.Viper {
	return m.v
}

// BindFlags lets any of the known flags present in fs override their key.
func (m *Manager) BindFlags(fs *pflag.FlagSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := m.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// Get returns the effective configuration
func (m *Manager) Get() (*Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Set validates and stores a single key. Call Save to persist it.
func (m *Manager) Set(key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	var parsed any
	switch key {
	case "drop.delay", "drop.unique_length":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid number for %s: %s", key, value)
		}
		parsed = n
	case "drop.transparent", "screencast.audio", "screencast.border", "screencast.mouse", "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for %s: %s (use: true or false)", key, value)
		}
		parsed = b
	case "log_level":
		level, err := logger.ParseLogLevel(value)
		if err != nil {
			return err
		}
		parsed = string(level)
	case "screencast.format":
		format, err := capture.ParseFormat(value)
		if err != nil {
			return err
		}
		parsed = format
	case "screencast.audio_source":
		if value != "desktop" && value != "mic" {
			return fmt.Errorf("invalid audio source: %s (use: desktop or mic)", value)
		}
		parsed = value
	case "screencast.stop":
		mode, err := stop.ParseMode(value)
		if err != nil {
			return err
		}
		parsed = string(mode)
	case "screencast.hotkey":
		if _, err := stop.ParseHotkey(value); err != nil {
			return err
		}
		parsed = value
	case "display_server":
		ds, err := platform.ParseDisplayServer(value)
		if err != nil {
			return err
		}
		parsed = string(ds)
	default:
		parsed = value
	}

	m.mu.Lock()
	m.v.Set(key, parsed)
	m.mu.Unlock()
	return nil
}

// Save writes the effective configuration to the config file
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log := logger.WithComponent("config")

	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Error().Err(err).Str("config_dir", configDir).Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.v.WriteConfigAs(m.configPath); err != nil {
		log.Error().Err(err).Str("path", m.configPath).Msg("Failed to write config")
		return err
	}

	log.Info().Str("path", m.configPath).Msg("Config saved successfully")
	return nil
}
