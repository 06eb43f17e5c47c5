package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	Tree     TreeConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LogConfig controls the zap logger. The TUI owns the terminal, so logs go to a file.
type LogConfig struct {
	Level  string
	Format string
	Path   string
}

// TreeConfig tunes ordering keys and the flattener.
type TreeConfig struct {
	OrderStep float64 `mapstructure:"order_step"`
	MinGap    float64 `mapstructure:"min_gap"`
	MaxDepth  int     `mapstructure:"max_depth"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DefaultContainer string `mapstructure:"default_container"`
	Indent           int
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "oratabs")
}

func configPath() string {
	if p := os.Getenv("ORATABS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "oratabs", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix ORATABS_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(dataDir(), "tabs.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.path", filepath.Join(dataDir(), "oratabs.log"))
	v.SetDefault("tree.order_step", 1.0)
	v.SetDefault("tree.min_gap", 1e-9)
	v.SetDefault("tree.max_depth", 256)
	v.SetDefault("ui.default_container", "Personal")
	v.SetDefault("ui.indent", 2)

	v.SetConfigType("toml")
	v.SetConfigFile(configPath())

	v.SetEnvPrefix("ORATABS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Tree.OrderStep <= 0 {
		return Config{}, fmt.Errorf("tree.order_step must be positive, got %v", c.Tree.OrderStep)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
func Save(cfg Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	v.Set("log.path", cfg.Log.Path)
	v.Set("tree.order_step", cfg.Tree.OrderStep)
	v.Set("tree.min_gap", cfg.Tree.MinGap)
	v.Set("tree.max_depth", cfg.Tree.MaxDepth)
	v.Set("ui.default_container", cfg.UI.DefaultContainer)
	v.Set("ui.indent", cfg.UI.Indent)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
