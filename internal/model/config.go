package model

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Database driver names accepted in DatabaseConfig.Driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig selects and locates the backing database.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Path is the SQLite database file.
	Path string `mapstructure:"path" yaml:"path"`

	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
	User    string `mapstructure:"user" yaml:"user"`
	Name    string `mapstructure:"name" yaml:"name"`
	SSLMode string `mapstructure:"sslmode" yaml:"sslmode"`
}

// IdentityConfig names the user whose board is opened.
type IdentityConfig struct {
	Username    string `mapstructure:"username" yaml:"username"`
	DisplayName string `mapstructure:"display_name" yaml:"display_name"`
}

// BoardConfig holds board behaviour settings.
type BoardConfig struct {
	Title string `mapstructure:"title" yaml:"title"`

	// BatchWrites persists a move's positions in one transaction instead of
	// one write per task.
	BatchWrites bool `mapstructure:"batch_writes" yaml:"batch_writes"`

	// ArchiveAfterDays is how long a task stays in Done before it is archived.
	ArchiveAfterDays int `mapstructure:"archive_after_days" yaml:"archive_after_days"`

	// SweepIntervalSec is how often the archive sweep runs in the background.
	SweepIntervalSec int `mapstructure:"sweep_interval_sec" yaml:"sweep_interval_sec"`
}

// CacheConfig configures the optional Redis board cache.
type CacheConfig struct {
	RedisURL string `mapstructure:"redis_url" yaml:"redis_url"`
	TTLSec   int    `mapstructure:"ttl_sec" yaml:"ttl_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	Path  string `mapstructure:"path" yaml:"path"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`
	Board    BoardConfig    `mapstructure:"board" yaml:"board"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ArchiveAfter returns the archive threshold as a duration.
func (c *AppConfig) ArchiveAfter() time.Duration {
	return time.Duration(c.Board.ArchiveAfterDays) * 24 * time.Hour
}

// SweepInterval returns the background sweep period.
func (c *AppConfig) SweepInterval() time.Duration {
	return time.Duration(c.Board.SweepIntervalSec) * time.Second
}

// CacheTTL returns how long a cached board stays valid.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSec) * time.Second
}

// PostgresDSN builds a connection URL for the pgx driver. The password is
// supplied separately so it never has to live in the config file.
func (c DatabaseConfig) PostgresDSN(password string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	if password != "" {
		u.User = url.UserPassword(c.User, password)
	} else {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// configDir returns ~/.config/taskboard, or "." if the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	username := os.Getenv("USER")
	if username == "" {
		username = "me"
	}
	return &AppConfig{
		Database: DatabaseConfig{
			Driver:  DriverSQLite,
			Path:    filepath.Join(configDir(), "taskboard.db"),
			Host:    "localhost",
			Port:    5432,
			User:    "taskboard",
			Name:    "taskboard",
			SSLMode: "disable",
		},
		Identity: IdentityConfig{
			Username:    username,
			DisplayName: username,
		},
		Board: BoardConfig{
			Title:            DefaultBoardTitle,
			BatchWrites:      true,
			ArchiveAfterDays: 7,
			SweepIntervalSec: 600,
		},
		Cache: CacheConfig{
			TTLSec: 60,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
		Log: LogConfig{
			Level: "info",
			Path:  filepath.Join(configDir(), "taskboard.log"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.path", def.Database.Path)
	v.SetDefault("database.host", def.Database.Host)
	v.SetDefault("database.port", def.Database.Port)
	v.SetDefault("database.user", def.Database.User)
	v.SetDefault("database.name", def.Database.Name)
	v.SetDefault("database.sslmode", def.Database.SSLMode)
	v.SetDefault("identity.username", def.Identity.Username)
	v.SetDefault("identity.display_name", def.Identity.DisplayName)
	v.SetDefault("board.title", def.Board.Title)
	v.SetDefault("board.batch_writes", def.Board.BatchWrites)
	v.SetDefault("board.archive_after_days", def.Board.ArchiveAfterDays)
	v.SetDefault("board.sweep_interval_sec", def.Board.SweepIntervalSec)
	v.SetDefault("cache.ttl_sec", def.Cache.TTLSec)
	v.SetDefault("display.theme", def.Display.Theme)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.path", def.Log.Path)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return def, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values viper cannot type-check on its own.
func (c *AppConfig) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Identity.Username == "" {
		return fmt.Errorf("identity.username must not be empty")
	}
	if c.Board.ArchiveAfterDays < 1 {
		return fmt.Errorf("board.archive_after_days must be at least 1")
	}
	if c.Board.SweepIntervalSec < 0 {
		return fmt.Errorf("board.sweep_interval_sec must not be negative")
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("identity", cfg.Identity)
	v.Set("board", cfg.Board)
	v.Set("cache", cfg.Cache)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
