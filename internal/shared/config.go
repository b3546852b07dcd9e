package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Credentials CredentialsConfig `toml:"credentials"`
	Player      PlayerConfig      `toml:"player"`
	Importer    ImporterConfig    `toml:"importer"`
	Database    DatabaseConfig    `toml:"database"`
	Log         LogConfig         `toml:"log"`
}

// ServerConfig locates the musik server.
type ServerConfig struct {
	BaseURL   string `toml:"base_url"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// CredentialsConfig holds the account used to open a session.
type CredentialsConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// PlayerConfig contains playback controller settings.
type PlayerConfig struct {
	Shuffle            bool `toml:"shuffle"`
	ProgressIntervalMS int  `toml:"progress_interval_ms"`
}

// ImporterConfig contains import job monitor settings.
type ImporterConfig struct {
	PollIntervalMS int `toml:"poll_interval_ms"`
	GraceCount     int `toml:"grace_count"`
	MaxFailures    int `toml:"max_failures"` // 0 keeps polling through any number of failed ticks
}

// DatabaseConfig contains catalog cache connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the HTTP timeout as a [time.Duration].
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// ProgressInterval returns the progress sampling period.
func (c PlayerConfig) ProgressInterval() time.Duration {
	return time.Duration(c.ProgressIntervalMS) * time.Millisecond
}

// PollInterval returns the importer polling period.
func (c ImporterConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate rejects settings the controller and poller cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Server.BaseURL == "":
		return fmt.Errorf("%w: server.base_url is empty", ErrInvalidConfig)
	case c.Server.TimeoutMS <= 0:
		return fmt.Errorf("%w: server.timeout_ms must be positive", ErrInvalidConfig)
	case c.Player.ProgressIntervalMS <= 0:
		return fmt.Errorf("%w: player.progress_interval_ms must be positive", ErrInvalidConfig)
	case c.Importer.PollIntervalMS <= 0:
		return fmt.Errorf("%w: importer.poll_interval_ms must be positive", ErrInvalidConfig)
	case c.Importer.GraceCount <= 0:
		return fmt.Errorf("%w: importer.grace_count must be positive", ErrInvalidConfig)
	case c.Importer.MaxFailures < 0:
		return fmt.Errorf("%w: importer.max_failures cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
