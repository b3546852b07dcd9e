package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override config.toml values.
const (
	EnvBaseURL  = "MUSIK_BASE_URL"
	EnvUsername = "MUSIK_USERNAME"
	EnvPassword = "MUSIK_PASSWORD"
	EnvLogLevel = "MUSIK_LOG_LEVEL"
	EnvShuffle  = "MUSIK_SHUFFLE"
)

// LoadEnvFile loads variables from a dotenv file into the process environment.
//
// A missing file is not an error. Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays MUSIK_* environment variables onto config.
func ApplyEnv(config *Config) error {
	if v, ok := os.LookupEnv(EnvBaseURL); ok && v != "" {
		config.Server.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvUsername); ok {
		config.Credentials.Username = v
	}
	if v, ok := os.LookupEnv(EnvPassword); ok {
		config.Credentials.Password = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		config.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvShuffle); ok && v != "" {
		shuffle, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalidConfig, EnvShuffle, v)
		}
		config.Player.Shuffle = shuffle
	}
	return nil
}
