package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "dailypost.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/dailypost"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger

	// EnvFiles are loaded before environment overrides are applied.
	EnvFiles []string

	getwd   func() (string, error)
	homeDir func() (string, error)
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger,
		EnvFiles: DefaultEnvFiles,
		getwd:    os.Getwd,
		homeDir:  os.UserHomeDir,
	}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/dailypost/config.yaml)
// 3. Project config (explicitPath, else dailypost.yaml in current or parent directories)
// 4. .env files
// 5. Environment variables
//
// An explicitPath that cannot be read is an error; the discovered files are
// optional.
func (l *Loader) Load(explicitPath string) (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	if explicitPath != "" {
		projectConfig, err := LoadFromFile(explicitPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config", slog.String("path", explicitPath))
		config.Merge(projectConfig)
	} else if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	LoadEnv(l.EnvFiles, l.logger)

	if err := applyEnv(config, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() (string, error) {
	userConfigPath := l.userConfigPath()
	if userConfigPath == "" {
		return "", errors.New("cannot determine home directory")
	}

	if _, err := os.Stat(userConfigPath); err == nil {
		return userConfigPath, nil
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return "", err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return userConfigPath, nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := l.homeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for dailypost.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	cwd, err := l.getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Environment overrides. Secrets are read separately by Secrets.
const (
	EnvProvider    = "DAILYPOST_PROVIDER"
	EnvEndpoint    = "DAILYPOST_ENDPOINT"
	EnvModel       = "OPENAI_MODEL"
	EnvTimeout     = "DAILYPOST_TIMEOUT"
	EnvProfile     = "DAILYPOST_PROFILE"
	EnvSignalPath  = "DAILYPOST_SIGNAL_PATH"
	EnvFeedPath    = "DAILYPOST_FEED_PATH"
	EnvBlueskyPDS  = "BLUESKY_PDS"
	EnvNATSURL     = "NATS_URL"
	EnvMetricsFile = "DAILYPOST_METRICS_FILE"
)

// applyEnv overlays environment variables on config.
func applyEnv(config *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvProvider); ok {
		config.Generation.Provider = v
	}
	if v, ok := get(EnvEndpoint); ok {
		config.Generation.Endpoint = v
	}
	// OPENAI_MODEL names an OpenAI model; other providers keep their own.
	if v, ok := get(EnvModel); ok && config.Generation.Provider == "openai" {
		config.Generation.Model = v
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		config.Generation.Timeout = d
	}
	if v, ok := get(EnvProfile); ok {
		config.Profile = v
	}
	if v, ok := get(EnvSignalPath); ok {
		config.Signals.Path = v
	}
	if v, ok := get(EnvFeedPath); ok {
		config.Feed.Path = v
	}
	if v, ok := get(EnvBlueskyPDS); ok {
		config.Bluesky.PDS = v
	}
	if v, ok := get(EnvNATSURL); ok {
		config.NATS.URL = v
	}
	if v, ok := get(EnvMetricsFile); ok {
		config.Metrics.TextfilePath = v
	}
	return nil
}

// parseDuration accepts Go durations ("90s") or bare seconds ("90").
func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("duration must be positive, got %q", v)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
