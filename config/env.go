package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultEnvFiles are the dotenv files read by the Loader, in order.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Secret environment variable names.
const (
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvGeminiKey       = "GEMINI_API_KEY"
	EnvAnthropicKey    = "ANTHROPIC_API_KEY"
	EnvOllamaKey       = "OLLAMA_API_KEY"
	EnvBlueskyHandle   = "BLUESKY_HANDLE"
	EnvBlueskyPassword = "BLUESKY_APP_PASSWORD"
)

// LoadEnv loads variables from dotenv files that exist. Variables already set
// in the process environment are kept.
func LoadEnv(files []string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			logger.Warn("Failed to load env file", slog.String("path", file), slog.String("error", err.Error()))
			continue
		}
		loaded = append(loaded, file)
	}
	if len(loaded) == 0 {
		logger.Debug("No local env files loaded; relying on process environment")
		return
	}
	logger.Debug("Loaded env files", slog.String("files", strings.Join(loaded, ", ")))
}

// MissingConfigError lists required settings that are absent.
type MissingConfigError struct {
	Names []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required environment variable(s): %s", strings.Join(e.Names, ", "))
}

// IsMissingConfig returns true if err is or wraps a *MissingConfigError.
func IsMissingConfig(err error) bool {
	var missing *MissingConfigError
	return errors.As(err, &missing)
}

// Secrets reads credentials from the environment. Secrets have no defaults.
type Secrets struct {
	lookup func(string) (string, bool)
}

// EnvSecrets returns Secrets backed by the process environment.
func EnvSecrets() Secrets {
	return Secrets{lookup: os.LookupEnv}
}

// MapSecrets returns Secrets backed by m. Intended for tests.
func MapSecrets(m map[string]string) Secrets {
	return Secrets{lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

// Get returns the trimmed value of name, or "" when unset.
func (s Secrets) Get(name string) string {
	if s.lookup == nil {
		return ""
	}
	v, _ := s.lookup(name)
	return strings.TrimSpace(v)
}

// Require returns the values of names, or a *MissingConfigError naming every
// unset or blank one.
func (s Secrets) Require(names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		v := s.Get(name)
		if v == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = v
	}
	if len(missing) > 0 {
		return nil, &MissingConfigError{Names: missing}
	}
	return values, nil
}

// APIKeyVar returns the environment variable holding the API key for
// provider, and whether the key is mandatory.
func APIKeyVar(provider string) (name string, required bool) {
	switch provider {
	case "openai":
		return EnvOpenAIKey, true
	case "gemini":
		return EnvGeminiKey, true
	case "anthropic":
		return EnvAnthropicKey, true
	case "ollama":
		return EnvOllamaKey, false
	default:
		return "", false
	}
}

// APIKey returns the generation API key for provider, failing with
// *MissingConfigError when the provider requires one.
func (s Secrets) APIKey(provider string) (string, error) {
	name, required := APIKeyVar(provider)
	if name == "" {
		return "", nil
	}
	if !required {
		return s.Get(name), nil
	}
	values, err := s.Require(name)
	if err != nil {
		return "", err
	}
	return values[name], nil
}

// BlueskyCredentials returns the handle and app password.
func (s Secrets) BlueskyCredentials() (handle, password string, err error) {
	values, err := s.Require(EnvBlueskyHandle, EnvBlueskyPassword)
	if err != nil {
		return "", "", err
	}
	return values[EnvBlueskyHandle], values[EnvBlueskyPassword], nil
}
