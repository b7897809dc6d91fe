// Package config provides configuration loading and management for dailypost.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/newghostisfun/dailypost/post"
	"github.com/newghostisfun/dailypost/publish/feed"
	"github.com/newghostisfun/dailypost/signals"
)

// Config represents the complete dailypost configuration. Secrets are never
// part of it; see Secrets.
type Config struct {
	Generation GenerationConfig        `yaml:"generation"`
	Profile    string                  `yaml:"profile"`
	Profiles   map[string]post.Profile `yaml:"profiles"`
	Signals    SignalsConfig           `yaml:"signals"`
	Bluesky    BlueskyConfig           `yaml:"bluesky"`
	Feed       FeedConfig              `yaml:"feed"`
	NATS       NATSConfig              `yaml:"nats"`
	Metrics    MetricsConfig           `yaml:"metrics"`
}

// GenerationConfig configures the text-generation API.
type GenerationConfig struct {
	// Provider selects the adapter: openai, gemini, anthropic or ollama.
	Provider string `yaml:"provider"`
	// Endpoint overrides the provider's base URL (empty = public endpoint)
	Endpoint string `yaml:"endpoint"`
	// Model is the model name sent with every request
	Model string `yaml:"model"`
	// Timeout bounds one generation call
	Timeout time.Duration `yaml:"timeout"`
	// MaxOutputTokens caps post completion length (0 = API default)
	MaxOutputTokens int `yaml:"max_output_tokens"`
	// BriefingMaxOutputTokens caps briefing completion length (0 = API default)
	BriefingMaxOutputTokens int `yaml:"briefing_max_output_tokens"`
}

// SignalsConfig configures the signal file.
type SignalsConfig struct {
	Path string `yaml:"path"`
}

// BlueskyConfig configures the social sink.
type BlueskyConfig struct {
	// PDS is the XRPC host (default: https://bsky.social)
	PDS     string        `yaml:"pds"`
	Timeout time.Duration `yaml:"timeout"`
}

// FeedConfig configures the briefing feed.
type FeedConfig struct {
	Path       string       `yaml:"path"`
	GUIDPrefix string       `yaml:"guid_prefix"`
	Channel    feed.Channel `yaml:"channel"`
}

// NATSConfig configures optional publish announcements.
type NATSConfig struct {
	// URL is the NATS server URL (empty = announcements disabled)
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// MetricsConfig configures the Prometheus textfile output.
type MetricsConfig struct {
	// TextfilePath is where metrics are written after each run (empty = off)
	TextfilePath string `yaml:"textfile_path"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Provider:                "openai",
			Model:                   "gpt-4o-mini",
			Timeout:                 60 * time.Second,
			MaxOutputTokens:         400,
			BriefingMaxOutputTokens: 1600,
		},
		Profile:  "short",
		Profiles: post.Profiles(),
		Signals: SignalsConfig{
			Path: signals.DefaultPath,
		},
		Bluesky: BlueskyConfig{
			PDS:     "https://bsky.social",
			Timeout: 30 * time.Second,
		},
		Feed: FeedConfig{
			Path:       feed.DefaultPath,
			GUIDPrefix: feed.DefaultGUIDPrefix,
			Channel:    feed.DefaultChannel(),
		},
		NATS: NATSConfig{
			Subject: "dailypost.published",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Generation.Provider == "" {
		return fmt.Errorf("generation.provider is required")
	}
	if c.Generation.Model == "" {
		return fmt.Errorf("generation.model is required")
	}
	if c.Generation.Timeout <= 0 {
		return fmt.Errorf("generation.timeout must be positive")
	}
	if c.Generation.MaxOutputTokens < 0 || c.Generation.BriefingMaxOutputTokens < 0 {
		return fmt.Errorf("generation token caps must not be negative")
	}
	if _, err := c.ActiveProfile(); err != nil {
		return err
	}
	for name, p := range c.Profiles {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profiles.%s: %w", name, err)
		}
	}
	if c.Bluesky.Timeout <= 0 {
		return fmt.Errorf("bluesky.timeout must be positive")
	}
	if c.Signals.Path == "" {
		return fmt.Errorf("signals.path is required")
	}
	if c.Feed.Path == "" {
		return fmt.Errorf("feed.path is required")
	}
	if c.Feed.Channel.Title == "" || c.Feed.Channel.Link == "" {
		return fmt.Errorf("feed.channel.title and feed.channel.link are required")
	}
	return nil
}

// ActiveProfile returns the profile selected by Profile.
func (c *Config) ActiveProfile() (post.Profile, error) {
	return c.LookupProfile(c.Profile)
}

// LookupProfile returns the named profile.
func (c *Config) LookupProfile(name string) (post.Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return post.Profile{}, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(c.ProfileNames(), ", "))
	}
	if p.Name == "" {
		p.Name = name
	}
	return p, nil
}

// ProfileNames returns the configured profile names, sorted.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Generation
	if other.Generation.Provider != "" {
		c.Generation.Provider = other.Generation.Provider
	}
	if other.Generation.Endpoint != "" {
		c.Generation.Endpoint = other.Generation.Endpoint
	}
	if other.Generation.Model != "" {
		c.Generation.Model = other.Generation.Model
	}
	if other.Generation.Timeout != 0 {
		c.Generation.Timeout = other.Generation.Timeout
	}
	if other.Generation.MaxOutputTokens != 0 {
		c.Generation.MaxOutputTokens = other.Generation.MaxOutputTokens
	}
	if other.Generation.BriefingMaxOutputTokens != 0 {
		c.Generation.BriefingMaxOutputTokens = other.Generation.BriefingMaxOutputTokens
	}

	// Profiles merge by name, field by field. A new profile starts from the
	// default tag and marker.
	if other.Profile != "" {
		c.Profile = other.Profile
	}
	for name, p := range other.Profiles {
		if c.Profiles == nil {
			c.Profiles = make(map[string]post.Profile)
		}
		base, ok := c.Profiles[name]
		if !ok {
			base = post.Profile{Tag: post.DefaultTag, SpecialMarker: post.DefaultSpecialMarker}
		}
		base.Name = name
		if p.Tag != "" {
			base.Tag = p.Tag
		}
		if p.SpecialMarker != "" {
			base.SpecialMarker = p.SpecialMarker
		}
		if p.MaxLength != 0 {
			base.MaxLength = p.MaxLength
		}
		c.Profiles[name] = base
	}

	if other.Signals.Path != "" {
		c.Signals.Path = other.Signals.Path
	}

	// Bluesky
	if other.Bluesky.PDS != "" {
		c.Bluesky.PDS = other.Bluesky.PDS
	}
	if other.Bluesky.Timeout != 0 {
		c.Bluesky.Timeout = other.Bluesky.Timeout
	}

	// Feed
	if other.Feed.Path != "" {
		c.Feed.Path = other.Feed.Path
	}
	if other.Feed.GUIDPrefix != "" {
		c.Feed.GUIDPrefix = other.Feed.GUIDPrefix
	}
	if other.Feed.Channel.Title != "" {
		c.Feed.Channel.Title = other.Feed.Channel.Title
	}
	if other.Feed.Channel.Link != "" {
		c.Feed.Channel.Link = other.Feed.Channel.Link
	}
	if other.Feed.Channel.Description != "" {
		c.Feed.Channel.Description = other.Feed.Channel.Description
	}
	if other.Feed.Channel.Language != "" {
		c.Feed.Channel.Language = other.Feed.Channel.Language
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Subject != "" {
		c.NATS.Subject = other.NATS.Subject
	}

	if other.Metrics.TextfilePath != "" {
		c.Metrics.TextfilePath = other.Metrics.TextfilePath
	}
}
