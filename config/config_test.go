package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newghostisfun/dailypost/post"
	"github.com/newghostisfun/dailypost/publish/feed"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Generation.Provider != "openai" {
		t.Errorf("expected default provider openai, got %s", cfg.Generation.Provider)
	}
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", cfg.Generation.Model)
	}
	if cfg.Generation.Timeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %v", cfg.Generation.Timeout)
	}
	if cfg.Profile != "short" {
		t.Errorf("expected default profile short, got %s", cfg.Profile)
	}
	if cfg.Signals.Path != "signals/high_profile.json" {
		t.Errorf("unexpected signal path %s", cfg.Signals.Path)
	}
	if cfg.NATS.URL != "" {
		t.Error("expected announcements disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing provider",
			modify:  func(c *Config) { c.Generation.Provider = "" },
			wantErr: true,
		},
		{
			name:    "missing model",
			modify:  func(c *Config) { c.Generation.Model = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.Generation.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative bluesky timeout",
			modify:  func(c *Config) { c.Bluesky.Timeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero bluesky timeout",
			modify:  func(c *Config) { c.Bluesky.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative token cap",
			modify:  func(c *Config) { c.Generation.MaxOutputTokens = -1 },
			wantErr: true,
		},
		{
			name:    "unknown profile",
			modify:  func(c *Config) { c.Profile = "tweet" },
			wantErr: true,
		},
		{
			name: "profile too short for prefix",
			modify: func(c *Config) {
				p := c.Profiles["short"]
				p.MaxLength = 20
				c.Profiles["short"] = p
			},
			wantErr: true,
		},
		{
			name:    "long profile selected",
			modify:  func(c *Config) { c.Profile = "long" },
			wantErr: false,
		},
		{
			name:    "missing feed link",
			modify:  func(c *Config) { c.Feed.Channel.Link = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
generation:
  provider: gemini
  model: "gemini-2.5-flash"
  timeout: 90s
  max_output_tokens: 256
profile: long
profiles:
  long:
    max_length: 280
  digest:
    max_length: 500
signals:
  path: "/var/lib/dailypost/high_profile.json"
nats:
  url: "nats://test:4222"
metrics:
  textfile_path: "/var/lib/node_exporter/dailypost.prom"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Generation.Provider != "gemini" {
		t.Errorf("expected provider gemini, got %s", cfg.Generation.Provider)
	}
	if cfg.Generation.Timeout != 90*time.Second {
		t.Errorf("expected timeout 90s, got %v", cfg.Generation.Timeout)
	}
	if cfg.Generation.MaxOutputTokens != 256 {
		t.Errorf("expected 256 tokens, got %d", cfg.Generation.MaxOutputTokens)
	}
	if cfg.Profiles["long"].MaxLength != 280 {
		t.Errorf("expected long max_length 280, got %d", cfg.Profiles["long"].MaxLength)
	}
	if cfg.NATS.URL != "nats://test:4222" {
		t.Errorf("expected NATS URL nats://test:4222, got %s", cfg.NATS.URL)
	}
	if cfg.Metrics.TextfilePath != "/var/lib/node_exporter/dailypost.prom" {
		t.Errorf("unexpected metrics path %s", cfg.Metrics.TextfilePath)
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("generation: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(bad); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Generation: GenerationConfig{
			Model: "gpt-5-mini",
		},
		Profiles: map[string]post.Profile{
			"long":   {MaxLength: 280},
			"digest": {MaxLength: 500},
		},
		Feed: FeedConfig{
			Channel: feed.Channel{Title: "Evening Briefing"},
		},
	}

	base.Merge(override)

	if base.Generation.Model != "gpt-5-mini" {
		t.Errorf("expected model gpt-5-mini, got %s", base.Generation.Model)
	}
	// Provider should remain from base since override didn't set it
	if base.Generation.Provider != "openai" {
		t.Errorf("expected provider to remain default, got %s", base.Generation.Provider)
	}

	long := base.Profiles["long"]
	if long.MaxLength != 280 || long.Tag != post.DefaultTag || long.SpecialMarker != post.DefaultSpecialMarker {
		t.Errorf("expected long profile merged field by field, got %+v", long)
	}
	digest := base.Profiles["digest"]
	if digest.Name != "digest" || digest.Tag != post.DefaultTag {
		t.Errorf("expected new profile to inherit defaults, got %+v", digest)
	}
	if base.Profiles["short"].MaxLength != 200 {
		t.Error("short profile should be untouched")
	}

	if base.Feed.Channel.Title != "Evening Briefing" {
		t.Errorf("expected channel title override, got %s", base.Feed.Channel.Title)
	}
	if base.Feed.Channel.Link == "" {
		t.Error("channel link should remain default")
	}

	base.Merge(nil)
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Generation.Model = "saved-model"

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Generation.Model != "saved-model" {
		t.Errorf("expected model saved-model, got %s", loaded.Generation.Model)
	}
	if loaded.Generation.Timeout != 60*time.Second {
		t.Errorf("expected timeout to round-trip, got %v", loaded.Generation.Timeout)
	}
}

func TestLookupProfile(t *testing.T) {
	cfg := DefaultConfig()

	p, err := cfg.LookupProfile("long")
	if err != nil {
		t.Fatalf("LookupProfile() error = %v", err)
	}
	if p.MaxLength != 300 {
		t.Errorf("expected 300, got %d", p.MaxLength)
	}

	if _, err := cfg.LookupProfile("tweet"); err == nil {
		t.Error("expected error for unknown profile")
	}

	names := cfg.ProfileNames()
	if len(names) != 2 || names[0] != "long" || names[1] != "short" {
		t.Errorf("unexpected profile names %v", names)
	}
}
