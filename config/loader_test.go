package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLoader returns a loader rooted in temp directories so the developer's
// own config files never leak into tests.
func testLoader(t *testing.T, cwd string) *Loader {
	t.Helper()
	home := t.TempDir()
	l := NewLoader(nil)
	l.getwd = func() (string, error) { return cwd, nil }
	l.homeDir = func() (string, error) { return home, nil }
	l.EnvFiles = nil
	return l
}

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoader_Defaults(t *testing.T) {
	unsetEnv(t, EnvProvider, EnvModel, EnvProfile, EnvTimeout)

	cfg, err := testLoader(t, t.TempDir()).Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Generation, cfg.Generation)
}

func TestLoader_ProjectConfigInParent(t *testing.T) {
	unsetEnv(t, EnvProvider, EnvModel, EnvProfile, EnvTimeout)

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectConfigFile),
		[]byte("profile: long\ngeneration:\n  model: from-project\n"), 0o644))

	cfg, err := testLoader(t, nested).Load("")
	require.NoError(t, err)
	assert.Equal(t, "long", cfg.Profile)
	assert.Equal(t, "from-project", cfg.Generation.Model)
}

func TestLoader_ExplicitPath(t *testing.T) {
	unsetEnv(t, EnvProvider, EnvModel, EnvProfile, EnvTimeout)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  provider: anthropic\n  model: claude\n"), 0o644))

	cfg, err := testLoader(t, t.TempDir()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Generation.Provider)

	_, err = testLoader(t, t.TempDir()).Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoader_UserConfigBelowProject(t *testing.T) {
	unsetEnv(t, EnvProvider, EnvModel, EnvProfile, EnvTimeout)

	cwd := t.TempDir()
	l := testLoader(t, cwd)

	userPath, err := l.EnsureUserConfig()
	require.NoError(t, err)
	user := DefaultConfig()
	user.Generation.Model = "from-user"
	user.Generation.MaxOutputTokens = 111
	require.NoError(t, user.SaveToFile(userPath))

	require.NoError(t, os.WriteFile(filepath.Join(cwd, ProjectConfigFile),
		[]byte("generation:\n  model: from-project\n"), 0o644))

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-project", cfg.Generation.Model)
	assert.Equal(t, 111, cfg.Generation.MaxOutputTokens)
}

func TestLoader_EnvOverrides(t *testing.T) {
	unsetEnv(t, EnvProvider)
	t.Setenv(EnvModel, "gpt-5-nano")
	t.Setenv(EnvProfile, "long")
	t.Setenv(EnvTimeout, "45")
	t.Setenv(EnvNATSURL, "nats://localhost:4222")

	cfg, err := testLoader(t, t.TempDir()).Load("")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-nano", cfg.Generation.Model)
	assert.Equal(t, "long", cfg.Profile)
	assert.Equal(t, 45*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoader_OpenAIModelOnlyForOpenAI(t *testing.T) {
	unsetEnv(t, EnvProfile, EnvTimeout)
	t.Setenv(EnvModel, "gpt-5-nano")

	path := filepath.Join(t.TempDir(), "gemini.yaml")
	require.NoError(t, os.WriteFile(path, []byte("generation:\n  provider: gemini\n  model: gemini-2.5-flash\n"), 0o644))

	unsetEnv(t, EnvProvider)
	cfg, err := testLoader(t, t.TempDir()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.Generation.Model)

	// The provider override is applied before the model override.
	t.Setenv(EnvProvider, "openai")
	cfg, err = testLoader(t, t.TempDir()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-nano", cfg.Generation.Model)
}

func TestLoader_RejectsNonPositiveBlueskyTimeout(t *testing.T) {
	unsetEnv(t, EnvProvider, EnvModel, EnvProfile, EnvTimeout)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bluesky:\n  timeout: -1s\n"), 0o644))

	_, err := testLoader(t, t.TempDir()).Load(path)
	assert.ErrorContains(t, err, "bluesky.timeout")
}

func TestLoader_InvalidEnv(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	_, err := testLoader(t, t.TempDir()).Load("")
	assert.ErrorContains(t, err, EnvTimeout)

	t.Setenv(EnvTimeout, "")
	t.Setenv(EnvProfile, "tweet")
	_, err = testLoader(t, t.TempDir()).Load("")
	assert.ErrorContains(t, err, "unknown profile")
}

func TestLoader_DotEnv(t *testing.T) {
	// godotenv never overrides set variables, so these must be truly unset.
	// t.Setenv inside unsetEnv restores them afterwards.
	unsetEnv(t, EnvProvider, EnvModel, EnvTimeout, EnvProfile, EnvFeedPath)

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DAILYPOST_PROFILE=long\nDAILYPOST_FEED_PATH=public/briefing.xml\n"), 0o644))

	l := testLoader(t, dir)
	l.EnvFiles = []string{envFile, filepath.Join(dir, ".env.missing")}

	cfg, err := l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "long", cfg.Profile)
	assert.Equal(t, "public/briefing.xml", cfg.Feed.Path)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30", 30 * time.Second, false},
		{"2m", 2 * time.Minute, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"later", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
