package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph/config"
	"github.com/randalmurphal/uitestgen/pkg/llm"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
)

func loadYAML(t *testing.T, doc string) (Settings, error) {
	t.Helper()
	cfg, err := config.FromYAML([]byte(doc))
	require.NoError(t, err)
	return LoadSettings(cfg)
}

func TestLoadSettings_Empty(t *testing.T) {
	s, err := LoadSettings(config.New(nil))

	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, llm.ProviderOpenAI, s.Generator.Provider)
	assert.Equal(t, llm.ProviderGemini, s.Critic.Provider)
	assert.Equal(t, testrunner.DefaultCommand, s.TestCommand)
}

func TestLoadSettings_File(t *testing.T) {
	s, err := loadYAML(t, `
generator:
  provider: claude
  model: sonnet
critic:
  model: gemini-2.0-flash
max_code_reflections: 5
max_test_retries: 2
step_timeout: 90s
output_dir: out
token_store: redis://localhost:6379/0
token_ttl: 1h
headless: false
test_command: [pytest, -q]
`)

	require.NoError(t, err)
	assert.Equal(t, llm.Config{Provider: "claude", Model: "sonnet"}, s.Generator)
	assert.Equal(t, llm.Config{Provider: llm.ProviderGemini, Model: "gemini-2.0-flash"}, s.Critic)
	assert.Equal(t, 5, s.MaxCodeReflections)
	assert.Equal(t, 2, s.MaxTestRetries)
	assert.Equal(t, 90*time.Second, s.StepTimeout)
	assert.Equal(t, 45*time.Second, s.TestTimeout, "derived from a short step_timeout")
	assert.Equal(t, "out", s.OutputDir)
	assert.Equal(t, "redis://localhost:6379/0", s.TokenStore)
	assert.Equal(t, time.Hour, s.TokenTTL)
	assert.False(t, s.Headless)
	assert.Equal(t, []string{"pytest", "-q"}, s.TestCommand, "a shorter list replaces the default")
}

func TestLoadSettings_TopLevelProvider(t *testing.T) {
	s, err := loadYAML(t, `
provider: openai
model: gpt-4o
critic:
  provider: gemini
`)

	require.NoError(t, err)
	assert.Equal(t, llm.Config{Provider: llm.ProviderOpenAI, Model: "gpt-4o"}, s.Generator)
	assert.Equal(t, llm.Config{Provider: llm.ProviderGemini}, s.Critic, "a model is not shared across providers")
}

func TestLoadSettings_EnvExpansion(t *testing.T) {
	t.Setenv("UITESTGEN_OUT", "/tmp/uitestgen")

	s, err := loadYAML(t, "output_dir: ${UITESTGEN_OUT}/code\n")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/uitestgen/code", s.OutputDir)
}

func TestLoadSettings_Invalid(t *testing.T) {
	_, err := loadYAML(t, `
max_code_reflections: 0
max_test_retries: -1
step_timeout: -1s
output_dir: ""
test_command: []
`)

	require.Error(t, err)
	for _, want := range []string{
		"max_code_reflections must be at least 1, got 0",
		"max_test_retries must be at least 1, got -1",
		"step_timeout must not be negative",
		"output_dir must be set",
		"test_command must not be empty",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoadSettings_TestTimeout(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		step    time.Duration
		test    time.Duration
		wantErr string
	}{
		{"defaults", "", 10 * time.Minute, testrunner.DefaultTimeout, ""},
		{"explicit", "step_timeout: 3m\ntest_timeout: 2m\n", 3 * time.Minute, 2 * time.Minute, ""},
		{"no step bound", "step_timeout: 0s\ntest_timeout: 0s\n", 0, 0, ""},
		{"not shorter", "step_timeout: 1m\ntest_timeout: 1m\n", 0, 0, "test_timeout must be set and shorter than step_timeout 1m0s"},
		{"unbounded test", "step_timeout: 1m\ntest_timeout: 0s\n", 0, 0, "test_timeout must be set and shorter"},
		{"negative", "test_timeout: -1s\n", 0, 0, "test_timeout must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := loadYAML(t, tt.yaml)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.step, s.StepTimeout)
			assert.Equal(t, tt.test, s.TestTimeout)
		})
	}
}

func TestLoadSettings_BadDuration(t *testing.T) {
	_, err := loadYAML(t, "step_timeout: soon\n")

	assert.ErrorContains(t, err, "load settings")
}
