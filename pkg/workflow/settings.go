package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/uitestgen/pkg/flowgraph"
	"github.com/randalmurphal/uitestgen/pkg/flowgraph/config"
	"github.com/randalmurphal/uitestgen/pkg/llm"
	"github.com/randalmurphal/uitestgen/pkg/testrunner"
	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

// Settings configures the login-test and spec workflows.
//
// The generator writes code, tests and specs; the critic checks whether
// authentication is needed and reviews and repairs code. Top-level Provider
// and Model fill whichever role leaves them empty.
type Settings struct {
	Provider  string     `mapstructure:"provider"`
	Model     string     `mapstructure:"model"`
	Generator llm.Config `mapstructure:"generator"`
	Critic    llm.Config `mapstructure:"critic"`

	MaxCodeReflections int           `mapstructure:"max_code_reflections"`
	MaxTestRetries     int           `mapstructure:"max_test_retries"`
	StepTimeout        time.Duration `mapstructure:"step_timeout"`

	// TestTimeout bounds one run of a generated test. It stays below
	// StepTimeout so a hung test ends with the runner's output rather than
	// the step deadline.
	TestTimeout time.Duration `mapstructure:"test_timeout"`

	// OutputDir receives generated code, tests, screenshots and reports.
	OutputDir string `mapstructure:"output_dir"`

	// TokenStore is a tokenstore.Open URL.
	TokenStore string        `mapstructure:"token_store"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	TokenFile  string        `mapstructure:"token_file"`
	App        string        `mapstructure:"app"`
	Username   string        `mapstructure:"username"`

	Headless    bool     `mapstructure:"headless"`
	TestCommand []string `mapstructure:"test_command"`

	// FailureLimit caps how much test output is fed back to the repair step.
	FailureLimit int `mapstructure:"failure_limit"`

	// Metrics and Tracing enable the OpenTelemetry instruments of a run.
	Metrics bool `mapstructure:"metrics"`
	Tracing bool `mapstructure:"tracing"`
}

// DefaultSettings returns the settings used when configuration is empty.
func DefaultSettings() Settings {
	return Settings{
		Generator:          llm.Config{Provider: llm.ProviderOpenAI},
		Critic:             llm.Config{Provider: llm.ProviderGemini},
		MaxCodeReflections: flowgraph.DefaultMaxIterations,
		MaxTestRetries:     flowgraph.DefaultMaxIterations,
		StepTimeout:        2 * testrunner.DefaultTimeout,
		TestTimeout:        testrunner.DefaultTimeout,
		OutputDir:          "generated_code",
		TokenStore:         "sqlite://auth_tokens.db",
		TokenTTL:           tokenstore.DefaultTTL,
		TokenFile:          "token.json",
		App:                "app",
		Username:           "default",
		Headless:           true,
		TestCommand:        append([]string(nil), testrunner.DefaultCommand...),
		FailureLimit:       4000,
	}
}

// LoadSettings decodes cfg over DefaultSettings.
func LoadSettings(cfg config.Config) (Settings, error) {
	s := DefaultSettings()
	if cfg.Has("test_command") {
		// Decoding into a non-empty slice keeps its trailing elements.
		s.TestCommand = nil
	}
	if err := cfg.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	if !cfg.Has("generator.provider") && s.Provider != "" {
		s.Generator.Provider = s.Provider
	}
	if !cfg.Has("critic.provider") && s.Provider != "" {
		s.Critic.Provider = s.Provider
	}
	if s.Generator.Model == "" {
		s.Generator.Model = s.Model
	}
	if s.Critic.Model == "" && s.Critic.Provider == s.Generator.Provider {
		s.Critic.Model = s.Model
	}
	if !cfg.Has("test_timeout") && s.StepTimeout > 0 && s.TestTimeout >= s.StepTimeout {
		// Half the step is left for the LLM call that writes the test.
		s.TestTimeout = s.StepTimeout / 2
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports every invalid setting.
func (s Settings) Validate() error {
	var errs []error
	if s.MaxCodeReflections < 1 {
		errs = append(errs, fmt.Errorf("max_code_reflections must be at least 1, got %d", s.MaxCodeReflections))
	}
	if s.MaxTestRetries < 1 {
		errs = append(errs, fmt.Errorf("max_test_retries must be at least 1, got %d", s.MaxTestRetries))
	}
	if s.StepTimeout < 0 {
		errs = append(errs, fmt.Errorf("step_timeout must not be negative, got %s", s.StepTimeout))
	}
	switch {
	case s.TestTimeout < 0:
		errs = append(errs, fmt.Errorf("test_timeout must not be negative, got %s", s.TestTimeout))
	case s.StepTimeout > 0 && (s.TestTimeout == 0 || s.TestTimeout >= s.StepTimeout):
		errs = append(errs, fmt.Errorf("test_timeout must be set and shorter than step_timeout %s, got %s",
			s.StepTimeout, s.TestTimeout))
	}
	if s.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must be set"))
	}
	if s.TokenTTL < 0 {
		errs = append(errs, fmt.Errorf("token_ttl must not be negative, got %s", s.TokenTTL))
	}
	if len(s.TestCommand) == 0 {
		errs = append(errs, errors.New("test_command must not be empty"))
	}
	return errors.Join(errs...)
}
