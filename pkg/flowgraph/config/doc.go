/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps the map produced by decoding a YAML or JSON file and provides
typed accessors that return a default when a key is missing or has the wrong
type. Dotted keys descend into nested sections.

	cfg, err := config.FromFile("uitestgen.yaml")
	if err != nil {
	    return err
	}

	timeout := cfg.Duration("step_timeout", 5*time.Minute)
	retries := cfg.Int("max_test_retries", 3)
	store := cfg.String("token_store.url", "memory://")

# Struct Decoding

Decode fills a struct through its `mapstructure` tags:

	type Settings struct {
	    Provider    string        `mapstructure:"provider"`
	    StepTimeout time.Duration `mapstructure:"step_timeout"`
	}

	var s Settings
	err := cfg.Decode(&s)

# Environment

String values may reference environment variables as ${NAME}; they are
expanded by String and Decode. API keys are usually supplied this way:

	openai_api_key: ${OPENAI_API_KEY}

# Type Coercion

Duration accepts strings parsed by time.ParseDuration ("30s", "1h30m"),
numbers interpreted as seconds, and time.Duration values. Int converts a
float64 only when it has no fractional part.

# Thread Safety

Config is safe for concurrent read access. With returns a copy; the
underlying map is never modified.
*/
package config
