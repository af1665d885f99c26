package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Decode copies the configuration into out, which must be a pointer to a
// struct. Fields are matched by their `mapstructure` tag.
//
// Strings are expanded from the environment, durations accept the same forms
// as Duration, and comma-separated strings decode into string slices.
// Unknown keys are ignored.
func (c Config) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			expandEnvHook,
			durationHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(c.data); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Section decodes the nested section at key into out.
func (c Config) Section(key string, out any) error {
	if err := c.Sub(key).Decode(out); err != nil {
		return fmt.Errorf("section %s: %w", key, err)
	}
	return nil
}

func expandEnvHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return data, nil
	}
	return os.ExpandEnv(s), nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func durationHook(from, to reflect.Type, data any) (any, error) {
	if to != durationType {
		return data, nil
	}
	d, ok := toDuration(data)
	if !ok {
		return nil, fmt.Errorf("invalid duration %v", data)
	}
	return d, nil
}
