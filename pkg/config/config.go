// Package config loads the mp4.Config options (§6) from a YAML file and
// environment variables, the way the rest of this family of tools does.
// Calling the mp4 package's core functions directly with a zero-value-plus-
// DefaultConfig struct never requires this package; New exists purely as a
// convenience constructor for command-line callers.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/francescocaponio/dronegeo/pkg/mp4"
)

// New loads an mp4.Config by layering, in order: struct defaults
// (github.com/creasty/defaults tags on mp4.Config), an optional YAML file,
// then environment variables prefixed with DRONEGEO_.
//
// Load order (later sources override earlier):
//  1. Struct defaults
//  2. Config file (configPath, or DRONEGEO_CONFIG_FILE env var, or ./dronegeo.yaml)
//  3. Environment variables
func New(configPath string) (*mp4.Config, error) {
	cfg := &mp4.Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set config defaults")
	}

	k := koanf.New(".")

	if configPath == "" {
		configPath = os.Getenv("DRONEGEO_CONFIG_FILE")
	}
	if configPath == "" {
		configPath = "dronegeo.yaml"
	}
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to load config file %s", configPath)
		}
	}

	if err := k.Load(env.Provider("DRONEGEO_", ".", envKeyToField), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load environment variables")
	}

	if len(k.All()) > 0 {
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal config")
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envKeyToField(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, "DRONEGEO_"))
}

// validateConfig runs struct validation tags and returns a single
// user-facing error describing every violation found.
func validateConfig(cfg *mp4.Config) error {
	validate := validator.New()
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "config validation failed")
	}

	var msgs []string
	for _, e := range validationErrors {
		msgs = append(msgs, fmt.Sprintf("invalid config %s: %s", e.StructField(), e.Tag()))
	}

	return errors.New("configuration validation failed:\n\n" + strings.Join(msgs, "\n\n"))
}
