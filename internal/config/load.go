package config

import (
	"os"
	"regexp"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// matches $(VAR_NAME)
var envPattern = regexp.MustCompile(`\$\(([A-Za-z0-9_]+)\)`)

// replaces $(VAR) with os.Getenv(VAR)
func expandEnvVars(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := mapEnvKey(envPattern.FindStringSubmatch(m)[1])
		return os.Getenv(key)
	})
}

// Load reads, expands, defaults and validates the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling yaml")
	}

	// second pass only to tell "absent" from "zero"
	var raw map[string]any
	if err := yaml.Unmarshal(expanded, &raw); err != nil {
		return nil, errors.Wrap(err, "unmarshalling yaml")
	}
	cfg.applyDefaults(raw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
