// Package config loads service configuration from YAML files with
// environment variable overrides and supports watching files for changes.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load reads the YAML file at path into cfg.
func Load[T any](path string, cfg *T) error {
	return LoadWithEnv(path, "", cfg)
}

// LoadWithEnv reads the YAML file at path into cfg and then applies
// environment variables with the given prefix on top. An env var like
// PREFIX_SERVER__PORT overrides the key server.port; a double underscore
// separates nesting levels so single underscores survive in key names.
// An empty path skips the file and loads from the environment only.
func LoadWithEnv[T any](path, envPrefix string, cfg *T) error {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if envPrefix != "" {
		prefix := strings.ToUpper(envPrefix)
		if !strings.HasSuffix(prefix, "_") {
			prefix += "_"
		}
		if err := k.Load(env.Provider(prefix, ".", func(s string) string {
			return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, prefix)), "__", ".")
		}), nil); err != nil {
			return fmt.Errorf("load env vars: %w", err)
		}
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}
