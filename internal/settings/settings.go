// Package settings persists user preferences for the CLI.
//
// Preferences are stored as YAML in the user config directory:
//
//	$XDG_CONFIG_HOME/potrans/config.yaml  (default: ~/.config/potrans/config.yaml)
//
// API keys are never stored here; see package auth.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oukeidos/potrans/internal/files"
)

const (
	dirName  = "potrans"
	fileName = "config.yaml"

	// DefaultContext is the UI context used when none is configured.
	DefaultContext = "WordPress plugin UI"
)

// Settings holds saved preferences. Zero values mean "not set" and fall back
// to built-in defaults.
type Settings struct {
	Provider              string `yaml:"provider,omitempty"`
	Model                 string `yaml:"model,omitempty"`
	TargetLang            string `yaml:"target_lang,omitempty"`
	Context               string `yaml:"context,omitempty"`
	Overwrite             bool   `yaml:"overwrite,omitempty"`
	TranslatePlaceholders bool   `yaml:"translate_placeholders,omitempty"`
	MarkFuzzy             bool   `yaml:"mark_fuzzy,omitempty"`
	Concurrency           int    `yaml:"concurrency,omitempty"`
	DelayMS               int    `yaml:"delay_ms,omitempty"`
	Proxy                 string `yaml:"proxy,omitempty"`
	BaseURL               string `yaml:"base_url,omitempty"`
	Glossary              string `yaml:"glossary,omitempty"`
	LogLevel              string `yaml:"log_level,omitempty"`
}

// Dir returns the potrans config directory.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(base, dirName), nil
}

// Path returns the config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads settings from path. A missing file yields empty settings.
func Load(path string) (Settings, error) {
	var s Settings
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return s, nil
}

// LoadDefault loads settings from Path().
func LoadDefault() (Settings, error) {
	path, err := Path()
	if err != nil {
		return Settings{}, err
	}
	return Load(path)
}

// Save writes settings to path atomically with 0600 permissions.
func Save(path string, s Settings) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := files.AtomicWrite(path, data, 0600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// EffectiveContext returns the configured context or DefaultContext.
func (s Settings) EffectiveContext() string {
	if c := strings.TrimSpace(s.Context); c != "" {
		return c
	}
	return DefaultContext
}

type field struct {
	get func(*Settings) string
	set func(*Settings, string) error
}

func stringField(p func(*Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *p(s) },
		set: func(s *Settings, v string) error { *p(s) = strings.TrimSpace(v); return nil },
	}
}

func boolField(p func(*Settings) *bool) field {
	return field{
		get: func(s *Settings) string { return strconv.FormatBool(*p(s)) },
		set: func(s *Settings, v string) error {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("expected true or false, got %q", v)
			}
			*p(s) = b
			return nil
		},
	}
}

func intField(p func(*Settings) *int) field {
	return field{
		get: func(s *Settings) string { return strconv.Itoa(*p(s)) },
		set: func(s *Settings, v string) error {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil || n < 0 {
				return fmt.Errorf("expected a non-negative integer, got %q", v)
			}
			*p(s) = n
			return nil
		},
	}
}

var fields = map[string]field{
	"provider":               stringField(func(s *Settings) *string { return &s.Provider }),
	"model":                  stringField(func(s *Settings) *string { return &s.Model }),
	"target_lang":            stringField(func(s *Settings) *string { return &s.TargetLang }),
	"context":                stringField(func(s *Settings) *string { return &s.Context }),
	"overwrite":              boolField(func(s *Settings) *bool { return &s.Overwrite }),
	"translate_placeholders": boolField(func(s *Settings) *bool { return &s.TranslatePlaceholders }),
	"mark_fuzzy":             boolField(func(s *Settings) *bool { return &s.MarkFuzzy }),
	"concurrency":            intField(func(s *Settings) *int { return &s.Concurrency }),
	"delay_ms":               intField(func(s *Settings) *int { return &s.DelayMS }),
	"proxy":                  stringField(func(s *Settings) *string { return &s.Proxy }),
	"base_url":               stringField(func(s *Settings) *string { return &s.BaseURL }),
	"glossary":               stringField(func(s *Settings) *string { return &s.Glossary }),
	"log_level":              stringField(func(s *Settings) *string { return &s.LogLevel }),
}

// Keys returns the settable keys, sorted.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the string form of key.
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return f.get(s), nil
}

// Set parses value into key.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	if err := f.set(s, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}
