// Package config loads the lox CLI configuration from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Config holds CLI settings.
type Config struct {
	Prompt             string `yaml:"prompt"`
	ContinuationPrompt string `yaml:"continuation_prompt"`
	HistoryDB          string `yaml:"history_db"`
	HistoryLimit       int    `yaml:"history_limit"`
	Color              bool   `yaml:"color"`
	ShowTree           bool   `yaml:"show_tree"`
	Trace              bool   `yaml:"trace"`
	Stdlib             bool   `yaml:"stdlib"`
}

// Default returns the configuration used when no file sets a key.
func Default() Config {
	return Config{
		Prompt:             ">>> ",
		ContinuationPrompt: "... ",
		HistoryDB:          "lox.db",
		HistoryLimit:       100,
		Color:              true,
		Stdlib:             true,
	}
}

// ValidationError aggregates configuration problems.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "config: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("config validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// DefaultPath returns $XDG_CONFIG_HOME/lox/config.yaml, falling back to
// ~/.config/lox/config.yaml. It returns "" when neither can be resolved.
func DefaultPath() string {
	env.Load()
	if dir := env.Str("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lox", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lox", "config.yaml")
}

// Load reads the file at path over the defaults. When explicit is false a
// missing file, or a path through something that is not a directory, is not
// an error. Unknown keys are rejected.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if !explicit && (errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from LOX_* variables. NO_COLOR with any value
// disables color.
func (c *Config) ApplyEnv() {
	env.Load()
	if env.Has("LOX_HISTORY_DB") {
		c.HistoryDB = env.Str("LOX_HISTORY_DB")
	}
	if env.Has("LOX_HISTORY_LIMIT") {
		c.HistoryLimit = env.Int("LOX_HISTORY_LIMIT", c.HistoryLimit)
	}
	c.Prompt = env.Str("LOX_PROMPT", c.Prompt)
	if env.Has("LOX_TRACE") {
		c.Trace = env.Bool("LOX_TRACE")
	}
	if env.Has("LOX_SHOW_TREE") {
		c.ShowTree = env.Bool("LOX_SHOW_TREE")
	}
	if env.Has("NO_COLOR") {
		c.Color = false
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs ValidationError
	if c.HistoryLimit < 0 {
		errs.Issues = append(errs.Issues, fmt.Sprintf("history_limit must be >= 0, got %d", c.HistoryLimit))
	}
	if c.Prompt == "" {
		errs.Issues = append(errs.Issues, "prompt must be non-empty")
	}
	if c.ContinuationPrompt == "" {
		errs.Issues = append(errs.Issues, "continuation_prompt must be non-empty")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}
