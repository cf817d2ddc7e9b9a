// Package config defines the Go struct types for the harness configuration
// YAML schema and provides strict YAML parsing.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the search root when no
// --config flag is given.
const FileName = "simverify.yaml"

// Config is the top-level document controlling one verification run.
type Config struct {
	Engine         Engine `yaml:"engine"                    json:"engine"                    jsonschema:"required"`
	Reference      string `yaml:"reference,omitempty"       json:"reference,omitempty"`
	ModelExtension string `yaml:"model_extension,omitempty" json:"model_extension,omitempty"`
	Timeout        string `yaml:"timeout,omitempty"         json:"timeout,omitempty"         jsonschema:"pattern=^[0-9]+(s|m|h)$"`
	LogFile        string `yaml:"log_file,omitempty"        json:"log_file,omitempty"`
	Filter         string `yaml:"filter,omitempty"          json:"filter,omitempty"`
}

// Engine identifies the external simulation engine and the exact argument
// shape of a verification invocation:
//
//	<binary> <subcommand> <model-file> <verify-flag> <reference-file>
//
// Argument order is part of the engine's CLI contract and must not change.
type Engine struct {
	Binary     string `yaml:"binary"                json:"binary"                jsonschema:"required"`
	Subcommand string `yaml:"subcommand"            json:"subcommand"            jsonschema:"required"`
	VerifyFlag string `yaml:"verify_flag,omitempty" json:"verify_flag,omitempty"`
}

// Default returns the configuration used when no file and no preset is given.
// It matches the kalixcli preset.
func Default() *Config {
	cfg, _ := Preset("kalixcli")
	return cfg
}

// Preset returns a named built-in configuration. Two presets exist, one per
// historical harness variant:
//
//   - kalixcli: verifies with `kalixcli sim`, expects
//     mbal_for_verification.txt next to each model, writes no log file.
//   - kalix: verifies with `kalix simulate`, expects mbal.txt next to each
//     model, persists the transcript to verify_all_models_log.txt.
func Preset(name string) (*Config, error) {
	switch name {
	case "kalixcli":
		return &Config{
			Engine: Engine{
				Binary:     "kalixcli",
				Subcommand: "sim",
				VerifyFlag: "-v",
			},
			Reference:      "mbal_for_verification.txt",
			ModelExtension: ".ini",
			Timeout:        "300s",
		}, nil
	case "kalix":
		return &Config{
			Engine: Engine{
				Binary:     "kalix",
				Subcommand: "simulate",
				VerifyFlag: "-v",
			},
			Reference:      "mbal.txt",
			ModelExtension: ".ini",
			Timeout:        "300s",
			LogFile:        "verify_all_models_log.txt",
		}, nil
	default:
		return nil, fmt.Errorf("unknown preset %q (available: kalixcli, kalix)", name)
	}
}

// LoadFile reads and parses a configuration YAML file with strict
// unknown-field rejection (yaml.v3 KnownFields). Fields left empty in the
// file keep their kalixcli-preset defaults, so a config file only needs to
// state what it overrides.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses a configuration from an io.Reader with strict unknown-field
// rejection.
func Load(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown fields

	cfg := Default()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Resolve locates and loads the effective configuration. Resolution order:
// explicit path if non-empty, then <root>/simverify.yaml if present, then the
// built-in defaults.
func Resolve(explicit, root string) (*Config, error) {
	if explicit != "" {
		return LoadFile(explicit)
	}
	candidate := filepath.Join(root, FileName)
	if _, err := os.Stat(candidate); err == nil {
		return LoadFile(candidate)
	}
	return Default(), nil
}

// TimeoutDuration parses the Timeout field. An empty field means the
// 300-second default.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 300 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}
