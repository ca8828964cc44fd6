package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"factories-generator/internal/annotation"
)

// Default values applied by Parse.
const (
	DefaultOutput    = "build/generated/resources"
	DefaultRoundSize = 8
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root of factories.yaml.
type Config struct {
	Version     string          `yaml:"version"`
	Namespace   string          `yaml:"namespace"`
	Dir         string          `yaml:"dir,omitempty"`
	Patterns    []string        `yaml:"patterns"`
	Output      string          `yaml:"output"`
	RoundSize   int             `yaml:"round_size"`
	Workers     int             `yaml:"workers"`
	Tests       bool            `yaml:"tests,omitempty"`
	BuildTags   []string        `yaml:"build_tags,omitempty"`
	Manifest    *bool           `yaml:"manifest,omitempty"`
	MetricsFile string          `yaml:"metrics_file,omitempty"`
	Log         LogConfig       `yaml:"log"`
	Annotations []AnnotationDef `yaml:"annotations,omitempty"`
}

// LogConfig selects the logger flavor.
type LogConfig struct {
	Mode    string `yaml:"mode"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// AnnotationDef declares an annotation type that is not part of the scanned
// packages, as if it carried //<namespace>:annotation and a provider marker.
type AnnotationDef struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value,omitempty"`
	AOT   bool   `yaml:"aot,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	applyDefaults(c)

	return c
}

// LoadFile loads and parses a YAML configuration file from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Config, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var c Config

	err := yaml.Unmarshal(data, &c)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(c *Config) {
	if c.Version == "" {
		c.Version = "1"
	}

	if c.Namespace == "" {
		c.Namespace = annotation.DefaultNamespace
	}

	if len(c.Patterns) == 0 {
		c.Patterns = []string{"./..."}
	}

	if c.Output == "" {
		c.Output = DefaultOutput
	}

	if c.RoundSize <= 0 {
		c.RoundSize = DefaultRoundSize
	}

	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}

	if c.Manifest == nil {
		enabled := true
		c.Manifest = &enabled
	}

	if c.Log.Mode == "" {
		c.Log.Mode = "development"
	}
}

// WriteManifest reports whether the dependency manifest should be written.
func (c *Config) WriteManifest() bool {
	return c.Manifest == nil || *c.Manifest
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	var errs []error

	if c.Version != "1" {
		errs = append(errs, fmt.Errorf("%w: unsupported version %q", ErrInvalid, c.Version))
	}

	if strings.ContainsAny(c.Namespace, " \t:/") {
		errs = append(errs, fmt.Errorf("%w: namespace %q must be a single word", ErrInvalid, c.Namespace))
	}

	switch strings.ToLower(c.Log.Mode) {
	case "development", "dev", "production", "prod":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown log mode %q", ErrInvalid, c.Log.Mode))
	}

	seen := make(map[string]bool)
	for i, a := range c.Annotations {
		if !IsQualified(a.Name) {
			errs = append(errs, fmt.Errorf("%w: annotations[%d].name %q must be a fully qualified type name", ErrInvalid, i, a.Name))
		}

		if a.Value != "" && a.Value != annotation.VoidValue && !IsQualified(a.Value) {
			errs = append(errs, fmt.Errorf("%w: annotations[%d].value %q must be a fully qualified type name", ErrInvalid, i, a.Value))
		}

		if seen[a.Name] {
			errs = append(errs, fmt.Errorf("%w: annotation %q declared twice", ErrInvalid, a.Name))
		}

		seen[a.Name] = true
	}

	return errors.Join(errs...)
}

// IsQualified reports whether name looks like "<import path>.<Type>".
func IsQualified(name string) bool {
	dot := strings.LastIndex(name, ".")
	if dot <= 0 || dot == len(name)-1 {
		return false
	}

	return !strings.Contains(name[dot+1:], "/")
}

// Marshal serializes a Config to YAML.
func Marshal(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}
