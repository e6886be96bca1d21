package rcpsp

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config gathers the tunables of the propagators and the search heuristic.
//
//	filter: bessiere
//	decay: 0.95
//	log_level: debug
type Config struct {
	// Filter is the AllDiffPrec filtering strategy tag, see ParseFilterKind.
	Filter string `yaml:"filter"`
	// Decay is the rating decay factor of the failure-directed search.
	Decay float64 `yaml:"decay"`
	// LogLevel is a logrus level name.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Filter:   "default",
		Decay:    DefaultDecay,
		LogLevel: "info",
	}
}

// ParseConfig decodes a YAML document over DefaultConfig and validates the
// result. Unknown keys are rejected; an empty document yields the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "parsing rcpsp config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML document from r.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading rcpsp config")
	}
	return ParseConfig(data)
}

// Validate checks every field.
func (c Config) Validate() error {
	if _, err := ParseFilterKind(c.Filter); err != nil {
		return err
	}
	if !(c.Decay > 0 && c.Decay < 1) {
		return errors.Errorf("decay %v must lie in (0, 1)", c.Decay)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}
	return nil
}

// FilterKind returns the parsed filtering strategy.
func (c Config) FilterKind() (FilterKind, error) {
	return ParseFilterKind(c.Filter)
}

// Options turns the configuration into component options. The logger is a
// new logrus logger writing to out (stderr when nil) at the configured
// level; m may be nil.
func (c Config) Options(out io.Writer, m *Metrics) ([]Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	level, _ := logrus.ParseLevel(c.LogLevel)
	logger := logrus.New()
	if out != nil {
		logger.SetOutput(out)
	}
	logger.SetLevel(level)
	return []Option{WithLogger(logger), WithDecay(c.Decay), WithMetrics(m)}, nil
}
