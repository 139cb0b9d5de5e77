// Package config layers conversion settings: built-in defaults, then an
// optional YAML file, then KEYSTOLYRICS_* environment variables (a .env
// file in the working directory is loaded first). Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/leafo/keystolyrics/internal/convert"
)

// DefaultFile is read when no config path is given and it exists
const DefaultFile = "keystolyrics.yaml"

const envPrefix = "KEYSTOLYRICS_"

// ErrInvalid is returned for settings that cannot be used
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Section    string  `yaml:"section"`
	LyricLane  int     `yaml:"lyric_lane"`
	StartLane  int     `yaml:"start_lane"`
	EndLane    int     `yaml:"end_lane"`
	Target     string  `yaml:"target"`
	GapBeats   float64 `yaml:"gap_beats"`
	LineBreaks bool    `yaml:"line_breaks"`
	EndOffset  uint32  `yaml:"end_offset"`
	Verbose    bool    `yaml:"verbose"`

	// File is the config file that was read, empty when none was
	File string `yaml:"-"`
}

func Default() *Config {
	opts := convert.DefaultOptions()
	return &Config{
		Section:    opts.Section,
		LyricLane:  opts.LyricLane,
		StartLane:  opts.StartLane,
		EndLane:    opts.EndLane,
		Target:     string(opts.Target),
		GapBeats:   opts.GapBeats,
		LineBreaks: opts.LineBreaks,
		EndOffset:  opts.EndOffset,
	}
}

// Load builds the configuration. An explicit path must exist; with an
// empty path DefaultFile is used only if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file %s: %w", path, err)
	}

	// fields missing from the file keep their defaults
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	c.File = path
	return nil
}

func (c *Config) applyEnv() error {
	var errs []error

	c.Section = getEnv("SECTION", c.Section)
	c.Target = getEnv("TARGET", c.Target)

	var err error
	if c.LyricLane, err = getEnvInt("LYRIC_LANE", c.LyricLane); err != nil {
		errs = append(errs, err)
	}
	if c.StartLane, err = getEnvInt("START_LANE", c.StartLane); err != nil {
		errs = append(errs, err)
	}
	if c.EndLane, err = getEnvInt("END_LANE", c.EndLane); err != nil {
		errs = append(errs, err)
	}
	if c.GapBeats, err = getEnvFloat("GAP_BEATS", c.GapBeats); err != nil {
		errs = append(errs, err)
	}
	if c.LineBreaks, err = getEnvBool("LINE_BREAKS", c.LineBreaks); err != nil {
		errs = append(errs, err)
	}
	if c.Verbose, err = getEnvBool("VERBOSE", c.Verbose); err != nil {
		errs = append(errs, err)
	}

	offset, err := getEnvInt("END_OFFSET", int(c.EndOffset))
	if err != nil {
		errs = append(errs, err)
	} else if offset < 0 {
		errs = append(errs, fmt.Errorf("%w: %sEND_OFFSET must not be negative", ErrInvalid, envPrefix))
	} else {
		c.EndOffset = uint32(offset)
	}

	return errors.Join(errs...)
}

// Validate checks lanes, target and the phrase policy
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Section) == "" {
		return fmt.Errorf("%w: section name is empty", ErrInvalid)
	}

	if c.LyricLane < 0 || c.LyricLane > 255 {
		return fmt.Errorf("%w: lyric lane %d out of range", ErrInvalid, c.LyricLane)
	}

	for _, lane := range []int{c.StartLane, c.EndLane} {
		if lane < -1 || lane > 255 {
			return fmt.Errorf("%w: phrase lane %d out of range", ErrInvalid, lane)
		}
		if lane == c.LyricLane {
			return fmt.Errorf("%w: phrase lane %d is also the lyric lane", ErrInvalid, lane)
		}
	}
	if c.StartLane >= 0 && c.StartLane == c.EndLane {
		return fmt.Errorf("%w: phrase start and end share lane %d", ErrInvalid, c.StartLane)
	}

	switch convert.Target(c.Target) {
	case convert.TargetSection, convert.TargetEvents:
	default:
		return fmt.Errorf("%w: unknown target %q (expected %q or %q)", ErrInvalid, c.Target, convert.TargetSection, convert.TargetEvents)
	}

	if c.GapBeats < 0 {
		return fmt.Errorf("%w: gap beats must not be negative", ErrInvalid)
	}

	return nil
}

// Options converts the configuration for convert.Convert
func (c *Config) Options() convert.Options {
	return convert.Options{
		Section:    c.Section,
		LyricLane:  c.LyricLane,
		StartLane:  c.StartLane,
		EndLane:    c.EndLane,
		Target:     convert.Target(c.Target),
		GapBeats:   c.GapBeats,
		LineBreaks: c.LineBreaks,
		EndOffset:  c.EndOffset,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s%s=%q is not an integer", ErrInvalid, envPrefix, key, v)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s%s=%q is not a number", ErrInvalid, envPrefix, key, v)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalid, envPrefix, key, v)
	}
	return b, nil
}
