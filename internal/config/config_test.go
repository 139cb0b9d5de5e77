package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leafo/keystolyrics/internal/convert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keystolyrics.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestDefaultMatchesConvertDefaults(t *testing.T) {
	if got, want := Default().Options(), convert.DefaultOptions(); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.File != "" {
		t.Errorf("Expected no config file, got %q", cfg.File)
	}
	if cfg.Section != "ExpertKeyboard" || cfg.LyricLane != 2 || cfg.GapBeats != 2 {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
section: ExpertSingle
lyric_lane: 4
target: events
line_breaks: false
end_offset: 48
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.File != path {
		t.Errorf("Expected file %q, got %q", path, cfg.File)
	}
	if cfg.Section != "ExpertSingle" || cfg.LyricLane != 4 || cfg.Target != "events" {
		t.Errorf("Unexpected values from file: %+v", cfg)
	}
	if cfg.LineBreaks || cfg.EndOffset != 48 {
		t.Errorf("Unexpected policy from file: %+v", cfg)
	}
	// missing keys keep defaults
	if cfg.StartLane != 1 || cfg.EndLane != 3 || cfg.GapBeats != 2 {
		t.Errorf("Expected defaults for missing keys, got %+v", cfg)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected an error for a missing config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "lyric_lane: [1, 2\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected an error for invalid YAML")
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "section: FromFile\ngap_beats: 4\n")

	t.Setenv("KEYSTOLYRICS_SECTION", "FromEnv")
	t.Setenv("KEYSTOLYRICS_GAP_BEATS", "1.5")
	t.Setenv("KEYSTOLYRICS_LINE_BREAKS", "false")
	t.Setenv("KEYSTOLYRICS_END_LANE", "-1")
	t.Setenv("KEYSTOLYRICS_END_OFFSET", "12")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Section != "FromEnv" {
		t.Errorf("Expected section FromEnv, got %q", cfg.Section)
	}
	if cfg.GapBeats != 1.5 || cfg.LineBreaks || cfg.EndLane != -1 || cfg.EndOffset != 12 {
		t.Errorf("Unexpected values from environment: %+v", cfg)
	}
}

func TestInvalidEnvironment(t *testing.T) {
	t.Setenv("KEYSTOLYRICS_LYRIC_LANE", "yellow")
	t.Setenv("KEYSTOLYRICS_VERBOSE", "loud")

	_, err := Load("")
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Expected ErrInvalid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"disabled phrase lanes", func(c *Config) { c.StartLane, c.EndLane = -1, -1 }, true},
		{"events target", func(c *Config) { c.Target = "events" }, true},
		{"empty section", func(c *Config) { c.Section = " " }, false},
		{"negative lyric lane", func(c *Config) { c.LyricLane = -1 }, false},
		{"lane too high", func(c *Config) { c.EndLane = 300 }, false},
		{"lane shared with lyric", func(c *Config) { c.StartLane = 2 }, false},
		{"phrase lanes shared", func(c *Config) { c.EndLane = 1 }, false},
		{"unknown target", func(c *Config) { c.Target = "vocals" }, false},
		{"negative gap", func(c *Config) { c.GapBeats = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalid) {
				t.Errorf("Expected ErrInvalid, got %v", err)
			}
		})
	}
}
