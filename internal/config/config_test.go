package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/cobra"
)

// testOptions mirrors the shape of the CLI options struct.
type testOptions struct {
	Config string `help:"Config file path"`

	Listen     string        `toml:"server.listen" env:"SERVER_LISTEN"`
	Pixels     int           `toml:"strip.pixels" env:"STRIP_PIXELS"`
	Power      bool          `toml:"strip.power" env:"STRIP_POWER"`
	Period     time.Duration `toml:"strip.period" env:"STRIP_PERIOD"`
	Brightness float64       `toml:"strip.brightness" env:"STRIP_BRIGHTNESS"`
	Tags       []string      `toml:"strip.tags" env:"STRIP_TAGS"`
	Untagged   string
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const sampleTOML = `
[server]
listen = ":9000"

[strip]
pixels = 60
power = true
period = "250ms"
brightness = 0.5
tags = ["porch", "front"]
`

func TestLoadConfigFromTOML(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := testOptions{
		Config:     opts.Config,
		Listen:     ":9000",
		Pixels:     60,
		Power:      true,
		Period:     250 * time.Millisecond,
		Brightness: 0.5,
		Tags:       []string{"porch", "front"},
	}
	if !reflect.DeepEqual(*opts, want) {
		t.Errorf("got %+v\nwant %+v", *opts, want)
	}
}

func TestLoadConfigIntegerDurationIsMilliseconds(t *testing.T) {
	opts := &testOptions{Config: writeConfig(t, "[strip]\nperiod = 40\n")}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatal(err)
	}
	if opts.Period != 40*time.Millisecond {
		t.Errorf("Period = %v, want 40ms", opts.Period)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	t.Setenv("STRIPNODE_STRIP_PIXELS", "144")
	t.Setenv("STRIPNODE_STRIP_PERIOD", "1s")
	t.Setenv("STRIPNODE_STRIP_TAGS", "a, b")
	t.Setenv("STRIPNODE_STRIP_POWER", "false")

	opts := &testOptions{Config: writeConfig(t, sampleTOML)}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatal(err)
	}

	if opts.Pixels != 144 || opts.Period != time.Second || opts.Power {
		t.Errorf("env did not override TOML: %+v", opts)
	}
	if !reflect.DeepEqual(opts.Tags, []string{"a", "b"}) {
		t.Errorf("Tags = %q", opts.Tags)
	}
	if opts.Listen != ":9000" {
		t.Errorf("Listen = %q, want TOML value", opts.Listen)
	}
}

func TestLoadConfigCLIFlagsWin(t *testing.T) {
	t.Setenv("STRIPNODE_SERVER_LISTEN", ":7000")

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("listen", ":80", "")
	cmd.Flags().Int("pixels", 8, "")
	if err := cmd.Flags().Set("listen", ":6000"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("pixels", "12"); err != nil {
		t.Fatal(err)
	}

	opts := &testOptions{Config: writeConfig(t, sampleTOML), Listen: ":6000", Pixels: 12}
	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatal(err)
	}
	if opts.Listen != ":6000" || opts.Pixels != 12 {
		t.Errorf("CLI values overwritten: listen=%q pixels=%d", opts.Listen, opts.Pixels)
	}
	if !opts.Power {
		t.Error("unset flags should still come from TOML")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "absent.toml"), Pixels: 8}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if opts.Pixels != 8 {
		t.Errorf("Pixels = %d, want default kept", opts.Pixels)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		env  map[string]string
	}{
		{name: "invalid toml", toml: "[strip\npixels = "},
		{name: "wrong toml type", toml: "[strip]\npixels = \"many\"\n"},
		{name: "bad toml duration", toml: "[strip]\nperiod = \"soon\"\n"},
		{name: "bad env int", env: map[string]string{"STRIPNODE_STRIP_PIXELS": "lots"}},
		{name: "bad env bool", env: map[string]string{"STRIPNODE_STRIP_POWER": "maybe"}},
		{name: "bad env duration", env: map[string]string{"STRIPNODE_STRIP_PERIOD": "10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			opts := &testOptions{}
			if tt.toml != "" {
				opts.Config = writeConfig(t, tt.toml)
			}
			if err := LoadConfig(opts, nil); err == nil {
				t.Error("expected error")
			}
		})
	}

	if err := LoadConfig(testOptions{}, nil); err == nil {
		t.Error("expected error for non-pointer options")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":             "port",
		"LoggingLevel":     "logging-level",
		"StripPixels":      "strip-pixels",
		"ParserMaxBody":    "parser-max-body",
		"AdminListen":      "admin-listen",
		"DefaultColor":     "default-color",
		"ConnStallTimeout": "conn-stall-timeout",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	doc := map[string]any{
		"top": "value",
		"a":   map[string]any{"b": map[string]any{"c": int64(3)}},
	}
	tests := []struct {
		path string
		want any
	}{
		{"top", "value"},
		{"a.b.c", int64(3)},
		{"a.missing", nil},
		{"top.deeper", nil},
		{"nope.c", nil},
	}
	for _, tt := range tests {
		if got := getNestedValue(doc, tt.path); got != tt.want {
			t.Errorf("getNestedValue(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "debug"
format = "json"
loop = "warn"
router = "error"
`)
	cfg, err := LoadLoggingConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Level != "debug" || cfg.Format != "json" {
		t.Errorf("cfg = %+v", cfg)
	}
	want := map[string]string{"loop": "warn", "router": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}

	defaults, err := LoadLoggingConfig("")
	if err != nil || defaults.Level != "info" || defaults.Format != "text" {
		t.Errorf("defaults = %+v, %v", defaults, err)
	}

	if _, err := LoadLoggingConfig(writeConfig(t, "[logging\n")); err == nil {
		t.Error("expected parse error")
	}
}
