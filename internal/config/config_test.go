package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileYieldsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Connection.Protocol != ProtocolAuto {
		t.Errorf("expected default protocol auto, got %q", cfg.Connection.Protocol)
	}
	if cfg.Terminal.ScreenSize != Model2 {
		t.Errorf("expected default screen size Model2, got %q", cfg.Terminal.ScreenSize)
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Connection.Host = "as400.example.com"
	cfg.Connection.Port = 23
	cfg.Connection.Protocol = ProtocolTN5250
	cfg.Terminal.Type = "IBM-5555-C01"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Connection.Host != cfg.Connection.Host {
		t.Errorf("host mismatch: got %q want %q", loaded.Connection.Host, cfg.Connection.Host)
	}
	if loaded.Connection.Port != cfg.Connection.Port {
		t.Errorf("port mismatch: got %d want %d", loaded.Connection.Port, cfg.Connection.Port)
	}
}

func TestValidate_TerminalTypeMismatch(t *testing.T) {
	cfg := Default()
	cfg.Connection.Protocol = ProtocolTN3270
	cfg.Terminal.Type = "IBM-5555-C01" // a 5250 device type

	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for 5250 terminal.type under tn3270 protocol")
	}
}

func TestValidate_CompatibleTerminalType(t *testing.T) {
	cfg := Default()
	cfg.Connection.Protocol = ProtocolTN3270
	cfg.Terminal.Type = "IBM-3278-2"

	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestResolvePath_EnvOverride(t *testing.T) {
	os.Setenv("TN5250R_CONFIG", "/tmp/override.json")
	defer os.Unsetenv("TN5250R_CONFIG")

	if got := ResolvePath("/tmp/default.json"); got != "/tmp/override.json" {
		t.Errorf("expected env override, got %q", got)
	}
}

func TestResolvePath_DefaultWhenUnset(t *testing.T) {
	os.Unsetenv("TN5250R_CONFIG")
	if got := ResolvePath("/tmp/default.json"); got != "/tmp/default.json" {
		t.Errorf("expected default path, got %q", got)
	}
}

func TestScreenSize_Dimensions(t *testing.T) {
	cases := []struct {
		size       ScreenSize
		rows, cols int
	}{
		{Model2, 24, 80},
		{Model3, 32, 80},
		{Model4, 43, 80},
		{Model5, 27, 132},
	}
	for _, c := range cases {
		rows, cols, err := c.size.Dimensions()
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", c.size, err)
		}
		if rows != c.rows || cols != c.cols {
			t.Errorf("%s: got (%d,%d) want (%d,%d)", c.size, rows, cols, c.rows, c.cols)
		}
	}
}

func TestScreenSize_Unknown(t *testing.T) {
	if _, _, err := ScreenSize("Model99").Dimensions(); err == nil {
		t.Error("expected error for unknown screen size")
	}
}

func TestProfiles_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.json")
	profiles := []Profile{
		NewProfile("AS/400 Prod", "as400.example.com", 23, ProtocolTN5250),
		NewProfile("Mainframe Test", "mvs.example.com", 992, ProtocolTN3270),
	}

	if err := SaveProfiles(path, profiles); err != nil {
		t.Fatalf("SaveProfiles failed: %v", err)
	}
	loaded, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(loaded))
	}
	if loaded[0].Name != "AS/400 Prod" {
		t.Errorf("unexpected profile name: %q", loaded[0].Name)
	}
}

func TestLoadProfiles_MissingFile(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("expected empty slice, got %d entries", len(profiles))
	}
}
