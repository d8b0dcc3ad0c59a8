// Package config loads, validates, and persists the engine's
// configuration keys (spec.md §6) and session profile documents using a
// plain encoding/json load/validate/save shape.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stlalpha/tn5250term/internal/engineerrors"
)

// Protocol selects the dialect a connection should use (spec.md §6,
// connection.protocol).
type Protocol string

const (
	ProtocolAuto    Protocol = "auto"
	ProtocolTN5250  Protocol = "tn5250"
	ProtocolTN3270  Protocol = "tn3270"
	ProtocolNVT     Protocol = "nvt"
)

// ScreenSize names a terminal geometry class (spec.md §6, terminal.screenSize).
type ScreenSize string

const (
	Model2 ScreenSize = "Model2" // 24x80
	Model3 ScreenSize = "Model3" // 32x80
	Model4 ScreenSize = "Model4" // 43x80
	Model5 ScreenSize = "Model5" // 27x132
)

// Dimensions returns the (rows, cols) a ScreenSize names, per spec.md §3's
// four fixed geometries.
func (s ScreenSize) Dimensions() (rows, cols int, err error) {
	switch s {
	case Model2:
		return 24, 80, nil
	case Model3:
		return 32, 80, nil
	case Model4:
		return 43, 80, nil
	case Model5:
		return 27, 132, nil
	default:
		return 0, 0, engineerrors.New(engineerrors.KindConfig, fmt.Sprintf("unknown terminal.screenSize %q", s))
	}
}

// defaultTerminalType returns the dialect-appropriate default device-id
// string (spec.md §6, "the default depends on dialect").
func defaultTerminalType(p Protocol) string {
	switch p {
	case ProtocolTN3270:
		return "IBM-3278-2"
	default:
		return "IBM-5555-C01"
	}
}

// Config holds the configuration keys spec.md §6 enumerates. JSON tags
// mirror the dotted key names so the on-disk document and §6 stay in
// lockstep.
type Config struct {
	Connection struct {
		Host     string   `json:"host"`
		Port     int      `json:"port"`
		SSL      bool     `json:"ssl"`
		Protocol Protocol `json:"protocol"`
		TLS      struct {
			Insecure      bool   `json:"insecure"`
			CABundlePath  string `json:"caBundlePath"`
		} `json:"tls"`
	} `json:"connection"`

	Terminal struct {
		Type       string     `json:"type"`
		ScreenSize ScreenSize `json:"screenSize"`
		Rows       int        `json:"rows"`
		Cols       int        `json:"cols"`
	} `json:"terminal"`

	Session struct {
		Timeout int `json:"timeout"` // seconds
	} `json:"session"`
}

// Default returns a Config with the engine's stated defaults: AutoDetect
// protocol, Model2 geometry, SSL off (the port-992 auto-heuristic lives in
// internal/transport, not here).
func Default() Config {
	var c Config
	c.Connection.Protocol = ProtocolAuto
	c.Terminal.ScreenSize = Model2
	c.Terminal.Rows = 24
	c.Terminal.Cols = 80
	c.Terminal.Type = defaultTerminalType(ProtocolAuto)
	c.Session.Timeout = 300
	return c
}

// configPathEnv is the environment variable spec.md §6 names to override
// the config file path.
const configPathEnv = "TN5250R_CONFIG"

// ResolvePath returns the config file path: the TN5250R_CONFIG override
// if set, otherwise the caller-supplied default.
func ResolvePath(defaultPath string) string {
	if p := os.Getenv(configPathEnv); p != "" {
		return p
	}
	return defaultPath
}

// Load reads and validates a Config document from path. A missing file is
// not an error: Default() is returned instead.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, engineerrors.Wrap(engineerrors.KindConfig, "read config file", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, engineerrors.Wrap(engineerrors.KindConfig, "parse config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON, creating parent directories
// as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return engineerrors.Wrap(engineerrors.KindConfig, "create config directory", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return engineerrors.Wrap(engineerrors.KindConfig, "marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return engineerrors.Wrap(engineerrors.KindConfig, "write config file", err)
	}
	return nil
}

// Validate checks the cross-key constraint spec.md §6 requires: the
// configured terminal.type must be compatible with connection.protocol.
func (c Config) Validate() error {
	switch c.Connection.Protocol {
	case ProtocolAuto, ProtocolTN5250, ProtocolTN3270, ProtocolNVT, "":
	default:
		return engineerrors.New(engineerrors.KindConfig, fmt.Sprintf("unknown connection.protocol %q", c.Connection.Protocol))
	}

	if c.Connection.TLS.Insecure && !c.Connection.SSL && c.Connection.Protocol != ProtocolAuto {
		// insecure is meaningless without ssl; not fatal, just unreachable
		// in practice, so no error here — only a mismatch of type vs.
		// protocol is validation-fatal per spec.md.
	}

	if c.Terminal.Type == "" {
		return nil
	}

	switch c.Connection.Protocol {
	case ProtocolTN3270:
		if !is3270DeviceType(c.Terminal.Type) {
			return engineerrors.New(engineerrors.KindConfig,
				fmt.Sprintf("terminal.type %q is not a valid 3270 device type for connection.protocol=tn3270", c.Terminal.Type))
		}
	case ProtocolTN5250:
		if !is5250DeviceType(c.Terminal.Type) {
			return engineerrors.New(engineerrors.KindConfig,
				fmt.Sprintf("terminal.type %q is not a valid 5250 device type for connection.protocol=tn5250", c.Terminal.Type))
		}
	}
	return nil
}

func is3270DeviceType(t string) bool {
	switch t {
	case "IBM-3278-2", "IBM-3278-3", "IBM-3278-4", "IBM-3278-5",
		"IBM-3279-2", "IBM-3279-3":
		return true
	default:
		return false
	}
}

func is5250DeviceType(t string) bool {
	switch t {
	case "IBM-5555-C01", "IBM-5555-B01", "IBM-3477-FC", "IBM-3477-FG":
		return true
	default:
		return false
	}
}
