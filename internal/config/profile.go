package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/stlalpha/tn5250term/internal/engineerrors"
)

// Profile is a persisted session profile document (spec.md §6). The core
// treats it as opaque data storage — only the listed fields influence
// connection behavior; the rest is passed through for the UI's benefit.
type Profile struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Host        string     `json:"host"`
	Port        int        `json:"port"`
	Protocol    Protocol   `json:"protocol"`
	Username    string     `json:"username"`
	Password    string     `json:"password,omitempty"`
	ScreenSize  ScreenSize `json:"screenSize"`
	AutoConnect bool       `json:"autoConnect"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// NewProfile creates a Profile with a fresh id and created/updated
// timestamps set to now.
func NewProfile(name, host string, port int, protocol Protocol) Profile {
	now := time.Now()
	return Profile{
		ID:        uuid.New().String(),
		Name:      name,
		Host:      host,
		Port:      port,
		Protocol:  protocol,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LoadProfiles reads the list of session profiles from path. A missing
// file yields an empty slice, not an error.
func LoadProfiles(path string) ([]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, engineerrors.Wrap(engineerrors.KindConfig, "read profiles", err)
	}
	var profiles []Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, engineerrors.Wrap(engineerrors.KindConfig, "parse profiles", err)
	}
	return profiles, nil
}

// SaveProfiles writes profiles to path as indented JSON.
func SaveProfiles(path string, profiles []Profile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return engineerrors.Wrap(engineerrors.KindConfig, "create profiles directory", err)
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return engineerrors.Wrap(engineerrors.KindConfig, "marshal profiles", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return engineerrors.Wrap(engineerrors.KindConfig, "write profiles", err)
	}
	return nil
}
