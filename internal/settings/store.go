package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store is the host-side record of per-user settings loaded from YAML.
// The filter never reads this file itself; the host resolves a user's
// settings from the store before each inlet call.
type Store struct {
	Version string `yaml:"version" json:"version"`
	// Defaults overrides the built-in defaults for every user of this
	// deployment. Fields left out keep the declared defaults.
	Defaults Override `yaml:"defaults" json:"defaults"`
	// Users maps a user ID to that user's own overrides.
	Users map[string]Override `yaml:"users" json:"users"`
}

// LoadFromFile loads a settings store from a YAML file.
func LoadFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML bytes into a Store.
func Parse(data []byte) (*Store, error) {
	var s Store
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("validating settings: %w", err)
	}
	return &s, nil
}

// validate checks store integrity.
func validate(s *Store) error {
	if s.Version == "" {
		return fmt.Errorf("settings version is required")
	}
	for id := range s.Users {
		if id == "" {
			return fmt.Errorf("user entries require a non-empty ID")
		}
	}
	return nil
}

// ResolvedDefaults returns the deployment-wide defaults: the declared
// defaults with the store's defaults section applied on top.
func (s *Store) ResolvedDefaults() UserSettings {
	return s.Defaults.Resolve(Defaults())
}

// ResolveUser returns the fully resolved settings for a user. A user with
// no entry in the store gets the deployment defaults.
func (s *Store) ResolveUser(userID string) UserSettings {
	base := s.ResolvedDefaults()
	ov, ok := s.Users[userID]
	if !ok {
		return base
	}
	return ov.Resolve(base)
}
