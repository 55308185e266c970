package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/containerd/errdefs"
	"gopkg.in/ini.v1"
)

// Keys recognised in the env-style configuration file
const (
	KeyGitHubUsername     = "GITHUB_USERNAME"
	KeyGitHubToken        = "GITHUB_TOKEN"
	KeyGitHubOrganisation = "GITHUB_ORGANISATION"
	KeyGitHubRepo         = "GITHUB_REPO"
	KeyEmail              = "EMAIL"
	KeySetupStep          = "setup_step"
)

// IdentityKeys lists the keys every usable configuration must define, in
// the order they are validated.
var IdentityKeys = []string{
	KeyGitHubUsername,
	KeyGitHubToken,
	KeyGitHubOrganisation,
	KeyGitHubRepo,
	KeyEmail,
}

// ErrConfigNotFound is returned when the config path is empty or does not
// resolve to a readable file.
var ErrConfigNotFound = fmt.Errorf("config file not found: %w", errdefs.ErrNotFound)

// Store is a key/value view over an env-style configuration file
type Store struct {
	path string
	file *ini.File
}

// Load reads the key/value pairs stored at path.
// Field contents are not validated here.
func Load(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrConfigNotFound)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrConfigNotFound, path)
	}

	file, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &Store{path: path, file: file}, nil
}

// Path returns the location the store was loaded from
func (s *Store) Path() string {
	return s.path
}

// Get returns the value stored under key and whether the key is present
func (s *Store) Get(key string) (string, bool) {
	section := s.file.Section("")
	if !section.HasKey(key) {
		return "", false
	}
	return section.Key(key).String(), true
}

// Keys returns the stored keys in sorted order
func (s *Store) Keys() []string {
	keys := s.file.Section("").KeyStrings()
	sort.Strings(keys)
	return keys
}

// Set stores value under key. Call Save to persist the change.
func (s *Store) Set(key, value string) {
	s.file.Section("").Key(key).SetValue(value)
}

// Delete removes key from the store
func (s *Store) Delete(key string) {
	s.file.Section("").DeleteKey(key)
}

// DeleteAll removes every key from the store
func (s *Store) DeleteAll() {
	section := s.file.Section("")
	for _, key := range section.KeyStrings() {
		section.DeleteKey(key)
	}
}

// Save writes the store back to the file it was loaded from
func (s *Store) Save() error {
	if err := s.file.SaveTo(s.path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
