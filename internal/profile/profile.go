// Package profile supplies the optional reader profile used for trust
// scoring. An absent profile is a valid, expected state; trust scoring
// falls back to static defaults.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"curator/internal/core"
)

// Source is a read-only supplier of the user profile. Load returns
// (nil, nil) when no profile exists.
type Source interface {
	Load() (*core.UserProfile, error)
}

// FileSource reads the profile from a JSON file on disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed profile source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and parses the profile file. A missing file is not an error.
func (s *FileSource) Load() (*core.UserProfile, error) {
	if s.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", s.Path, err)
	}

	var p core.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", s.Path, err)
	}

	return &p, nil
}

// None is a Source that always reports no profile.
type None struct{}

// Load always returns an absent profile.
func (None) Load() (*core.UserProfile, error) { return nil, nil }
