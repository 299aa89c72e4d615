package game

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// Load reads a profile file, dispatching the decoder on extension.
// YAML, TOML and JSON are supported. Missing probe and window fields
// get defaults before validation.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &profile)
	case ".toml":
		err = toml.Unmarshal(data, &profile)
	case ".json":
		err = sonic.Unmarshal(data, &profile)
	default:
		return Profile{}, fmt.Errorf("unsupported profile format %q", filepath.Ext(path))
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	profile.applyDefaults()
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Discover loads every profile matching the glob pattern. Patterns may
// use doublestar syntax (profiles/**/*.yaml). Files with unsupported
// extensions are skipped so directory-wide globs stay usable; parse and
// validation failures are reported.
func Discover(pattern string) ([]Profile, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid profile glob %q: %w", pattern, err)
	}
	sort.Strings(matches)

	profiles := make([]Profile, 0, len(matches))
	for _, match := range matches {
		switch strings.ToLower(filepath.Ext(match)) {
		case ".yaml", ".yml", ".toml", ".json":
		default:
			continue
		}
		profile, err := Load(match)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

// Resolve picks the profile the server should drive. An explicit file
// path wins; otherwise the glob is searched for a profile with the
// requested name; otherwise the built-in default is used when the name
// is empty or matches it.
func Resolve(path, pattern, name string) (Profile, error) {
	if path != "" {
		return Load(path)
	}
	if pattern != "" {
		profiles, err := Discover(pattern)
		if err != nil {
			return Profile{}, err
		}
		if name == "" && len(profiles) == 1 {
			return profiles[0], nil
		}
		for _, profile := range profiles {
			if profile.Name == name {
				return profile, nil
			}
		}
	}
	if name == "" || name == DefaultName {
		return Default(), nil
	}
	return Profile{}, fmt.Errorf("unknown game profile %q", name)
}
