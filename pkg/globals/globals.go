// Package globals models the deployment-wide settings tree shared by all
// roles of a cluster test run, and provides loading and live-reload support
// for it.
package globals

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Globals is the hierarchical deployment configuration. Leaf values are
// string-typed (notably use_ssl carries the strings "True"/"False", not a
// native boolean). Readers must treat the tree as immutable.
type Globals map[string]any

// String returns the string value stored under key, reporting whether the
// key exists and holds a string.
func (g Globals) String(key string) (string, bool) {
	if g == nil {
		return "", false
	}
	value, ok := g[key].(string)
	return value, ok
}

// StringOr returns the string value stored under key, or fallback when the
// key is missing or not a string.
func (g Globals) StringOr(key, fallback string) string {
	if value, ok := g.String(key); ok {
		return value
	}
	return fallback
}

// Section returns the nested mapping stored under key. Missing keys and
// non-mapping values report false; callers treat both as "no section".
func (g Globals) Section(key string) (Globals, bool) {
	if g == nil {
		return nil, false
	}
	switch section := g[key].(type) {
	case Globals:
		return section, true
	case map[string]any:
		return Globals(section), true
	default:
		return nil, false
	}
}

// Load reads a globals tree from a YAML or JSON file and applies
// environment variable overrides.
func Load(path string) (Globals, error) {
	// #nosec G304 -- globals file path is supplied by the operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read globals file %s: %w", path, err)
	}

	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse globals file %s: %w", path, err)
	}

	applyEnvOverrides(g)
	return g, nil
}

// Parse decodes a globals tree from raw YAML, falling back to JSON. An
// empty or null document decodes to an empty tree, never a nil map, so
// callers can layer overrides onto the result.
func Parse(data []byte) (Globals, error) {
	var g Globals
	if err := yaml.Unmarshal(data, &g); err != nil {
		if jsonErr := json.Unmarshal(data, &g); jsonErr != nil {
			return nil, fmt.Errorf("not valid YAML or JSON: %v", err)
		}
	}
	if g == nil {
		g = Globals{}
	}
	return g, nil
}

func applyEnvOverrides(g Globals) {
	if val := os.Getenv("GLOBALS_INSTALL_ROOT"); val != "" {
		g["install_root"] = val
	}
	if val := os.Getenv("GLOBALS_USE_SSL"); val != "" {
		g["use_ssl"] = val
	}
}
