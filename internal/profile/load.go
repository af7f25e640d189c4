package profile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes YAML parameters over the defaults and validates them.
// Keys absent from the document keep their default values; a
// module_budgets block replaces the default module set entirely.
func Load(r io.Reader) (*Profile, error) {
	props := DefaultProps()
	props.ModuleBudgets = nil

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&props); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("profile: decode yaml: %w", err)
	}
	if props.ModuleBudgets == nil {
		props.ModuleBudgets = DefaultProps().ModuleBudgets
	}
	return Create(props)
}

// LoadFile reads a YAML profile from disk. An empty path yields the default
// profile.
func LoadFile(path string) (*Profile, error) {
	if path == "" {
		return CreateDefault(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("profile: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
