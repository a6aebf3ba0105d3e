package recipe

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format names a hand-written recipe file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

// Decode reads one recipe and normalizes it. History and version in the file
// are ignored; those are owned by the store.
func Decode(r io.Reader, format Format) (Recipe, error) {
	var rec Recipe
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&rec); err != nil {
			return Recipe{}, fmt.Errorf("failed to decode yaml recipe: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rec); err != nil {
			return Recipe{}, fmt.Errorf("failed to decode json recipe: %w", err)
		}
	default:
		return Recipe{}, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	rec.Version = 0
	rec.History = nil
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return Recipe{}, err
	}
	return rec, nil
}

// Encode writes a recipe in the given format.
func Encode(w io.Writer, rec Recipe, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}
