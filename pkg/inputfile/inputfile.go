// Package inputfile reads and writes flat input template files: a name to
// value mapping mirroring a schema's fields, used both as an export target
// (pre-filled with defaults or blanks) and as an import source for
// non-interactive runs.
package inputfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brunseba/vra-cli/pkg/model"
)

// Template builds the flat export map for a field list: declared defaults
// where present, type-appropriate blanks otherwise.
func Template(fields []model.FormField) map[string]any {
	out := make(map[string]any, len(fields))
	for i := range fields {
		if fields[i].Default != nil {
			out[fields[i].Name] = fields[i].Default
			continue
		}
		out[fields[i].Name] = blankFor(fields[i].Type)
	}
	return out
}

func blankFor(t model.FieldType) any {
	switch t {
	case model.FieldTypeBoolean:
		return false
	case model.FieldTypeArray:
		return []any{}
	default:
		return ""
	}
}

// Write serializes values to path; the extension selects the format
// (.json, .yaml, .yml).
func Write(path string, values map[string]any) error {
	data, err := marshal(path, values)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a template file back into a flat value map.
func Load(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any)
	switch ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("inputfile: decode %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("inputfile: decode %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("inputfile: unsupported extension %q", ext(path))
	}
	return values, nil
}

func marshal(path string, values map[string]any) ([]byte, error) {
	switch ext(path) {
	case ".json":
		return json.MarshalIndent(values, "", "  ")
	case ".yaml", ".yml":
		return yaml.Marshal(values)
	default:
		return nil, fmt.Errorf("inputfile: unsupported extension %q", ext(path))
	}
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
