// Package loader reads catalog item schema exports from disk and decodes them
// into the model shapes the registry indexes. It is deliberately small: policy
// (skip-vs-fail, warning collection, index swaps) lives in pkg/catalog.
package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultPattern matches the filename convention used by schema exports.
const DefaultPattern = "*-schema.json"

// ErrNotDirectory is returned by Scan when the path exists but is not a
// directory.
var ErrNotDirectory = errors.New("catalog loader: not a directory")

// Scan returns the files under dir whose base name matches pattern. A missing
// directory yields os.ErrNotExist so callers can downgrade it to a warning.
func Scan(dir, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("catalog loader: bad pattern %q: %w", pattern, err)
	}
	return matches, nil
}

// ReadFile loads and decodes a single schema export.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// Document is the on-disk shape of one schema export: identity metadata plus
// the raw property map. Properties stay raw here; the engine interprets them.
type Document struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	ItemType    string                     `json:"type"`
	Version     string                     `json:"version"`
	Description string                     `json:"description"`
	Properties  map[string]json.RawMessage `json:"properties"`
	Required    []string                   `json:"required"`

	// PropertyOrder records the key order of the properties object as written
	// in the file, since decoding into a map discards it.
	PropertyOrder []string `json:"-"`
}

// Decode parses a schema export body and validates its identity metadata.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog loader: decode: %w", err)
	}
	if strings.TrimSpace(doc.ID) == "" {
		return nil, errors.New("catalog loader: schema is missing an id")
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, errors.New("catalog loader: schema is missing a name")
	}
	doc.PropertyOrder = propertyKeyOrder(data)
	return &doc, nil
}

// propertyKeyOrder walks the token stream and collects the top-level keys of
// the "properties" object in source order. Any token error returns what was
// gathered so far; Decode already guaranteed the document parses.
func propertyKeyOrder(data []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(data))

	// Advance to the value of the root-level "properties" key.
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return nil
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil
		}
		key, _ := keyTok.(string)
		if key == "properties" {
			break
		}
		// Skip this key's value entirely.
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil
		}
	}

	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var keys []string
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := keyTok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}
