// Package catalog holds the schema registry: it scans registered directories
// for schema exports, indexes them by catalog item id, and serves lookups,
// listings, and searches against the current index.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/brunseba/vra-cli/internal/catalog/loader"
	"github.com/brunseba/vra-cli/pkg/model"
)

// ErrNotFound is returned by GetSchema for unknown catalog item ids.
var ErrNotFound = errors.New("catalog: schema not found")

// Registry indexes catalog item schemas loaded from one or more directories.
//
// Readers are safe concurrently with a single LoadSchemas call: the index is
// rebuilt off to the side and swapped in wholesale under the write lock.
// Concurrent LoadSchemas calls on the same instance must be serialized by the
// caller; the swap protects readers against the writer, not writers against
// each other.
type Registry struct {
	mu          sync.RWMutex
	dirs        []string
	index       map[string]*model.CatalogItemSchema
	warnings    []string
	logger      *log.Logger
	filePattern string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger overrides the logger used for load warnings.
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithFilePattern overrides the default schema export filename pattern.
func WithFilePattern(pattern string) Option {
	return func(r *Registry) {
		if pattern != "" {
			r.filePattern = pattern
		}
	}
}

// NewRegistry creates an empty registry with no directories registered.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		index:       make(map[string]*model.CatalogItemSchema),
		logger:      log.New(os.Stderr),
		filePattern: loader.DefaultPattern,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// AddSchemaDirectory registers a search root. Duplicates are ignored. No scan
// happens until LoadSchemas is called.
func (r *Registry) AddSchemaDirectory(path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dir := range r.dirs {
		if dir == path {
			return
		}
	}
	r.dirs = append(r.dirs, path)
}

// Directories returns the registered search roots in registration order.
func (r *Registry) Directories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.dirs...)
}

// LoadSchemas scans every registered directory for files matching pattern
// (the registry default when empty), decodes each match, and swaps the new
// index in atomically once the scan completes. Unreadable or malformed files
// and missing directories are recorded as warnings and skipped; they never
// abort the load. Returns the number of schemas loaded.
func (r *Registry) LoadSchemas(pattern string) (int, error) {
	if pattern == "" {
		pattern = r.filePattern
	}

	next := make(map[string]*model.CatalogItemSchema)
	var warnings []string

	for _, dir := range r.Directories() {
		files, err := loader.Scan(dir, pattern)
		if err != nil {
			if os.IsNotExist(err) {
				warnings = append(warnings, fmt.Sprintf("directory %s does not exist", dir))
				r.logger.Warn("skipping missing schema directory", "dir", dir)
				continue
			}
			return 0, fmt.Errorf("catalog: scan %s: %w", dir, err)
		}

		for _, file := range files {
			doc, err := loader.ReadFile(file)
			if err != nil {
				warnings = append(warnings, err.Error())
				r.logger.Warn("skipping unloadable schema", "file", file, "err", err)
				continue
			}
			next[doc.ID] = &model.CatalogItemSchema{
				ID:          doc.ID,
				Name:        doc.Name,
				ItemType:    doc.ItemType,
				Version:     doc.Version,
				Description: doc.Description,
				Properties:  doc.Properties,
				Required:    doc.Required,

				PropertyOrder: doc.PropertyOrder,
			}
		}
	}

	r.mu.Lock()
	r.index = next
	r.warnings = warnings
	r.mu.Unlock()

	return len(next), nil
}

// GetSchema returns the schema for id from the current index.
func (r *Registry) GetSchema(id string) (*model.CatalogItemSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	schema, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return schema, nil
}

// ListSchemas returns schemas sorted by name. typeFilter matches the declared
// item type exactly (case-insensitive); nameFilter is a case-insensitive
// substring match against the name. Empty filters match everything.
func (r *Registry) ListSchemas(typeFilter, nameFilter string) []*model.CatalogItemSchema {
	typeFilter = strings.ToLower(strings.TrimSpace(typeFilter))
	nameFilter = strings.ToLower(strings.TrimSpace(nameFilter))

	r.mu.RLock()
	out := make([]*model.CatalogItemSchema, 0, len(r.index))
	for _, schema := range r.index {
		if typeFilter != "" && strings.ToLower(schema.ItemType) != typeFilter {
			continue
		}
		if nameFilter != "" && !strings.Contains(strings.ToLower(schema.Name), nameFilter) {
			continue
		}
		out = append(out, schema)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SearchSchemas returns schemas whose name or description contains text,
// case-insensitive, sorted by name.
func (r *Registry) SearchSchemas(text string) []*model.CatalogItemSchema {
	needle := strings.ToLower(strings.TrimSpace(text))

	r.mu.RLock()
	out := make([]*model.CatalogItemSchema, 0, len(r.index))
	for _, schema := range r.index {
		if needle == "" ||
			strings.Contains(strings.ToLower(schema.Name), needle) ||
			strings.Contains(strings.ToLower(schema.Description), needle) {
			out = append(out, schema)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ClearCache empties the index without touching registered directories.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.index = make(map[string]*model.CatalogItemSchema)
	r.warnings = nil
}

// Warnings returns the skip messages recorded by the most recent load.
func (r *Registry) Warnings() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.warnings...)
}

// Status summarizes the current index.
type Status struct {
	Loaded      int            `json:"loaded"`
	ByType      map[string]int `json:"byType,omitempty"`
	Directories []string       `json:"directories,omitempty"`
	Warnings    int            `json:"warnings,omitempty"`
}

// Status reports the loaded item count grouped by declared item type plus the
// registered directories.
func (r *Registry) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := Status{
		Loaded:      len(r.index),
		ByType:      make(map[string]int),
		Directories: append([]string(nil), r.dirs...),
		Warnings:    len(r.warnings),
	}
	for _, schema := range r.index {
		itemType := schema.ItemType
		if itemType == "" {
			itemType = "unknown"
		}
		status.ByType[itemType]++
	}
	return status
}
