package model

import "encoding/json"

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeInteger FieldType = "integer"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
)

// CatalogItemSchema is the parsed identity and raw property map of a single
// catalog item export. Instances are immutable once loaded: the registry owns
// them and replaces the whole index on reload rather than mutating in place.
type CatalogItemSchema struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	ItemType    string                     `json:"type,omitempty"`
	Version     string                     `json:"version,omitempty"`
	Description string                     `json:"description,omitempty"`
	Properties  map[string]json.RawMessage `json:"properties"`
	Required    []string                   `json:"required,omitempty"`

	// PropertyOrder preserves the declaration order of the property map as it
	// appeared in the source document. JSON objects are unordered once
	// decoded, so the loader records the key order separately.
	PropertyOrder []string `json:"-"`
}

// IsRequired reports whether name appears in the schema's required list.
func (s *CatalogItemSchema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// FormField models a single input derived from one schema property. Constraint
// pointers are nil when the schema does not declare the bound. Choices holds
// the static enum when declared, or the runtime-populated choice set once a
// dynamic source resolves; Pending marks a dynamic field whose template still
// references unset variables.
type FormField struct {
	Name        string    `json:"name"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Default     any       `json:"default,omitempty"`

	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	MinItems  *int     `json:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`

	Choices        []any    `json:"choices,omitempty"`
	DataSource     string   `json:"dataSource,omitempty"`
	DynamicDefault string   `json:"dynamicDefault,omitempty"`
	Variables      []string `json:"variables,omitempty"`
	Pending        bool     `json:"pending,omitempty"`
}

// HasChoices reports whether the field restricts values to an enumerated set,
// either statically declared or populated at runtime.
func (f *FormField) HasChoices() bool {
	return len(f.Choices) > 0
}

// FieldResult carries the violations recorded for one field.
type FieldResult struct {
	Field      string   `json:"field"`
	Violations []string `json:"violations,omitempty"`
}

// ValidationResult aggregates per-field violations for one validation pass.
// Produced fresh per call; never shared between sessions.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Fields []FieldResult `json:"fields,omitempty"`
}

// Violations returns the messages recorded for the named field.
func (r *ValidationResult) Violations(name string) []string {
	for _, f := range r.Fields {
		if f.Field == name {
			return f.Violations
		}
	}
	return nil
}

// Add appends violations for a field and flips the aggregate flag.
func (r *ValidationResult) Add(name string, violations ...string) {
	if len(violations) == 0 {
		return
	}
	r.Valid = false
	for i := range r.Fields {
		if r.Fields[i].Field == name {
			r.Fields[i].Violations = append(r.Fields[i].Violations, violations...)
			return
		}
	}
	r.Fields = append(r.Fields, FieldResult{Field: name, Violations: violations})
}

// ExecutionContext is the validated bundle handed to the submission
// collaborator. Built once per run, then discarded.
type ExecutionContext struct {
	Schema  *CatalogItemSchema `json:"-"`
	Inputs  map[string]any     `json:"inputs"`
	Project string             `json:"project,omitempty"`
	Name    string             `json:"name,omitempty"`
	Reason  string             `json:"reason,omitempty"`
	DryRun  bool               `json:"dryRun,omitempty"`
}
