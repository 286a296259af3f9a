// Package engine interprets catalog item schemas: it turns the raw property
// map into an ordered list of form fields, validates raw inputs against the
// declared constraints, and produces the normalized request payload. One
// generic code path serves every catalog item shape; nothing here is specific
// to a single schema.
package engine

import (
	"errors"
	"fmt"

	"github.com/brunseba/vra-cli/pkg/model"
)

var (
	// ErrCycle signals a dependency cycle among field templates. Extraction
	// returns no ordering at all in that case; the item is unusable until the
	// schema is corrected.
	ErrCycle = errors.New("engine: dependency cycle detected")

	// ErrSchema signals a structurally broken schema, such as an unparsable
	// constraint pattern. Unlike input violations this is fatal and is
	// reported before any prompting begins.
	ErrSchema = errors.New("engine: malformed schema")
)

// ExtractFormFields parses every property of schema into a FormField and
// returns the fields in a valid topological order of the template dependency
// graph. Fields with no ordering relationship keep their declaration order
// relative to each other.
func ExtractFormFields(schema *model.CatalogItemSchema) ([]model.FormField, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema is nil", ErrSchema)
	}

	fields, err := parseProperties(schema)
	if err != nil {
		return nil, err
	}

	ordered, err := sortFields(fields)
	if err != nil {
		return nil, fmt.Errorf("%w (schema %s)", err, schema.ID)
	}
	return ordered, nil
}

// ValidateInputs extracts the schema's fields and validates raw against them.
// Unknown keys in raw are ignored. The returned error is non-nil only for a
// malformed schema; user-input problems are reported through the result.
func ValidateInputs(schema *model.CatalogItemSchema, raw map[string]any) (*model.ValidationResult, error) {
	fields, err := ExtractFormFields(schema)
	if err != nil {
		return nil, err
	}
	return ValidateFields(fields, raw), nil
}

// ValidateFields validates raw against an already-extracted field list.
func ValidateFields(fields []model.FormField, raw map[string]any) *model.ValidationResult {
	result := &model.ValidationResult{Valid: true}
	for i := range fields {
		_, violations := ValidateField(&fields[i], raw[fields[i].Name])
		result.Add(fields[i].Name, violations...)
	}
	return result
}

// ValidateField coerces raw to the field's declared type and applies the
// declared constraints in fixed order: range and length bounds, then pattern,
// then choice membership. It returns the coerced value together with any
// violation messages; the coerced value is meaningful only when the violation
// list is empty.
func ValidateField(field *model.FormField, raw any) (any, []string) {
	if isEmpty(raw) {
		if field.Required {
			return nil, []string{"required field missing"}
		}
		return nil, nil
	}

	value, err := Coerce(field, raw)
	if err != nil {
		return nil, []string{err.Error()}
	}

	return value, checkConstraints(field, value)
}

// GenerateRequestPayload transcribes every field present in the context's
// inputs into the final name to value mapping, normalizing each value to the
// schema-declared type so the payload matches the backend execution contract.
// This is the seam for per-backend payload shaping; the base behavior is a
// direct transcription.
func GenerateRequestPayload(execCtx model.ExecutionContext) (map[string]any, error) {
	fields, err := ExtractFormFields(execCtx.Schema)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]any, len(execCtx.Inputs))
	for i := range fields {
		raw, ok := execCtx.Inputs[fields[i].Name]
		if !ok || isEmpty(raw) {
			continue
		}
		value, err := Coerce(&fields[i], raw)
		if err != nil {
			return nil, fmt.Errorf("engine: payload value for %q: %w", fields[i].Name, err)
		}
		payload[fields[i].Name] = value
	}
	return payload, nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	default:
		return false
	}
}
