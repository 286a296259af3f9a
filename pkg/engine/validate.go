package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/brunseba/vra-cli/pkg/model"
)

// Coerce converts raw into the field's declared type. A failed conversion is
// an input violation, not an engine fault, so the error text is written for
// end users.
func Coerce(field *model.FormField, raw any) (any, error) {
	switch field.Type {
	case model.FieldTypeInteger:
		return coerceInt(raw)
	case model.FieldTypeNumber:
		return coerceFloat(raw)
	case model.FieldTypeBoolean:
		return coerceBool(raw)
	case model.FieldTypeArray:
		return coerceArray(raw)
	default:
		return coerceString(raw)
	}
}

func coerceInt(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
		return int64(v), nil
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", v)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("expected an integer, got %T", raw)
	}
}

func coerceFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", v)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("expected a number, got %T", raw)
	}
}

func coerceBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			return true, nil
		case "false", "no", "n", "0":
			return false, nil
		}
		return nil, fmt.Errorf("expected true or false, got %q", v)
	default:
		return nil, fmt.Errorf("expected true or false, got %T", raw)
	}
}

// coerceArray accepts a real list, a []string, or a delimited string which is
// split on commas with surrounding whitespace trimmed.
func coerceArray(raw any) (any, error) {
	switch v := raw.(type) {
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case string:
		parts := strings.Split(v, ",")
		out := make([]any, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
}

func coerceString(raw any) (any, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case bool, int, int64, float64:
		return fmt.Sprint(v), nil
	default:
		return nil, fmt.Errorf("expected a string, got %T", raw)
	}
}

// checkConstraints applies the declared constraints to an already-coerced
// value in fixed order: range and length bounds first, then pattern, then
// choice membership. A pending dynamic choice set skips the membership check.
func checkConstraints(field *model.FormField, value any) []string {
	var violations []string

	violations = append(violations, checkBounds(field, value)...)
	violations = append(violations, checkPattern(field, value)...)
	violations = append(violations, checkChoices(field, value)...)

	return violations
}

func checkBounds(field *model.FormField, value any) []string {
	var violations []string
	switch v := value.(type) {
	case int64:
		violations = checkRange(field, float64(v))
	case float64:
		violations = checkRange(field, v)
	case string:
		if field.MinLength != nil && len(v) < *field.MinLength {
			violations = append(violations, fmt.Sprintf("length below minimum (%d)", *field.MinLength))
		}
		if field.MaxLength != nil && len(v) > *field.MaxLength {
			violations = append(violations, fmt.Sprintf("length exceeds maximum (%d)", *field.MaxLength))
		}
	case []any:
		if field.MinItems != nil && len(v) < *field.MinItems {
			violations = append(violations, fmt.Sprintf("item count below minimum (%d)", *field.MinItems))
		}
		if field.MaxItems != nil && len(v) > *field.MaxItems {
			violations = append(violations, fmt.Sprintf("item count exceeds maximum (%d)", *field.MaxItems))
		}
	}
	return violations
}

func checkRange(field *model.FormField, v float64) []string {
	var violations []string
	if field.Minimum != nil && v < *field.Minimum {
		violations = append(violations, fmt.Sprintf("value below minimum (%s)", formatBound(*field.Minimum)))
	}
	if field.Maximum != nil && v > *field.Maximum {
		violations = append(violations, fmt.Sprintf("value exceeds maximum (%s)", formatBound(*field.Maximum)))
	}
	return violations
}

func checkPattern(field *model.FormField, value any) []string {
	if field.Pattern == "" {
		return nil
	}
	s, ok := value.(string)
	if !ok {
		return nil
	}
	// Pattern validity was checked during extraction; a failure here means the
	// field list was built outside ExtractFormFields.
	re, err := regexp.Compile(field.Pattern)
	if err != nil {
		return []string{fmt.Sprintf("unusable pattern %q", field.Pattern)}
	}
	if !re.MatchString(s) {
		return []string{fmt.Sprintf("value does not match pattern (%s)", field.Pattern)}
	}
	return nil
}

func checkChoices(field *model.FormField, value any) []string {
	if !field.HasChoices() {
		return nil
	}

	values := []any{value}
	if list, ok := value.([]any); ok {
		values = list
	}

	allowed := make(map[string]struct{}, len(field.Choices))
	for _, choice := range field.Choices {
		allowed[fmt.Sprint(choice)] = struct{}{}
	}

	var violations []string
	for _, v := range values {
		if _, ok := allowed[fmt.Sprint(v)]; !ok {
			violations = append(violations, fmt.Sprintf("value %v not in allowed choices", v))
		}
	}
	return violations
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
