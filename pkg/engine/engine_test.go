package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/brunseba/vra-cli/pkg/model"
)

func schemaWith(t *testing.T, required []string, props ...[2]string) *model.CatalogItemSchema {
	t.Helper()
	schema := &model.CatalogItemSchema{
		ID:         "test-item",
		Name:       "Test Item",
		Properties: make(map[string]json.RawMessage, len(props)),
		Required:   required,
	}
	for _, prop := range props {
		schema.Properties[prop[0]] = json.RawMessage(prop[1])
		schema.PropertyOrder = append(schema.PropertyOrder, prop[0])
	}
	return schema
}

func fieldNames(fields []model.FormField) []string {
	names := make([]string, len(fields))
	for i := range fields {
		names[i] = fields[i].Name
	}
	return names
}

func TestExtractFormFields_TopologicalOrder(t *testing.T) {
	// subnet depends on region, host depends on subnet; cpu is independent.
	schema := schemaWith(t, nil,
		[2]string{"subnet", `{"type":"string","$data":"/api/subnets?region={{region}}"}`},
		[2]string{"cpu", `{"type":"integer"}`},
		[2]string{"host", `{"type":"string","$data":"/api/hosts?subnet={{subnet}}"}`},
		[2]string{"region", `{"type":"string","enum":["MOP","EMEA"]}`},
	)

	fields, err := ExtractFormFields(schema)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	pos := make(map[string]int, len(fields))
	for i, name := range fieldNames(fields) {
		pos[name] = i
	}
	if pos["region"] > pos["subnet"] {
		t.Errorf("region must come before subnet: %v", fieldNames(fields))
	}
	if pos["subnet"] > pos["host"] {
		t.Errorf("subnet must come before host: %v", fieldNames(fields))
	}
}

func TestExtractFormFields_StableForUnrelatedFields(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"alpha", `{"type":"string"}`},
		[2]string{"beta", `{"type":"string"}`},
		[2]string{"gamma", `{"type":"string"}`},
	)

	fields, err := ExtractFormFields(schema)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	if diff := cmp.Diff(want, fieldNames(fields)); diff != "" {
		t.Errorf("declaration order not preserved (-want +got):\n%s", diff)
	}
}

func TestExtractFormFields_CycleIsFatal(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"a", `{"type":"string","$data":"/api/a?b={{b}}"}`},
		[2]string{"b", `{"type":"string","$data":"/api/b?a={{a}}"}`},
	)

	fields, err := ExtractFormFields(schema)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("want ErrCycle, got %v", err)
	}
	if fields != nil {
		t.Fatalf("no partial ordering may be returned, got %v", fieldNames(fields))
	}
}

func TestExtractFormFields_BadPatternIsFatal(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"hostname", `{"type":"string","pattern":"["}`},
	)

	if _, err := ExtractFormFields(schema); !errors.Is(err, ErrSchema) {
		t.Fatalf("want ErrSchema, got %v", err)
	}
}

func TestExtractFormFields_ConstraintsAndTemplates(t *testing.T) {
	schema := schemaWith(t, []string{"cpu"},
		[2]string{"cpu", `{"type":"integer","title":"CPU count","minimum":1,"maximum":8}`},
		[2]string{"subnet", `{"type":"string","$data":"/api/subnets?region={{region}}","$dynamicDefault":"/api/default-subnet?region={{region}}"}`},
	)

	fields, err := ExtractFormFields(schema)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	byName := make(map[string]model.FormField)
	for _, field := range fields {
		byName[field.Name] = field
	}

	cpu := byName["cpu"]
	if !cpu.Required || cpu.Title != "CPU count" || cpu.Type != model.FieldTypeInteger {
		t.Errorf("cpu parsed wrong: %+v", cpu)
	}
	if cpu.Minimum == nil || *cpu.Minimum != 1 || cpu.Maximum == nil || *cpu.Maximum != 8 {
		t.Errorf("cpu bounds parsed wrong: %+v", cpu)
	}

	subnet := byName["subnet"]
	if subnet.DataSource != "/api/subnets?region={{region}}" {
		t.Errorf("data source not captured: %+v", subnet)
	}
	if subnet.DynamicDefault != "/api/default-subnet?region={{region}}" {
		t.Errorf("dynamic default not captured: %+v", subnet)
	}
	if diff := cmp.Diff([]string{"region"}, subnet.Variables); diff != "" {
		t.Errorf("variables (-want +got):\n%s", diff)
	}
}

func TestValidateInputs_RequiredMissing(t *testing.T) {
	schema := schemaWith(t, []string{"hostname"},
		[2]string{"hostname", `{"type":"string"}`},
		[2]string{"comment", `{"type":"string"}`},
	)

	result, err := ValidateInputs(schema, map[string]any{"comment": "hi"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if diff := cmp.Diff([]string{"required field missing"}, result.Violations("hostname")); diff != "" {
		t.Errorf("hostname violations (-want +got):\n%s", diff)
	}
	if got := result.Violations("comment"); got != nil {
		t.Errorf("comment should have no violations, got %v", got)
	}
}

func TestValidateInputs_NumericRange(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"cpu", `{"type":"integer","minimum":1,"maximum":8}`},
	)

	result, err := ValidateInputs(schema, map[string]any{"cpu": "10"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"value exceeds maximum (8)"}, result.Violations("cpu")); diff != "" {
		t.Errorf("cpu violations (-want +got):\n%s", diff)
	}
}

func TestValidateInputs_StaticEnum(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"region", `{"type":"string","enum":["MOP","EMEA"]}`},
	)

	for _, ok := range []string{"MOP", "EMEA"} {
		result, err := ValidateInputs(schema, map[string]any{"region": ok})
		if err != nil {
			t.Fatalf("validate %s: %v", ok, err)
		}
		if !result.Valid {
			t.Errorf("%s should be accepted: %v", ok, result.Violations("region"))
		}
	}

	result, err := ValidateInputs(schema, map[string]any{"region": "APAC"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Valid {
		t.Error("APAC should be rejected")
	}
}

func TestValidateInputs_UnknownFieldsIgnored(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"hostname", `{"type":"string"}`},
	)

	result, err := ValidateInputs(schema, map[string]any{"hostname": "db01", "bogus": 42})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !result.Valid {
		t.Errorf("unknown fields must be ignored: %+v", result)
	}
}

func TestValidateInputs_CoercionFailureIsViolation(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"cpu", `{"type":"integer"}`},
	)

	result, err := ValidateInputs(schema, map[string]any{"cpu": "lots"})
	if err != nil {
		t.Fatalf("coercion failure must not be an engine error: %v", err)
	}
	if result.Valid {
		t.Error("expected a violation for unparsable integer")
	}
}

func TestValidateField_PatternAndLength(t *testing.T) {
	min := 3
	field := &model.FormField{
		Name:      "hostname",
		Type:      model.FieldTypeString,
		MinLength: &min,
		Pattern:   `^[a-z][a-z0-9-]*$`,
	}

	if _, violations := ValidateField(field, "db01"); violations != nil {
		t.Errorf("db01 should pass: %v", violations)
	}
	if _, violations := ValidateField(field, "ab"); len(violations) == 0 {
		t.Error("short value should fail the length bound")
	}
	if _, violations := ValidateField(field, "9bad"); len(violations) == 0 {
		t.Error("pattern mismatch should fail")
	}
}

func TestGenerateRequestPayload_NormalizesTypes(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"cpu", `{"type":"integer"}`},
		[2]string{"ratio", `{"type":"number"}`},
		[2]string{"enabled", `{"type":"boolean"}`},
		[2]string{"tags", `{"type":"array"}`},
		[2]string{"note", `{"type":"string"}`},
	)

	payload, err := GenerateRequestPayload(model.ExecutionContext{
		Schema: schema,
		Inputs: map[string]any{
			"cpu":     "4",
			"ratio":   "0.5",
			"enabled": "yes",
			"tags":    "a, b",
			"note":    "hello",
		},
	})
	if err != nil {
		t.Fatalf("payload: %v", err)
	}

	want := map[string]any{
		"cpu":     int64(4),
		"ratio":   0.5,
		"enabled": true,
		"tags":    []any{"a", "b"},
		"note":    "hello",
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Errorf("payload (-want +got):\n%s", diff)
	}
}

func TestGenerateRequestPayload_SkipsAbsentFields(t *testing.T) {
	schema := schemaWith(t, nil,
		[2]string{"hostname", `{"type":"string"}`},
		[2]string{"description", `{"type":"string"}`},
	)

	payload, err := GenerateRequestPayload(model.ExecutionContext{
		Schema: schema,
		Inputs: map[string]any{"hostname": "db01"},
	})
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if _, ok := payload["description"]; ok {
		t.Error("absent field must not appear in the payload")
	}
}
