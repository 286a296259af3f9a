package engine

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/brunseba/vra-cli/pkg/model"
)

func parseProperties(schema *model.CatalogItemSchema) ([]model.FormField, error) {
	names := propertyOrder(schema)

	fields := make([]model.FormField, 0, len(names))
	for _, name := range names {
		field, err := parseProperty(schema, name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// propertyOrder returns property names in declaration order when the loader
// captured it, falling back to a name sort so extraction stays deterministic.
func propertyOrder(schema *model.CatalogItemSchema) []string {
	if len(schema.PropertyOrder) == len(schema.Properties) {
		return schema.PropertyOrder
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseProperty(schema *model.CatalogItemSchema, name string) (model.FormField, error) {
	raw, ok := schema.Properties[name]
	if !ok {
		return model.FormField{}, fmt.Errorf("%w: property %q listed but not defined", ErrSchema, name)
	}

	var prop openapi3.Schema
	if err := json.Unmarshal(raw, &prop); err != nil {
		return model.FormField{}, fmt.Errorf("%w: property %q: %v", ErrSchema, name, err)
	}

	// The dynamic lookup keys are not part of the JSON Schema vocabulary, so
	// they are decoded separately rather than fished out of Extensions.
	var dynamic struct {
		Data           string `json:"$data"`
		DynamicDefault string `json:"$dynamicDefault"`
	}
	if err := json.Unmarshal(raw, &dynamic); err != nil {
		return model.FormField{}, fmt.Errorf("%w: property %q: %v", ErrSchema, name, err)
	}

	field := model.FormField{
		Name:        name,
		Title:       prop.Title,
		Description: prop.Description,
		Type:        fieldType(prop.Type),
		Required:    schema.IsRequired(name),
		Default:     prop.Default,
		Pattern:     prop.Pattern,
	}

	if len(prop.Enum) > 0 {
		field.Choices = append([]any(nil), prop.Enum...)
	}
	if prop.Min != nil {
		value := *prop.Min
		field.Minimum = &value
	}
	if prop.Max != nil {
		value := *prop.Max
		field.Maximum = &value
	}
	if prop.MinLength != 0 {
		value := int(prop.MinLength)
		field.MinLength = &value
	}
	if prop.MaxLength != nil {
		value := int(*prop.MaxLength)
		field.MaxLength = &value
	}
	if prop.MinItems != 0 {
		value := int(prop.MinItems)
		field.MinItems = &value
	}
	if prop.MaxItems != nil {
		value := int(*prop.MaxItems)
		field.MaxItems = &value
	}

	field.DataSource = strings.TrimSpace(dynamic.Data)
	field.DynamicDefault = strings.TrimSpace(dynamic.DynamicDefault)
	field.Variables = templateVariables(field.DataSource, field.DynamicDefault)

	if field.Pattern != "" {
		if _, err := regexp.Compile(field.Pattern); err != nil {
			return model.FormField{}, fmt.Errorf("%w: property %q: bad pattern %q: %v", ErrSchema, name, field.Pattern, err)
		}
	}

	return field, nil
}

func fieldType(types *openapi3.Types) model.FieldType {
	if types == nil {
		return model.FieldTypeString
	}
	values := types.Slice()
	if len(values) == 0 {
		return model.FieldTypeString
	}
	switch strings.ToLower(values[0]) {
	case "integer":
		return model.FieldTypeInteger
	case "number":
		return model.FieldTypeNumber
	case "boolean":
		return model.FieldTypeBoolean
	case "array":
		return model.FieldTypeArray
	default:
		return model.FieldTypeString
	}
}

func templateVariables(templates ...string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, template := range templates {
		for _, name := range ScanVariables(template) {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
