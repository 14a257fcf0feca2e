package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildContactsJSONSchema returns the JSON-Schema of an exported contacts document.
func BuildContactsJSONSchema() map[string]any {
	field := map[string]any{"type": "string", "minLength": 1}
	contact := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":         field,
			"title":        field,
			"company":      field,
			"email":        field,
			"mobile_phone": field,
			"direct_phone": field,
			"hq_phone":     field,
			"location":     field,
		},
		"required": []string{"name", "title", "company", "email", "mobile_phone", "direct_phone", "hq_phone", "location"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"run_id":   map[string]any{"type": "string"},
			"source":   map[string]any{"type": "string"},
			"count":    map[string]any{"type": "integer", "minimum": 0},
			"contacts": map[string]any{"type": "array", "items": contact},
		},
		"required": []string{"count", "contacts"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
