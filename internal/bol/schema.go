package bol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ResultSchema returns the JSON-Schema (draft 2020-12 subset) of a serialized Result.
func ResultSchema() map[string]any {
	nullableString := map[string]any{"type": []any{"string", "null"}}
	nullableCount := map[string]any{"type": []any{"integer", "null"}, "minimum": 0}

	weight := map[string]any{
		"type":                 []any{"object", "null"},
		"additionalProperties": false,
		"required":             []any{"value", "unit", "text"},
		"properties": map[string]any{
			"value": map[string]any{"type": "number", "minimum": 0},
			"unit":  map[string]any{"type": "string", "minLength": 1},
			"text":  map[string]any{"type": "string"},
		},
	}
	container := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"container_number", "seal_number", "size_type", "gross_cargo_weight", "description"},
		"properties": map[string]any{
			"container_number":   map[string]any{"type": "string", "pattern": `^[A-Z]{3}[UJZ][0-9]{7}$`},
			"seal_number":        nullableString,
			"size_type":          nullableString,
			"gross_cargo_weight": nullableString,
			"description":        nullableString,
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []any{
			"bill_of_lading_number", "shipper", "consignee", "total_gross_weight",
			"total_items", "number_of_containers", "containers", "warnings",
		},
		"properties": map[string]any{
			"bill_of_lading_number": nullableString,
			"shipper":               nullableString,
			"consignee":             nullableString,
			"total_gross_weight":    weight,
			"total_items":           nullableCount,
			"number_of_containers":  nullableCount,
			"containers":            map[string]any{"type": "array", "items": container},
			"warnings":              map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}
}

var (
	resultSchemaOnce sync.Once
	resultSchema     *jsonschema.Schema
	resultSchemaErr  error
)

func compiledResultSchema() (*jsonschema.Schema, error) {
	resultSchemaOnce.Do(func() {
		b, err := json.Marshal(ResultSchema())
		if err != nil {
			resultSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("bol_result.json", bytes.NewReader(b)); err != nil {
			resultSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		resultSchema, resultSchemaErr = compiler.Compile("bol_result.json")
	})
	return resultSchema, resultSchemaErr
}

// ValidateResult checks serialized result JSON against ResultSchema.
func ValidateResult(data []byte) error {
	schema, err := compiledResultSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}
