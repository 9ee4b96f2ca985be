// Package toolserver exposes named operations as tools with fixed parameter
// schemas over a JSON/HTTP boundary.
package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool represents a callable tool definition
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Handler     ToolHandler `json:"-"`
	Schema      Schema      `json:"input_schema"`
}

// ToolHandler is the function signature for tool handlers
type ToolHandler func(context.Context, Args) (any, error)

// Schema represents a JSON Schema for tool input validation
type Schema map[string]SchemaField

// SchemaField represents a single field in the schema
type SchemaField struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
}

// Args provides type-safe access to tool arguments
type Args map[string]any

// String returns a string argument
func (a Args) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an integer argument
func (a Args) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}

// Bool returns a boolean argument
func (a Args) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// ValidateArgs validates arguments against the tool's schema
func (s Schema) ValidateArgs(args Args) error {
	for fieldName, field := range s {
		val, exists := args[fieldName]

		if field.Required && !exists {
			return fmt.Errorf("missing required field: %s", fieldName)
		}
		if !exists {
			continue
		}

		if err := validateFieldType(fieldName, val, field); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldType(fieldName string, val any, field SchemaField) error {
	switch field.Type {
	case "string":
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("field %s: expected string, got %T", fieldName, val)
		}
		if len(field.Enum) > 0 {
			for _, allowed := range field.Enum {
				if allowedStr, ok := allowed.(string); ok && allowedStr == str {
					return nil
				}
			}
			return fmt.Errorf("field %s: value not in allowed list", fieldName)
		}

	case "number", "integer":
		switch val.(type) {
		case float64, int, int64, json.Number:
		default:
			return fmt.Errorf("field %s: expected number, got %T", fieldName, val)
		}

	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("field %s: expected boolean, got %T", fieldName, val)
		}
	}
	return nil
}
