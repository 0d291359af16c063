// Package schema provides a small fluent JSON Schema builder. The shared
// tool definitions are built with it once and rendered into every backend's
// native tool-declaration shape, so a schema change propagates everywhere
// from a single definition.
package schema

import (
	"encoding/json"
	"fmt"
)

// Type represents JSON Schema types.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// JSONSchema is a JSON Schema node.
type JSONSchema struct {
	Type        Type   `json:"type,omitempty"`
	Description string `json:"description,omitempty"`

	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`

	Items *JSONSchema `json:"items,omitempty"`

	Enum    []any `json:"enum,omitempty"`
	Default any   `json:"default,omitempty"`
}

// Object creates an object schema.
func Object() *JSONSchema {
	return &JSONSchema{
		Type:       TypeObject,
		Properties: make(map[string]*JSONSchema),
	}
}

// Array creates an array schema with the given item schema.
func Array(items *JSONSchema) *JSONSchema {
	return &JSONSchema{Type: TypeArray, Items: items}
}

// String creates a string schema.
func String() *JSONSchema { return &JSONSchema{Type: TypeString} }

// Number creates a number schema.
func Number() *JSONSchema { return &JSONSchema{Type: TypeNumber} }

// Boolean creates a boolean schema.
func Boolean() *JSONSchema { return &JSONSchema{Type: TypeBoolean} }

// Enum creates a string schema constrained to the given values.
func Enum(values ...string) *JSONSchema {
	enum := make([]any, 0, len(values))
	for _, v := range values {
		enum = append(enum, v)
	}
	return &JSONSchema{Type: TypeString, Enum: enum}
}

// Property adds a named property to an object schema.
func (s *JSONSchema) Property(name string, prop *JSONSchema) *JSONSchema {
	if s.Properties == nil {
		s.Properties = make(map[string]*JSONSchema)
	}
	s.Properties[name] = prop
	return s
}

// Require appends required property names.
func (s *JSONSchema) Require(names ...string) *JSONSchema {
	s.Required = append(s.Required, names...)
	return s
}

// Describe sets the description.
func (s *JSONSchema) Describe(desc string) *JSONSchema {
	s.Description = desc
	return s
}

// WithDefault sets the default value.
func (s *JSONSchema) WithDefault(v any) *JSONSchema {
	s.Default = v
	return s
}

// MarshalRaw serializes the schema into a json.RawMessage suitable for a
// ToolSchema's Parameters field. The builder produces only marshalable
// values, so failure here means a programming error.
func (s *JSONSchema) MarshalRaw() json.RawMessage {
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("schema: marshal: %v", err))
	}
	return data
}

// FromJSON deserializes a schema node.
func FromJSON(data []byte) (*JSONSchema, error) {
	var s JSONSchema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal JSON schema: %w", err)
	}
	return &s, nil
}
