package api

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const generateSchema = `{
  "type": "object",
  "required": ["name", "email", "start_date", "availability",
               "python_level", "sql_level", "cloud_level", "used_git", "used_docker"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 200, "pattern": "\\S"},
    "email": {"type": "string", "format": "email", "maxLength": 320},
    "start_date": {"type": "string", "format": "date"},
    "availability": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": false,
      "properties": {
        "monday":    {"$ref": "#/$defs/hours"},
        "tuesday":   {"$ref": "#/$defs/hours"},
        "wednesday": {"$ref": "#/$defs/hours"},
        "thursday":  {"$ref": "#/$defs/hours"},
        "friday":    {"$ref": "#/$defs/hours"},
        "saturday":  {"$ref": "#/$defs/hours"},
        "sunday":    {"$ref": "#/$defs/hours"}
      }
    },
    "python_level": {"$ref": "#/$defs/level"},
    "sql_level": {"$ref": "#/$defs/level"},
    "cloud_level": {"$ref": "#/$defs/level"},
    "used_git": {"type": "boolean"},
    "used_docker": {"type": "boolean"},
    "interests": {
      "type": "array",
      "maxItems": 20,
      "items": {"type": "string", "minLength": 1, "maxLength": 100}
    },
    "main_challenge": {"type": "string", "maxLength": 2000}
  },
  "$defs": {
    "hours": {"type": "integer", "minimum": 0, "maximum": 24},
    "level": {"enum": ["none", "beginner", "intermediate", "advanced"]}
  }
}`

const continueSchema = `{
  "type": "object",
  "required": ["plan_id", "chat"],
  "additionalProperties": false,
  "properties": {
    "plan_id": {"type": "integer", "minimum": 1},
    "chat": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "additionalProperties": false,
        "properties": {
          "role": {"type": "string"},
          "content": {"type": "string"}
        }
      }
    }
  }
}`

// validator checks request bodies against a compiled JSON Schema.
type validator struct {
	schema *jsonschema.Schema
}

func mustCompile(name, doc string) *validator {
	v, err := compile(name, doc)
	if err != nil {
		panic(err)
	}
	return v
}

func compile(name, doc string) (*validator, error) {
	parsed, err := jsonschema.UnmarshalJSON(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()
	url := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(url, parsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &validator{schema: compiled}, nil
}

// Validate reports whether body is JSON matching the schema. The error
// message is safe to return to clients.
func (v *validator) Validate(body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request body is not valid JSON")
	}
	if err := v.schema.Validate(inst); err != nil {
		return fmt.Errorf("%s", validationReason(err))
	}
	return nil
}

// validationReason flattens the validator's multi-line report into one
// line, dropping the schema URL header.
func validationReason(err error) string {
	lines := strings.Split(err.Error(), "\n")
	var reasons []string
	for _, l := range lines[1:] {
		l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "-"))
		if l != "" {
			reasons = append(reasons, l)
		}
	}
	if len(reasons) == 0 {
		return lines[0]
	}
	return strings.Join(reasons, "; ")
}

var (
	generateValidator = mustCompile("generate", generateSchema)
	continueValidator = mustCompile("continue", continueSchema)
)
