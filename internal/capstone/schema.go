package capstone

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const guidelinesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["description", "objectives", "weekly_plan", "final_deliverable", "resources"],
  "properties": {
    "description": {"type": "string", "minLength": 1},
    "objectives": {"type": "array", "items": {"type": "string"}},
    "weekly_plan": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["week", "title"],
        "properties": {
          "week": {"type": "integer", "minimum": 1},
          "title": {"type": "string", "minLength": 1},
          "topics": {"type": "array", "items": {"type": "string"}},
          "tasks": {"type": "array", "items": {"type": "string"}},
          "deliverables": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "final_deliverable": {
      "type": "object",
      "required": ["title", "description"],
      "properties": {
        "title": {"type": "string"},
        "description": {"type": "string"},
        "requirements": {"type": "array", "items": {"type": "string"}}
      }
    },
    "resources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "url"],
        "properties": {
          "title": {"type": "string"},
          "url": {"type": "string", "format": "uri"},
          "type": {"type": "string"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(guidelinesSchema)

// SchemaError lists every way a guidelines document breaks the schema.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	return "invalid guidelines: " + strings.Join(e.Problems, "; ")
}

// UserMessage returns the problems for display.
func (e *SchemaError) UserMessage() string {
	return strings.Join(e.Problems, "; ")
}

// ValidateGuidelines checks a guidelines JSON document against the schema.
func ValidateGuidelines(doc []byte) error {
	if len(doc) == 0 {
		return &SchemaError{Problems: []string{"guidelines are missing"}}
	}
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("validate guidelines: %w", err)
	}
	if res.Valid() {
		return nil
	}
	problems := make([]string, 0, len(res.Errors()))
	for _, re := range res.Errors() {
		problems = append(problems, re.String())
	}
	return &SchemaError{Problems: problems}
}

// IsSchemaError reports whether err is a guidelines schema violation.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
