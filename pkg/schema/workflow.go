// Package schema validates workflow transfer documents against a JSON Schema
// before any field is trusted. Imports arrive from outside the system, so
// structural validation happens up front rather than relying on decoder
// defaults.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidDocument is returned when an import payload fails schema
// validation. The wrapped message lists every violation.
var ErrInvalidDocument = errors.New("invalid workflow document")

const workflowDocumentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "WorkflowDocument",
  "type": "object",
  "required": ["format_version", "workflow"],
  "properties": {
    "format_version": {"type": "integer", "minimum": 1, "maximum": 1},
    "workflow": {
      "type": "object",
      "required": ["name", "steps", "transitions"],
      "properties": {
        "name": {"type": "string", "minLength": 1, "maxLength": 255},
        "description": {"type": "string", "maxLength": 2000},
        "steps": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "name", "step_type"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "name": {"type": "string", "minLength": 1, "maxLength": 255},
              "display_name": {"type": "string", "maxLength": 255},
              "description": {"type": "string", "maxLength": 2000},
              "step_type": {"enum": ["start", "normal", "query", "end"]},
              "color": {
                "enum": ["", "gray", "blue", "green", "yellow", "orange", "red", "purple", "indigo", "pink"]
              },
              "allowed_roles": {"type": "array", "items": {"type": "string"}},
              "required_fields": {"type": "array", "items": {"type": "string"}},
              "auto_assign": {"type": "boolean"},
              "notify_roles": {"type": "array", "items": {"type": "string"}},
              "notify_client": {"type": "boolean"},
              "position_x": {"type": "number"},
              "position_y": {"type": "number"}
            }
          }
        },
        "transitions": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["id", "from_step_id", "to_step_id"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "from_step_id": {"type": "string", "minLength": 1},
              "to_step_id": {"type": "string", "minLength": 1},
              "name": {"type": "string", "maxLength": 255},
              "description": {"type": "string", "maxLength": 2000},
              "requires_invoice_raised": {"type": "boolean"},
              "requires_invoice_paid": {"type": "boolean"},
              "requires_assignment": {"type": "boolean"},
              "allowed_roles": {"type": "array", "items": {"type": "string"}},
              "send_notification": {"type": "boolean"},
              "notification_template": {"type": "string", "maxLength": 255}
            }
          }
        }
      }
    }
  }
}`

var workflowDocumentLoader = gojsonschema.NewStringLoader(workflowDocumentSchema)

// ValidateDocument checks a raw transfer payload against the workflow
// document schema.
func ValidateDocument(payload []byte) error {
	result, err := gojsonschema.Validate(workflowDocumentLoader, gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, err.Error())
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		violations = append(violations, violation.String())
	}

	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(violations, "; "))
}
