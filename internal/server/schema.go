package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// webhookSchema validates incoming SIEM batch payloads before any entry
// reaches the analysis pipeline.
const webhookSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["source", "entries"],
  "properties": {
    "source": {"type": "string", "minLength": 1},
    "entries": {
      "type": "array",
      "minItems": 1,
      "maxItems": 100,
      "items": {
        "type": "object",
        "required": ["message"],
        "properties": {
          "title": {"type": "string"},
          "message": {"type": "string", "minLength": 1},
          "severity": {
            "type": "string",
            "enum": ["critical", "high", "medium", "low", "informational"]
          },
          "context": {"type": "string"}
        }
      }
    }
  }
}`

func compileWebhookSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(webhookSchema))
	if err != nil {
		return nil, fmt.Errorf("compile webhook schema: %w", err)
	}
	return schema, nil
}

// validatePayload checks the raw body against the webhook schema and
// returns a single joined error message on failure.
func validatePayload(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("invalid payload: %s", strings.Join(problems, "; "))
	}
	return nil
}
