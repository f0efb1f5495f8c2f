package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const documentSchemaURL = "bookit://schemas/booking-document.json"

const documentSchema = `{
  "type": "object",
  "properties": {
    "rooms": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "building", "status"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "building": {"enum": ["SST", "TYD"]},
          "seats": {"type": "integer", "minimum": 0},
          "status": {"enum": ["AVAILABLE", "UNAVAILABLE"]},
          "utilities": {
            "type": ["object", "null"],
            "additionalProperties": {"enum": ["WORKING", "FAULTY"]}
          }
        }
      }
    },
    "reservations": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "requester_id", "room_id", "date", "start_time", "end_time", "status"],
        "properties": {
          "id": {"type": "integer"},
          "requester_id": {"type": "string", "minLength": 1},
          "room_id": {"type": "string", "minLength": 1},
          "date": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
          "start_time": {"type": "string", "pattern": "^\\d{2}:\\d{2}$"},
          "end_time": {"type": "string", "pattern": "^\\d{2}:\\d{2}$"},
          "status": {"enum": ["PENDING", "APPROVED", "DENIED"]}
        }
      }
    },
    "activity": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["id", "action"],
        "properties": {
          "action": {"enum": ["created", "approved", "denied", "deleted", "bulk_approved"]}
        }
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadDocumentSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(documentSchemaURL, strings.NewReader(documentSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(documentSchemaURL)
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks a raw booking document against the persisted document schema.
func ValidateDocument(raw []byte) error {
	schema, err := loadDocumentSchema()
	if err != nil {
		return fmt.Errorf("compile document schema: %w", err)
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}
