package backend

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is a named JSON schema for a response body.
type Schema struct {
	Name       string
	Definition string
}

var (
	startSchema = &Schema{Name: "study-start", Definition: `{
		"type": "object",
		"required": ["id"],
		"properties": {
			"id": {"type": "string", "minLength": 1},
			"subject_id": {"type": "string"}
		}
	}`}

	endSchema = &Schema{Name: "study-end", Definition: `{
		"type": "object",
		"required": ["coins_earned", "xp_earned"],
		"properties": {
			"coins_earned": {"type": "integer", "minimum": 0},
			"xp_earned": {"type": "integer", "minimum": 0},
			"skipped": {"type": "boolean"}
		}
	}`}

	statsSchema = &Schema{Name: "stats", Definition: `{
		"type": "object",
		"required": ["subjects"],
		"properties": {
			"subjects": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id"],
					"properties": {
						"id": {"type": "string"},
						"name": {"type": "string"},
						"time_goal": {"type": "integer", "minimum": 0},
						"time_studied": {"type": "integer", "minimum": 0}
					}
				}
			},
			"cycle_progress": {"type": "number"},
			"sessions_completed": {"type": "integer", "minimum": 0},
			"level": {"type": "integer", "minimum": 0},
			"xp": {"type": "integer"},
			"coins": {"type": "integer"}
		}
	}`}

	settingsSchema = &Schema{Name: "settings", Definition: `{
		"type": "object",
		"required": ["study_duration", "break_duration"],
		"properties": {
			"study_duration": {"type": "integer", "minimum": 1},
			"break_duration": {"type": "integer", "minimum": 1}
		}
	}`}
)

// schemaCache caches compiled schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// validateBody checks raw against schema. A nil schema accepts anything
// that is valid JSON.
func validateBody(schema *Schema, raw json.RawMessage) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}
	if schema == nil {
		return nil
	}

	compiled, err := compiledSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("compile schema %q: %w", schema.Name, err)}
	}
	if err := compiled.Validate(parsed); err != nil {
		return &ErrInvalidResponse{Body: raw, Err: fmt.Errorf("schema %q: %w", schema.Name, err)}
	}
	return nil
}

func compiledSchema(schema *Schema) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(schema.Name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	var def any
	if err := json.Unmarshal([]byte(schema.Definition), &def); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := fmt.Sprintf("schema://%s.json", schema.Name)
	if err := c.AddResource(url, def); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(schema.Name, compiled)
	return compiled, nil
}
