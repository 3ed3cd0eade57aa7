package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const nullableNumber = `{"type": ["number", "null"]}`

var requestSchemas = map[string]string{
	"payment": `{
		"type": "object",
		"properties": {
			"totalAmount": ` + nullableNumber + `,
			"downPayment": ` + nullableNumber + `,
			"termYears": {"type": "number"},
			"annualRatePercent": {"type": "number"}
		},
		"required": ["termYears"]
	}`,
	"term": `{
		"type": "object",
		"properties": {
			"totalAmount": ` + nullableNumber + `,
			"downPayment": ` + nullableNumber + `,
			"monthlyPayment": {"type": "number"},
			"annualRatePercent": {"type": "number"}
		},
		"required": ["monthlyPayment"]
	}`,
	"remaining": `{
		"type": "object",
		"properties": {
			"remainingPrincipal": ` + nullableNumber + `,
			"termYears": {"type": "number"},
			"annualRatePercent": {"type": "number"}
		},
		"required": ["termYears"]
	}`,
	"annuity": `{
		"type": "object",
		"properties": {
			"principal": {"type": "number"},
			"termYears": {"type": "number"},
			"annualRatePercent": {"type": "number"}
		},
		"required": ["principal", "termYears"]
	}`,
	"schedule": `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"startDate": {"type": "string", "pattern": "^[0-9]{4}-[0-9]{2}$"},
			"principal": {"type": "number", "minimum": 0},
			"downPayment": {"type": "number", "minimum": 0},
			"termYears": {"type": "integer", "minimum": 1},
			"annualRatePercent": {"type": "number", "minimum": 0},
			"extraPayments": {
				"type": "object",
				"additionalProperties": {"type": "number", "minimum": 0}
			}
		},
		"required": ["startDate", "principal", "termYears"]
	}`,
	"createSession": `{
		"type": "object",
		"properties": {
			"flow": {"type": "string", "minLength": 1}
		},
		"required": ["flow"]
	}`,
	"update": `{
		"type": "object",
		"properties": {
			"values": {"type": "object"},
			"touched": {"type": "array", "items": {"type": "string"}}
		},
		"minProperties": 1
	}`,
	"borrower": `{
		"type": "object",
		"properties": {
			"values": {"type": "object"}
		},
		"required": ["values"]
	}`,
}

// compileSchemas parses every request schema once.
func compileSchemas() (map[string]*gojsonschema.Schema, error) {
	compiled := make(map[string]*gojsonschema.Schema, len(requestSchemas))
	for name, source := range requestSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", name, err)
		}
		compiled[name] = schema
	}
	return compiled, nil
}

// checkSchema validates body against schema and returns the violations as one
// message.
func checkSchema(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("invalid request: %s", strings.Join(problems, "; "))
}
