package lease

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed report.schema.json
var reportSchemaJSON []byte

// SchemaJSON returns the raw report JSON Schema.
func SchemaJSON() []byte {
	return bytes.Clone(reportSchemaJSON)
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("report.schema.json", bytes.NewReader(reportSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile("report.schema.json")
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// ValidateJSON checks that data is a report document: it must match the
// schema and carry no duplicate finding ids.
func ValidateJSON(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal report: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("report does not match schema: %w", err)
	}

	var ids struct {
		Findings []struct {
			ID string `json:"id"`
		} `json:"findings"`
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("unmarshal findings: %w", err)
	}
	seen := make(map[string]bool, len(ids.Findings))
	for _, f := range ids.Findings {
		if seen[f.ID] {
			return fmt.Errorf("duplicate finding id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

// Validate marshals r and runs ValidateJSON on the result.
func Validate(r *Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return ValidateJSON(data)
}

// DecodeReport validates data and decodes it into a Report.
func DecodeReport(data []byte) (*Report, error) {
	if err := ValidateJSON(data); err != nil {
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
