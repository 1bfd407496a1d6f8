package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/a3tai/voter-roll-reader/internal/voter"
)

// ErrInvalidRecord wraps schema violations reported by ValidateRecord.
var ErrInvalidRecord = errors.New("record does not match schema")

//go:embed record.schema.json
var recordSchemaJSON []byte

const recordSchemaURL = "record.schema.json"

// RecordSchema returns the compiled at-rest record schema.
var RecordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(recordSchemaURL, bytes.NewReader(recordSchemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(recordSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// ValidateRecord checks rec against RecordSchema and returns its JSON
// encoding when it conforms.
func ValidateRecord(rec voter.Record) ([]byte, error) {
	schema, err := RecordSchema()
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return b, nil
}
