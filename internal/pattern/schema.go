package pattern

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed pattern.schema.json
var schemaJSON string

var schemaLoader = gojsonschema.NewStringLoader(schemaJSON)

// validateSchema checks a raw body against the embedded pattern schema.
func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation errors: %s", strings.Join(msgs, "; "))
}
