// Package validation checks JSON documents against JSON schemas.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrValidation = errors.New("validation failed")

// Error lists every schema violation found in a document.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Violations, "; "))
}

func (e *Error) Is(target error) bool {
	return target == ErrValidation
}

// Ensure validates document against schema. An empty schema accepts any
// document. Violations are reported as *Error; a schema that cannot be
// compiled is reported as a plain error.
func Ensure(schema, document map[string]any) error {
	if len(schema) == 0 {
		return nil
	}
	if document == nil {
		document = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return fmt.Errorf("failed to validate document against schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return &Error{Violations: violations}
}
