package yaml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator checks decoded documents against a JSON schema, reporting
// violations as [Error]s that point at the offending node.
// Uses [github.com/santhosh-tekuri/jsonschema/v6].
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles schemaData, registered under url, into a [Validator].
func NewValidator(url string, schemaData []byte) (*Validator, error) {
	var schema any

	err := json.Unmarshal(schemaData, &schema)
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()

	err = compiler.AddResource(url, schema)
	if err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	jss, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	return &Validator{schema: jss}, nil
}

// MustNewValidator is [NewValidator], panicking on bad schemas.
// Embedded schemas are compiled at package init where panics are wanted.
func MustNewValidator(url string, schemaData []byte) *Validator {
	v, err := NewValidator(url, schemaData)
	if err != nil {
		panic(err)
	}

	return v
}

// Validate checks data against the schema. Violations come back as an
// [Error] carrying the YAMLPath of the deepest failing node, so callers
// holding the source can render an annotated snippet.
func (s *Validator) Validate(data any) error {
	err := s.schema.Validate(data)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	return &Error{
		Err:  validationErr,
		Path: pathOfCause(validationErr),
	}
}

// pathOfCause converts the most specific cause of a validation error into
// a YAMLPath.
func pathOfCause(validationErr *jsonschema.ValidationError) *yaml.Path {
	return locationPath(deepestLocation(validationErr))
}

// deepestLocation returns the longest InstanceLocation among err and its
// causes. Deeper locations make for more precise annotations.
func deepestLocation(err *jsonschema.ValidationError) []string {
	longest := err.InstanceLocation

	for _, cause := range err.Causes {
		if loc := deepestLocation(cause); len(loc) > len(longest) {
			longest = loc
		}
	}

	return longest
}

// locationPath builds a YAMLPath from an InstanceLocation.
// Numeric segments become sequence indexes.
func locationPath(location []string) *yaml.Path {
	current := NewPathBuilder().Root()

	for _, part := range location {
		index, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			current = current.Child(part)

			continue
		}

		//nolint:gosec // G115: bounded by the ParseUint bit size.
		current = current.Index(uint(index))
	}

	return current.Build()
}
