package dispatch

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Validator inspects a successfully parsed response body. It returns false
// and a reason to turn the outcome into a Failure.
type Validator func(body gjson.Result) (bool, string)

// AcceptAll approves every body
func AcceptAll(gjson.Result) (bool, string) {
	return true, ""
}

// SchemaValidator checks bodies against a JSON Schema document
func SchemaValidator(schemaJSON []byte) (Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}

	return func(body gjson.Result) (bool, string) {
		result, err := schema.Validate(gojsonschema.NewStringLoader(body.Raw))
		if err != nil {
			return false, fmt.Sprintf("schema validation error: %v", err)
		}
		if result.Valid() {
			return true, ""
		}

		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return false, fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; "))
	}, nil
}

// FieldValidator requires the value at a gjson path to equal expected
func FieldValidator(path, expected string) Validator {
	return func(body gjson.Result) (bool, string) {
		v := body.Get(path)
		if !v.Exists() {
			return false, fmt.Sprintf("field %s not found", path)
		}
		if v.String() != expected {
			return false, fmt.Sprintf("field %s: expected %q, got %q", path, expected, v.String())
		}
		return true, ""
	}
}

// All approves a body only if every validator does. The first rejection wins.
func All(validators ...Validator) Validator {
	return func(body gjson.Result) (bool, string) {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if ok, reason := v(body); !ok {
				return false, reason
			}
		}
		return true, ""
	}
}
