// Package inspect extracts values from response bodies and validates them
// against JSON schemas. It backs the CLI --extract and --schema flags.
package inspect

import (
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"

	"github.com/itsJohnCnstn/httpcall/packages/client"
)

// Extract evaluates a gjson path against the response body. An empty path
// returns the whole body as a string.
func Extract(resp *client.Response, path string) (any, error) {
	raw, err := resp.Bytes()
	if err != nil {
		return nil, err
	}

	if path == "" {
		return string(raw), nil
	}

	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("response body is not valid JSON")
	}

	result := gjson.GetBytes(raw, path)
	if !result.Exists() {
		return nil, fmt.Errorf("path %q not found in response body", path)
	}
	return result.Value(), nil
}

// ValidateSchema checks the response body against a JSON schema document.
// The returned slice holds one message per violation; empty means valid.
func ValidateSchema(resp *client.Response, schemaJSON []byte) ([]string, error) {
	raw, err := resp.Bytes()
	if err != nil {
		return nil, err
	}

	schemaLoader := gojsonschema.NewBytesLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validation error: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}

// ValidateSchemaFile is ValidateSchema with the schema read from disk.
func ValidateSchemaFile(resp *client.Response, schemaPath string) ([]string, error) {
	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %v", err)
	}
	return ValidateSchema(resp, schemaData)
}

// FormatViolations joins violations for display.
func FormatViolations(violations []string) string {
	return "schema validation failed: " + strings.Join(violations, "; ")
}
