// SPDX-License-Identifier: Apache-2.0

// Package jsonschema validates catalogue and query documents against hand
// maintained JSON schemas before they are unmarshaled into their typed Go
// representations, so a config with a stray or misspelled field is rejected
// with a precise path instead of silently ignored by encoding/json.
package jsonschema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/catalogue.schema.json schema/query.schema.json
var schemaFS embed.FS

var (
	catalogueSchema = mustCompile("schema/catalogue.schema.json", "catalogue.schema.json")
	querySchema     = mustCompile("schema/query.schema.json", "query.schema.json")
)

func mustCompile(path, resourceName string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("jsonschema: read %s: %v", path, err))
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("jsonschema: decode %s: %v", path, err))
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource(resourceName, doc); err != nil {
		panic(fmt.Sprintf("jsonschema: add resource %s: %v", resourceName, err))
	}

	sch, err := c.Compile(resourceName)
	if err != nil {
		panic(fmt.Sprintf("jsonschema: compile %s: %v", resourceName, err))
	}
	return sch
}

// ValidateCatalogue checks raw catalogue JSON against the catalogue schema,
// returning a descriptive error for the first schema violation found.
func ValidateCatalogue(raw []byte) error {
	return validate(catalogueSchema, raw)
}

// ValidateQuery checks a raw query document against the query schema.
func ValidateQuery(raw []byte) error {
	return validate(querySchema, raw)
}

func validate(sch *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("jsonschema: invalid JSON: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("jsonschema: %w", err)
	}
	return nil
}
