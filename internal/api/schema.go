package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var (
	registerSchema = mustCompileSchema("schemas/register.schema.json")
	commandSchema  = mustCompileSchema("schemas/command.schema.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(err)
	}
	return c.MustCompile(name)
}

// decodeValidated checks body against schema, then unmarshals it into dst.
// Validation errors come back verbatim so agents can fix their payloads.
func decodeValidated(schema *jsonschema.Schema, body []byte, dst interface{}) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}
