package utils

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaOption customizes the schema produced by GetSchemaFromConfig.
type SchemaOption func(*schemaOptions)

type schemaOptions struct {
	title       string
	description string
	indent      bool
}

// WithTitle sets the title and description of the root schema.
func WithTitle(title string, description string) SchemaOption {
	return func(o *schemaOptions) {
		o.title = title
		o.description = description
	}
}

// WithIndent pretty-prints the schema.
func WithIndent() SchemaOption {
	return func(o *schemaOptions) {
		o.indent = true
	}
}

// GetSchemaFromConfig reflects config into a self-contained JSON schema. Nested structs are
// inlined instead of referenced through $defs.
func GetSchemaFromConfig(config any, opts ...SchemaOption) (string, error) {
	var options schemaOptions
	for _, opt := range opts {
		opt(&options)
	}

	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}

	schema := reflector.Reflect(config)

	if options.title != "" {
		schema.Title = options.title
		schema.Description = options.description
	}

	var (
		jsonSchemaBytes []byte
		err             error
	)

	if options.indent {
		jsonSchemaBytes, err = json.MarshalIndent(schema, "", "  ")
	} else {
		jsonSchemaBytes, err = json.Marshal(schema)
	}

	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
