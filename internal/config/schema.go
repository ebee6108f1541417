package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema of distserve.yaml.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	sch := r.Reflect(&Config{})
	sch.Title = "distserve configuration"
	sch.Description = "Optional distserve.yaml placed next to the distserve binary."
	return sch
}

// MarshalSchema indents the schema to JSON bytes.
func MarshalSchema(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}
