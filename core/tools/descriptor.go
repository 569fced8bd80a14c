package tools

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Descriptor describes one callable tool: its model-facing contract plus the
// announcement spoken to the caller before the tool runs.
type Descriptor struct {
	// Name is the function name the model invokes the tool by.
	Name string
	// Say is spoken as an out-of-band announcement before execution, so the
	// caller hears immediate acknowledgment during a slow tool round trip.
	Say string
	// Description tells the model when to invoke the tool.
	Description string
	// Parameters is the JSON schema of the argument object.
	Parameters json.RawMessage
	// Returns is the JSON schema of the result object.
	Returns json.RawMessage
}

// Handler executes a tool with validated arguments and returns a serialized
// result the model can consume.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Entry pairs a descriptor with its statically registered handler.
type Entry struct {
	Descriptor Descriptor
	Handler    Handler
}

// schemaFor reflects a JSON schema from a parameter or result struct.
func schemaFor(v any) json.RawMessage {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(v)
	raw, err := schema.MarshalJSON()
	if err != nil {
		// Reflection operates on static catalog types; a failure here is a
		// programming error, not an input error.
		panic(err)
	}
	return raw
}
