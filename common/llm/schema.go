package llm

import "github.com/invopop/jsonschema"

// GenerateSchema reflects a JSON schema for T, suitable for a strict
// structured-output request. Used by the moderator to force its three
// phases (difference analysis, debate simulation, synthesis) into a shape
// it can unmarshal without guessing.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// GenerateSchemaFrom reflects a JSON schema from an instance value, for
// callers that don't know the concrete type at compile time.
func GenerateSchemaFrom(v any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return reflector.Reflect(v)
}
