package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// Validator checks an untyped argument value and produces typed arguments.
// It also projects itself into the JSON Schema advertised to the model.
type Validator[T any] interface {
	Parse(raw any) (T, error)
	JSONSchema() map[string]any
}

// ValidationError lists every schema violation found in one argument value
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid arguments: " + strings.Join(e.Problems, "; ")
}

// structValidator validates against the JSON Schema reflected from T
type structValidator[T any] struct {
	schema   map[string]any
	compiled *gojsonschema.Schema
}

// ParametersOf reflects the struct type T into a JSON Schema object.
// Field names come from json tags; fields without omitempty are required.
// Constraints come from jsonschema tags (enum, minimum, maximum, default, ...)
// and descriptions from jsonschema_description tags.
func ParametersOf[T any]() (Validator[T], error) {
	var zero T
	if t := reflect.TypeOf(zero); t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("parameters must be a struct type, got %T", zero)
	}

	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	reflected := reflector.Reflect(&zero)

	raw, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		props = map[string]any{}
		schema["properties"] = props
	}
	// untyped fields ("any") may reflect to the boolean schema
	for name, p := range props {
		if b, isBool := p.(bool); isBool && b {
			props[name] = map[string]any{}
		}
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &structValidator[T]{schema: schema, compiled: compiled}, nil
}

func (v *structValidator[T]) JSONSchema() map[string]any {
	return v.schema
}

// Parse applies schema defaults to absent properties, validates the result,
// then decodes it into T. Numbers are coerced to the field's type.
func (v *structValidator[T]) Parse(raw any) (T, error) {
	var out T

	input := v.withDefaults(raw)

	result, err := v.compiled.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return out, &ValidationError{Problems: []string{err.Error()}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			problems = append(problems, re.String())
		}
		return out, &ValidationError{Problems: problems}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return out, fmt.Errorf("failed to build decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return out, &ValidationError{Problems: []string{err.Error()}}
	}
	return out, nil
}

// withDefaults returns a shallow copy of raw with top-level schema defaults
// filled in. Non-object values are returned unchanged.
func (v *structValidator[T]) withDefaults(raw any) any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return raw
	}
	props, _ := v.schema["properties"].(map[string]any)

	out := make(map[string]any, len(obj)+len(props))
	for k, val := range obj {
		out[k] = val
	}
	for name, p := range props {
		prop, ok := p.(map[string]any)
		if !ok {
			continue
		}
		def, hasDefault := prop["default"]
		if _, present := out[name]; !present && hasDefault {
			out[name] = def
		}
	}
	return out
}
