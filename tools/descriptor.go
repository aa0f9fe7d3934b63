// Package tools turns typed parameter structs and handler functions into
// capability descriptors the model can call, and holds them in a Registry.
package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/va6996/aifns/log"
)

// ErrInvalidName is returned when a capability name is empty, longer than
// 64 characters, or contains characters outside [A-Za-z0-9_-].
var ErrInvalidName = errors.New("invalid capability name")

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Schema is the model-facing description of a capability
type Schema struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// Handler receives validated arguments. A returned error is reported to the
// model as the capability's result.
type Handler[T any] func(ctx context.Context, args T) (any, error)

// Descriptor pairs a capability's schema with its invocation logic
type Descriptor struct {
	schema Schema
	invoke func(ctx context.Context, raw any) any
}

// Name returns the capability name
func (d *Descriptor) Name() string {
	return d.schema.Name
}

// Schema returns a copy of the schema advertised to the model. Callers may
// modify it freely.
func (d *Descriptor) Schema() Schema {
	s := d.schema
	s.Parameters = copyMap(d.schema.Parameters)
	return s
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Invoke validates raw and calls the handler. It never fails: invalid
// arguments, handler errors and handler panics all come back as strings.
func (d *Descriptor) Invoke(ctx context.Context, raw any) any {
	return d.invoke(ctx, raw)
}

// New builds a descriptor from an explicit validator
func New[T any](name, description string, v Validator[T], h Handler[T]) (*Descriptor, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if v == nil {
		return nil, fmt.Errorf("capability %s: validator is required", name)
	}
	if h == nil {
		return nil, fmt.Errorf("capability %s: handler is required", name)
	}

	d := &Descriptor{
		schema: Schema{
			Name:        name,
			Description: description,
			Parameters:  copyMap(v.JSONSchema()),
		},
	}
	d.invoke = func(ctx context.Context, raw any) any {
		args, err := v.Parse(raw)
		if err != nil {
			log.Debugf(ctx, "Rejected arguments for %s: %v", name, err)
			return err.Error()
		}
		return call(ctx, name, h, args)
	}
	return d, nil
}

// Define builds a descriptor whose parameters are reflected from T
func Define[T any](name, description string, h Handler[T]) (*Descriptor, error) {
	v, err := ParametersOf[T]()
	if err != nil {
		return nil, fmt.Errorf("capability %s: %w", name, err)
	}
	return New(name, description, v, h)
}

// MustDefine is Define for static tool tables; it panics on error
func MustDefine[T any](name, description string, h Handler[T]) *Descriptor {
	d, err := Define(name, description, h)
	if err != nil {
		panic(err)
	}
	return d
}

func call[T any](ctx context.Context, name string, h Handler[T], args T) (result any) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf(ctx, "Capability %s panicked: %v", name, r)
			result = fmt.Sprintf("%s failed: %v", name, r)
		}
	}()

	res, err := h(ctx, args)
	if err != nil {
		log.Warnf(ctx, "Capability %s returned error: %v", name, err)
		return fmt.Sprintf("%s failed: %v", name, err)
	}
	return res
}
