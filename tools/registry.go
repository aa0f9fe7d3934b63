package tools

import (
	"errors"
	"fmt"
)

// ErrDuplicateCapability is returned when two descriptors share a name
var ErrDuplicateCapability = errors.New("duplicate capability")

// Registry is the fixed set of capabilities offered to the model.
// It is built once and never mutated, so it is safe for concurrent use.
type Registry struct {
	descriptors []*Descriptor
	byName      map[string]*Descriptor
}

// NewRegistry builds a registry that keeps the given order
func NewRegistry(descs ...*Descriptor) (*Registry, error) {
	r := &Registry{
		descriptors: make([]*Descriptor, 0, len(descs)),
		byName:      make(map[string]*Descriptor, len(descs)),
	}
	for i, d := range descs {
		if d == nil {
			return nil, fmt.Errorf("descriptor %d is nil", i)
		}
		if _, exists := r.byName[d.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCapability, d.Name())
		}
		r.byName[d.Name()] = d
		r.descriptors = append(r.descriptors, d)
	}
	return r, nil
}

// Resolve looks up a capability by name
func (r *Registry) Resolve(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Schemas returns the advertised schemas in registration order
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = d.Schema()
	}
	return out
}

// Names returns the capability names in registration order
func (r *Registry) Names() []string {
	out := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = d.Name()
	}
	return out
}

// Len returns the number of capabilities
func (r *Registry) Len() int {
	return len(r.descriptors)
}
