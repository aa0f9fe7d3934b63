// Package plugins groups the capability providers. Each subpackage exposes
// a client whose Tools method returns its descriptors.
package plugins

import "github.com/va6996/aifns/tools"

// Plugin is a source of capabilities
type Plugin interface {
	Tools() []*tools.Descriptor
}

// Collect concatenates the tools of each plugin, preserving order
func Collect(plugins ...Plugin) []*tools.Descriptor {
	var descs []*tools.Descriptor
	for _, p := range plugins {
		descs = append(descs, p.Tools()...)
	}
	return descs
}
