package viewability

import (
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"golang.org/x/net/html"
)

// Registry maps tracked elements to their instance state. Presence in the registry is the
// "tracking started" marker: an element is never wired twice.
type Registry struct {
	instances map[*html.Node]*PanelInstance
}

func NewRegistry() *Registry {
	return &Registry{
		instances: make(map[*html.Node]*PanelInstance),
	}
}

// Track returns the instance for n, creating it with create when n is not tracked yet.
func (r *Registry) Track(n *html.Node, create func() *PanelInstance) (*PanelInstance, bool) {
	if inst, ok := r.instances[n]; ok {
		return inst, false
	}
	inst := create()
	r.instances[n] = inst
	return inst, true
}

// Untrack forgets n and returns its instance, if any.
func (r *Registry) Untrack(n *html.Node) (*PanelInstance, bool) {
	inst, ok := r.instances[n]
	if ok {
		delete(r.instances, n)
	}
	return inst, ok
}

// Within returns every instance whose element is root or one of its descendants.
func (r *Registry) Within(root *html.Node) []*PanelInstance {
	var found []*PanelInstance
	for n, inst := range r.instances {
		if dom.Contains(root, n) {
			found = append(found, inst)
		}
	}
	return found
}

// All returns every tracked instance in no particular order.
func (r *Registry) All() []*PanelInstance {
	all := make([]*PanelInstance, 0, len(r.instances))
	for _, inst := range r.instances {
		all = append(all, inst)
	}
	return all
}

func (r *Registry) Len() int {
	return len(r.instances)
}
