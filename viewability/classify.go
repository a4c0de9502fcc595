package viewability

import (
	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"golang.org/x/net/html"
)

// Role tells the watcher what to do about sliders for an inserted node.
type Role int

const (
	// RoleIgnored is used for text, comments and anything that is not an element.
	RoleIgnored Role = iota
	// RoleSlider marks a node which is itself a slider container.
	RoleSlider
	// RoleContainer marks an element which may hold nested slider containers.
	RoleContainer
)

func (r Role) String() string {
	switch r {
	case RoleSlider:
		return "slider"
	case RoleContainer:
		return "container"
	default:
		return "ignored"
	}
}

// Classification is evaluated once per inserted node. Panel is independent from Role:
// a panel container may also be a slider container.
type Classification struct {
	Panel bool
	Role  Role
}

// Classify inspects n against the configured markers.
func Classify(n *html.Node, markers config.Markers) Classification {
	if n == nil || n.Type != html.ElementNode {
		return Classification{Role: RoleIgnored}
	}
	c := Classification{
		Panel: dom.HasClass(n, markers.PanelClass),
		Role:  RoleContainer,
	}
	if dom.HasClass(n, markers.SliderClass) {
		c.Role = RoleSlider
	}
	return c
}
