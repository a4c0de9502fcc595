package viewability

import (
	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"golang.org/x/net/html"
)

// attacher wires tracking onto document elements. The tracker is the only implementation.
type attacher interface {
	attachObserver(n *html.Node)
	startRotator(n *html.Node)
	detach(root *html.Node)
}

// Watcher reacts to document mutations by wiring newly inserted panels and sliders and
// releasing the ones that were removed.
type Watcher struct {
	markers config.Markers
	target  attacher
}

func newWatcher(markers config.Markers, target attacher) *Watcher {
	return &Watcher{
		markers: markers,
		target:  target,
	}
}

// OnMutations is registered as the document's mutation callback.
func (w *Watcher) OnMutations(records []dom.MutationRecord) {
	for _, record := range records {
		for _, n := range record.Added {
			w.attach(n)
		}
		for _, n := range record.Removed {
			w.target.detach(n)
		}
	}
}

// attach applies the classification of a single inserted node. Only the top-level node is
// checked for the panel marker; sliders are also searched for below containers.
func (w *Watcher) attach(n *html.Node) {
	c := Classify(n, w.markers)
	if c.Panel {
		w.target.attachObserver(n)
	}

	switch c.Role {
	case RoleSlider:
		w.target.startRotator(n)
	case RoleContainer:
		for _, slider := range dom.FindAll(n, w.isSlider) {
			w.target.startRotator(slider)
		}
	}
}

func (w *Watcher) isSlider(n *html.Node) bool {
	return dom.HasClass(n, w.markers.SliderClass)
}

func (w *Watcher) isPanel(n *html.Node) bool {
	return dom.HasClass(n, w.markers.PanelClass)
}

// scan wires everything already present below root. Used once when tracking starts.
func (w *Watcher) scan(root *html.Node) {
	for _, n := range dom.FindAll(root, w.isPanel) {
		w.target.attachObserver(n)
	}
	for _, n := range dom.FindAll(root, w.isSlider) {
		w.target.startRotator(n)
	}
}
