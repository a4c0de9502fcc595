package viewability

import (
	"golang.org/x/net/html"
)

// VisibleEvent is emitted at most once per panel instance, the first time it is seen.
type VisibleEvent struct {
	PanelName string `json:"panelName"`
	ViewURL   string `json:"url"`
}

// VisibilityObserver decides when an observed panel has become visible.
type VisibilityObserver struct {
	threshold float64
	targets   map[*html.Node]*PanelInstance
	onVisible func(*PanelInstance, VisibleEvent)
}

func NewVisibilityObserver(threshold float64, onVisible func(*PanelInstance, VisibleEvent)) *VisibilityObserver {
	return &VisibilityObserver{
		threshold: threshold,
		targets:   make(map[*html.Node]*PanelInstance),
		onVisible: onVisible,
	}
}

// Observe starts watching inst. It returns false when inst is already observed or has
// already been reported.
func (o *VisibilityObserver) Observe(inst *PanelInstance) bool {
	if inst.Reported {
		return false
	}
	if _, ok := o.targets[inst.node]; ok {
		return false
	}
	o.targets[inst.node] = inst
	inst.Observed = true
	return true
}

func (o *VisibilityObserver) Unobserve(n *html.Node) {
	if inst, ok := o.targets[n]; ok {
		inst.Observed = false
		delete(o.targets, n)
	}
}

func (o *VisibilityObserver) Observing(n *html.Node) bool {
	_, ok := o.targets[n]
	return ok
}

// Handle processes one batch of entries. Each entry is evaluated on its own, so a batch
// may fire several distinct panels but never the same panel twice.
func (o *VisibilityObserver) Handle(entries []IntersectionEntry) {
	for _, entry := range entries {
		inst, ok := o.targets[entry.Target]
		if !ok {
			continue
		}
		if !entry.IsIntersecting || entry.IntersectionRatio < o.threshold {
			continue
		}

		inst.Reported = true
		o.Unobserve(entry.Target)

		inst.ViewURL = inst.currentViewURL()
		if o.onVisible != nil {
			o.onVisible(inst, VisibleEvent{
				PanelName: inst.Name,
				ViewURL:   inst.ViewURL,
			})
		}
	}
}
