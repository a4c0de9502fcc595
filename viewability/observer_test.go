package viewability

import (
	"testing"

	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/stretchr/testify/assert"
)

type visibleRecorder struct {
	events []VisibleEvent
}

func (r *visibleRecorder) onVisible(_ *PanelInstance, event VisibleEvent) {
	r.events = append(r.events, event)
}

func TestObserverFiresAtMostOnce(t *testing.T) {
	_, nodes := fragmentNodes(t, `<div class="renovi-panel" data-panel-name="lobby" data-view-url="https://ads.test/v"></div>`)
	inst := newPanelInstance(nodes[0], config.DefaultMarkers())
	recorder := &visibleRecorder{}
	observer := NewVisibilityObserver(0.5, recorder.onVisible)

	assert.True(t, observer.Observe(inst))
	assert.False(t, observer.Observe(inst), "second observe must be a no-op")

	visible := IntersectionEntry{Target: inst.node, IntersectionRatio: 0.9, IsIntersecting: true}
	observer.Handle([]IntersectionEntry{visible, visible})
	observer.Handle([]IntersectionEntry{visible})

	assert.Equal(t, []VisibleEvent{{PanelName: "lobby", ViewURL: "https://ads.test/v"}}, recorder.events)
	assert.True(t, inst.Reported)
	assert.False(t, inst.Observed)
	assert.False(t, observer.Observing(inst.node))
	assert.False(t, observer.Observe(inst), "reported panels are never observed again")
}

func TestObserverThreshold(t *testing.T) {
	testCases := []struct {
		description    string
		entry          IntersectionEntry
		expectedEvents int
	}{
		{
			description: "below threshold",
			entry:       IntersectionEntry{IntersectionRatio: 0.3, IsIntersecting: true},
		},
		{
			description:    "exactly at threshold",
			entry:          IntersectionEntry{IntersectionRatio: 0.5, IsIntersecting: true},
			expectedEvents: 1,
		},
		{
			description:    "fully visible",
			entry:          IntersectionEntry{IntersectionRatio: 1, IsIntersecting: true},
			expectedEvents: 1,
		},
		{
			description: "not intersecting",
			entry:       IntersectionEntry{IntersectionRatio: 0.8},
		},
	}

	for _, test := range testCases {
		_, nodes := fragmentNodes(t, `<div class="renovi-panel" data-panel-name="p"></div>`)
		inst := newPanelInstance(nodes[0], config.DefaultMarkers())
		recorder := &visibleRecorder{}
		observer := NewVisibilityObserver(0.5, recorder.onVisible)
		observer.Observe(inst)

		test.entry.Target = inst.node
		observer.Handle([]IntersectionEntry{test.entry})

		assert.Len(t, recorder.events, test.expectedEvents, test.description)
		assert.Equal(t, test.expectedEvents == 0, observer.Observing(inst.node), test.description)
	}
}

func TestObserverIgnoresUnobservedTargets(t *testing.T) {
	_, nodes := fragmentNodes(t, `<div class="renovi-panel"></div><div class="renovi-panel"></div>`)
	recorder := &visibleRecorder{}
	observer := NewVisibilityObserver(0.5, recorder.onVisible)
	first := newPanelInstance(nodes[0], config.DefaultMarkers())
	observer.Observe(first)
	observer.Unobserve(nodes[0])
	observer.Unobserve(nodes[0])

	observer.Handle([]IntersectionEntry{
		{Target: nodes[0], IntersectionRatio: 1, IsIntersecting: true},
		{Target: nodes[1], IntersectionRatio: 1, IsIntersecting: true},
	})

	assert.Empty(t, recorder.events)
	assert.False(t, first.Reported)
}

func TestObserverBatchFiresEachPanel(t *testing.T) {
	_, nodes := fragmentNodes(t, `<div class="renovi-panel" data-panel-name="a"></div><div class="renovi-panel" data-panel-name="b"></div>`)
	recorder := &visibleRecorder{}
	observer := NewVisibilityObserver(0.5, recorder.onVisible)
	for _, n := range nodes {
		observer.Observe(newPanelInstance(n, config.DefaultMarkers()))
	}

	observer.Handle([]IntersectionEntry{
		{Target: nodes[0], IntersectionRatio: 0.1, IsIntersecting: true},
		{Target: nodes[1], IntersectionRatio: 0.7, IsIntersecting: true},
		{Target: nodes[0], IntersectionRatio: 0.6, IsIntersecting: true},
	})

	assert.Equal(t, []VisibleEvent{{PanelName: "b"}, {PanelName: "a"}}, recorder.events)
}
