package viewability

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dispatcherMock struct {
	mu     sync.Mutex
	events []VisibleEvent
	err    error
}

func (d *dispatcherMock) Dispatch(_ context.Context, event VisibleEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return d.err
}

func (d *dispatcherMock) sent() []VisibleEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]VisibleEvent(nil), d.events...)
}

// goPool runs every accepted task on its own goroutine.
type goPool struct {
	reject bool
	wg     sync.WaitGroup
}

func (p *goPool) TrySubmit(task func()) bool {
	if p.reject {
		return false
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		task()
	}()
	return true
}

func (p *goPool) StopAndWait() {
	p.wg.Wait()
}

type trackerFixture struct {
	tracker    *Tracker
	doc        *dom.Document
	clock      *clock.Mock
	dispatcher *dispatcherMock
	pool       *goPool
	results    chan Result
}

func newTrackerFixture(t *testing.T, page string) *trackerFixture {
	t.Helper()
	doc, err := dom.ParseDocument(strings.NewReader(page))
	require.NoError(t, err)

	f := &trackerFixture{
		doc:        doc,
		clock:      clock.NewMock(),
		dispatcher: &dispatcherMock{},
		pool:       &goPool{},
		results:    make(chan Result, 10),
	}
	f.tracker = NewTracker(doc, f.dispatcher, Options{
		Tracking: config.DefaultTracking(),
		Clock:    f.clock,
		Pool:     f.pool,
		OnResult: func(r Result) { f.results <- r },
	})
	require.NoError(t, f.tracker.Start(context.Background()))
	t.Cleanup(f.tracker.Shutdown)
	return f
}

func (f *trackerFixture) status(t *testing.T, name string) (PanelStatus, bool) {
	panels, err := f.tracker.Panels()
	require.NoError(t, err)
	for _, p := range panels {
		if p.Name == name {
			return p, true
		}
	}
	return PanelStatus{}, false
}

func (f *trackerFixture) idOf(t *testing.T, name string) dom.NodeID {
	p, ok := f.status(t, name)
	require.True(t, ok, "panel %q is not tracked", name)
	return p.ID
}

func (f *trackerFixture) waitResult(t *testing.T) Result {
	select {
	case r := <-f.results:
		return r
	case <-time.After(time.Second):
		t.Fatal("no impression result")
		return Result{}
	}
}

const sliderPage = `<html><body>` +
	`<div class="renovi-panel renovi-slider" data-panel-name="lobby" data-view-url="https://ads.test/lobby">` +
	`<div class="renovi-slide" data-slide-id="1"></div>` +
	`<div class="renovi-slide" data-slide-id="2"></div>` +
	`<div class="renovi-slide" data-slide-id="3"></div>` +
	`</div>` +
	`<div class="renovi-panel renovi-slider" data-panel-name="single"><div class="renovi-slide"></div></div>` +
	`</body></html>`

func TestTrackerInitialScan(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)

	lobby, ok := f.status(t, "lobby")
	require.True(t, ok)
	assert.True(t, lobby.Panel)
	assert.True(t, lobby.Observed)
	assert.True(t, lobby.Rotating)
	assert.Len(t, lobby.Slides, 3)

	single, ok := f.status(t, "single")
	require.True(t, ok)
	assert.True(t, single.Observed)
	assert.False(t, single.Rotating, "single slide panels never rotate")
}

func TestTrackerRotatesSlides(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)
	period := config.DefaultTracking().RotationPeriod()

	for _, expected := range []int{1, 2, 0} {
		f.clock.Add(period)
		assert.Eventually(t, func() bool {
			p, _ := f.status(t, "lobby")
			return p.ActiveIndex == expected
		}, time.Second, 5*time.Millisecond, "expected active slide %d", expected)
	}

	out, err := f.tracker.Render(f.idOf(t, "lobby"))
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "active"), "exactly one slide carries the active marker")
	assert.Contains(t, out, `class="renovi-slide active" data-slide-id="1"`)
}

func TestTrackerRotatesInsertedSlider(t *testing.T) {
	f := newTrackerFixture(t, `<html><body></body></html>`)
	period := config.DefaultTracking().RotationPeriod()

	ids, err := f.tracker.InsertHTML(f.doc.Body(), `<div class="renovi-slider" data-panel-name="carousel">`+
		`<div class="renovi-slide" data-slide-id="a"></div>`+
		`<div class="renovi-slide" data-slide-id="b"></div>`+
		`<div class="renovi-slide" data-slide-id="c"></div>`+
		`</div>`)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	activeIndex := func() int {
		p, _ := f.status(t, "carousel")
		return p.ActiveIndex
	}

	carousel, _ := f.status(t, "carousel")
	assert.True(t, carousel.Rotating)
	assert.False(t, carousel.Observed, "a slider without the panel marker is not observed")
	assert.Equal(t, 0, activeIndex())
	out, err := f.tracker.Render(ids[0])
	require.NoError(t, err)
	assert.Contains(t, out, `class="renovi-slide active" data-slide-id="a"`)

	sequence := []int{activeIndex()}
	for _, expected := range []int{1, 2, 0} {
		f.clock.Add(period)
		assert.Eventually(t, func() bool { return activeIndex() == expected }, time.Second, 5*time.Millisecond,
			"expected active slide %d", expected)
		sequence = append(sequence, activeIndex())
	}
	assert.Equal(t, []int{0, 1, 2, 0}, sequence)
}

func TestTrackerNestedSliderViewURL(t *testing.T) {
	f := newTrackerFixture(t, `<html><body>`+
		`<div class="renovi-panel" data-panel-name="hall" data-view-url="https://ads.test/hall">`+
		`<div class="renovi-slider">`+
		`<div class="renovi-slide" data-view-url="https://ads.test/s0"></div>`+
		`<div class="renovi-slide" data-view-url="https://ads.test/s1"></div>`+
		`</div></div>`+
		`</body></html>`)

	hall, ok := f.status(t, "hall")
	require.True(t, ok)
	assert.False(t, hall.Rotating, "the inner slider rotates, not the panel")
	assert.Equal(t, "https://ads.test/s0", hall.ViewURL)

	f.clock.Add(config.DefaultTracking().RotationPeriod())
	assert.Eventually(t, func() bool {
		p, _ := f.status(t, "hall")
		return p.ActiveIndex == 1
	}, time.Second, 5*time.Millisecond)

	_, err := f.tracker.ReportIntersections([]IntersectionReport{{ID: hall.ID, IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)

	result := f.waitResult(t)
	assert.Equal(t, VisibleEvent{PanelName: "hall", ViewURL: "https://ads.test/s1"}, result.Event)
}

func TestTrackerFiresOneImpression(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)
	id := f.idOf(t, "lobby")

	warnings, err := f.tracker.ReportIntersections([]IntersectionReport{{ID: id, IntersectionRatio: 0.3, IsIntersecting: true}})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Empty(t, f.dispatcher.sent())

	for i := 0; i < 3; i++ {
		_, err = f.tracker.ReportIntersections([]IntersectionReport{{ID: id, IntersectionRatio: 0.8, IsIntersecting: true}})
		require.NoError(t, err)
	}

	result := f.waitResult(t)
	assert.NoError(t, result.Err)
	assert.Equal(t, VisibleEvent{PanelName: "lobby", ViewURL: "https://ads.test/lobby"}, result.Event)
	assert.Equal(t, []VisibleEvent{{PanelName: "lobby", ViewURL: "https://ads.test/lobby"}}, f.dispatcher.sent())

	lobby, _ := f.status(t, "lobby")
	assert.True(t, lobby.Reported)
	assert.False(t, lobby.Observed)
	assert.True(t, lobby.Rotating, "rotation continues after the impression")
}

func TestTrackerReportGeometry(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)
	id := f.idOf(t, "single")
	viewport := Rect{Width: 1000, Height: 800}

	_, err := f.tracker.ReportGeometry(viewport, []TargetRect{{ID: id, Rect: Rect{Y: 760, Width: 100, Height: 100}}})
	require.NoError(t, err)
	_, err = f.tracker.ReportGeometry(viewport, []TargetRect{{ID: id, Rect: Rect{Y: 700, Width: 100, Height: 100}}})
	require.NoError(t, err)

	result := f.waitResult(t)
	assert.Equal(t, "single", result.Event.PanelName)
	assert.Len(t, f.dispatcher.sent(), 1)
}

func TestTrackerUnknownNodeIsAWarning(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)

	warnings, err := f.tracker.ReportIntersections([]IntersectionReport{{ID: 9999, IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)
	if assert.Len(t, warnings, 1) {
		assert.Equal(t, errortypes.UnknownNodeWarningCode, errortypes.ReadCode(warnings[0]))
	}
}

func TestTrackerFailedSendIsNotRetried(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)
	f.dispatcher.err = &errortypes.BadServerResponse{Message: "boom", StatusCode: 500}
	id := f.idOf(t, "lobby")

	_, err := f.tracker.ReportIntersections([]IntersectionReport{{ID: id, IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)
	result := f.waitResult(t)
	assert.Error(t, result.Err)

	_, err = f.tracker.ReportIntersections([]IntersectionReport{{ID: id, IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)
	f.tracker.Shutdown()
	assert.Len(t, f.dispatcher.sent(), 1)
}

func TestTrackerPoolSaturationLosesImpression(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)
	f.pool.reject = true

	_, err := f.tracker.ReportIntersections([]IntersectionReport{{ID: f.idOf(t, "lobby"), IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)

	result := f.waitResult(t)
	var saturated *errortypes.PoolSaturated
	assert.True(t, errors.As(result.Err, &saturated))
	assert.Empty(t, f.dispatcher.sent())

	lobby, _ := f.status(t, "lobby")
	assert.True(t, lobby.Reported, "a lost impression is still the one impression for the instance")
}

func TestTrackerAttachesInsertedPanels(t *testing.T) {
	f := newTrackerFixture(t, `<html><body><main></main></body></html>`)
	body := f.doc.Body()

	ids, err := f.tracker.InsertHTML(body, `<div class="renovi-panel renovi-slider" data-panel-name="late">`+
		`<div class="renovi-slide"></div><div class="renovi-slide"></div></div>`)
	require.NoError(t, err)
	require.Len(t, ids, 1)

	late, ok := f.status(t, "late")
	require.True(t, ok)
	assert.Equal(t, ids[0], late.ID)
	assert.True(t, late.Observed)
	assert.True(t, late.Rotating)

	panels, err := f.tracker.Panels()
	require.NoError(t, err)
	assert.Len(t, panels, 1, "no duplicate instance for the same element")
}

func TestTrackerRemovalStopsTracking(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)
	id := f.idOf(t, "lobby")

	require.NoError(t, f.tracker.Remove(id))
	_, ok := f.status(t, "lobby")
	assert.False(t, ok)

	f.clock.Add(config.DefaultTracking().RotationPeriod())
	_, err := f.tracker.ReportIntersections([]IntersectionReport{{ID: id, IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)
	assert.Empty(t, f.dispatcher.sent())
}

func TestTrackerStoppedCalls(t *testing.T) {
	f := newTrackerFixture(t, sliderPage)
	f.tracker.Shutdown()
	f.tracker.Shutdown()

	_, err := f.tracker.Panels()
	assert.ErrorIs(t, err, ErrTrackerStopped)
	_, err = f.tracker.InsertHTML(f.doc.Body(), "<div></div>")
	assert.ErrorIs(t, err, ErrTrackerStopped)
	assert.ErrorIs(t, f.tracker.Remove(f.doc.Body()), ErrTrackerStopped)
}

func TestTrackerResultCallbackMayCallTracker(t *testing.T) {
	doc, err := dom.ParseDocument(strings.NewReader(sliderPage))
	require.NoError(t, err)

	var tracker *Tracker
	snapshots := make(chan []PanelStatus, 1)
	tracker = NewTracker(doc, &dispatcherMock{}, Options{
		Tracking: config.DefaultTracking(),
		Clock:    clock.NewMock(),
		Pool:     &goPool{},
		OnResult: func(Result) {
			panels, err := tracker.Panels()
			if err == nil {
				snapshots <- panels
			}
		},
	})
	require.NoError(t, tracker.Start(context.Background()))
	defer tracker.Shutdown()

	panels, err := tracker.Panels()
	require.NoError(t, err)
	_, err = tracker.ReportIntersections([]IntersectionReport{{ID: panels[0].ID, IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)

	select {
	case panels = <-snapshots:
		assert.True(t, panels[0].Reported)
	case <-time.After(time.Second):
		t.Fatal("result callback could not read the tracker")
	}
}

func TestTrackerRecordsMetrics(t *testing.T) {
	doc, err := dom.ParseDocument(strings.NewReader(sliderPage))
	require.NoError(t, err)

	me := &metrics.MetricsEngineMock{}
	me.On("RecordInstanceTracked", mock.Anything).Return()
	me.On("RecordInstanceRemoved", mock.Anything).Return()
	me.On("RecordVisibilityEvent").Return()
	me.On("RecordImpression", mock.Anything).Return()
	me.On("RecordImpressionTime", mock.Anything).Return()

	results := make(chan Result, 1)
	tracker := NewTracker(doc, &dispatcherMock{}, Options{
		Tracking: config.DefaultTracking(),
		Clock:    clock.NewMock(),
		Pool:     &goPool{},
		Metrics:  me,
		OnResult: func(r Result) { results <- r },
	})
	require.NoError(t, tracker.Start(context.Background()))
	defer tracker.Shutdown()

	panels, err := tracker.Panels()
	require.NoError(t, err)
	_, err = tracker.ReportIntersections([]IntersectionReport{{ID: panels[0].ID, IntersectionRatio: 1, IsIntersecting: true}})
	require.NoError(t, err)
	<-results

	me.AssertNumberOfCalls(t, "RecordInstanceTracked", 3)
	me.AssertCalled(t, "RecordInstanceTracked", metrics.InstanceSlider)
	me.AssertCalled(t, "RecordVisibilityEvent")
	me.AssertCalled(t, "RecordImpression", metrics.ImpressionOK)
}
