package viewability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alitto/pond"
	"github.com/benbjohnson/clock"
	"github.com/digital-lumenspei/renovi-web-sdk/config"
	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/logger"
	"github.com/digital-lumenspei/renovi-web-sdk/metrics"
	metricsConf "github.com/digital-lumenspei/renovi-web-sdk/metrics/config"
	"github.com/digital-lumenspei/renovi-web-sdk/util/task"
	"golang.org/x/net/html"
)

// ErrTrackerStopped is returned by every entry point once Shutdown has been called.
var ErrTrackerStopped = errors.New("tracker is stopped")

// Dispatcher sends one impression for a visible panel.
type Dispatcher interface {
	Dispatch(ctx context.Context, event VisibleEvent) error
}

// WorkerPool runs impression sends off the tracker loop.
type WorkerPool interface {
	TrySubmit(task func()) bool
	StopAndWait()
}

// Result describes the outcome of one impression send.
type Result struct {
	Event    VisibleEvent
	Err      error
	Duration time.Duration
}

// IntersectionReport is a host supplied visibility sample for a document node.
type IntersectionReport struct {
	ID                dom.NodeID `json:"id"`
	IntersectionRatio float64    `json:"ratio"`
	IsIntersecting    bool       `json:"isIntersecting"`
}

// TargetRect is the bounding box of a document node, in viewport coordinates.
type TargetRect struct {
	ID   dom.NodeID `json:"id"`
	Rect Rect       `json:"rect"`
}

// PanelStatus is a point-in-time copy of a tracked instance.
type PanelStatus struct {
	ID          dom.NodeID `json:"id"`
	Name        string     `json:"panelName,omitempty"`
	ViewURL     string     `json:"viewUrl,omitempty"`
	Slides      []Slide    `json:"slides"`
	ActiveIndex int        `json:"activeIndex"`
	Panel       bool       `json:"panel"`
	Observed    bool       `json:"observed"`
	Reported    bool       `json:"reported"`
	Rotating    bool       `json:"rotating"`
}

type Options struct {
	Tracking config.Tracking
	Dispatch config.Dispatch
	// Clock drives slide rotation. Defaults to the wall clock.
	Clock   clock.Clock
	Metrics metrics.MetricsEngine
	// Pool overrides the pool built from Dispatch.
	Pool WorkerPool
	// OnResult, when set, is called on its own goroutine after every impression send, so
	// it may call back into the Tracker. Results of different panels arrive in any order.
	OnResult func(Result)
}

// Tracker owns the document and all viewability state. Every read and write of that
// state happens on a single loop goroutine; the exported methods marshal onto it.
type Tracker struct {
	cfg        config.Tracking
	doc        *dom.Document
	registry   *Registry
	observer   *VisibilityObserver
	watcher    *Watcher
	dispatcher Dispatcher
	clock      clock.Clock
	pool       WorkerPool
	metrics    metrics.MetricsEngine
	onResult   func(Result)

	ctx       context.Context
	events    chan func()
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewTracker(doc *dom.Document, dispatcher Dispatcher, opts Options) *Tracker {
	t := &Tracker{
		cfg:        opts.Tracking,
		doc:        doc,
		registry:   NewRegistry(),
		dispatcher: dispatcher,
		clock:      opts.Clock,
		pool:       opts.Pool,
		metrics:    opts.Metrics,
		onResult:   opts.OnResult,
		ctx:        context.Background(),
		events:     make(chan func()),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	if t.clock == nil {
		t.clock = clock.New()
	}
	if t.metrics == nil {
		t.metrics = &metricsConf.NilMetricsEngine{}
	}
	if t.pool == nil {
		t.pool = pond.New(opts.Dispatch.MaxWorkers, opts.Dispatch.MaxCapacity)
	}
	t.observer = NewVisibilityObserver(t.cfg.Threshold, t.onVisible)
	t.watcher = newWatcher(t.cfg.Markers, t)
	go t.run()
	return t
}

// Start registers the mutation watcher and wires every panel and slider already in the
// document. ctx is handed to every impression send. Calling Start again is a no-op.
func (t *Tracker) Start(ctx context.Context) error {
	var err error
	t.startOnce.Do(func() {
		err = t.do(func() {
			if ctx != nil {
				t.ctx = ctx
			}
			t.doc.Observe(t.watcher.OnMutations)
			t.watcher.scan(t.doc.Root())
			logger.Infof("viewability tracking started with %d tracked elements", t.registry.Len())
		})
	})
	return err
}

// Shutdown stops every rotator, waits for in-flight impression sends and stops the loop.
func (t *Tracker) Shutdown() {
	t.stopOnce.Do(func() {
		t.do(func() {
			for _, inst := range t.registry.All() {
				t.stopRotator(inst)
			}
		})
		t.pool.StopAndWait()
		close(t.done)
		<-t.stopped
	})
}

// InsertHTML parses fragment and appends it below parent. The inserted top-level
// element ids are returned.
func (t *Tracker) InsertHTML(parent dom.NodeID, fragment string) ([]dom.NodeID, error) {
	var ids []dom.NodeID
	var err error
	if stopErr := t.do(func() {
		ids, err = t.doc.AppendHTML(parent, fragment)
	}); stopErr != nil {
		return nil, stopErr
	}
	return ids, err
}

func (t *Tracker) Remove(id dom.NodeID) error {
	var err error
	if stopErr := t.do(func() {
		err = t.doc.Remove(id)
	}); stopErr != nil {
		return stopErr
	}
	return err
}

// ReportIntersections feeds host computed entries to the observer. Unknown ids are
// skipped and returned as warnings.
func (t *Tracker) ReportIntersections(reports []IntersectionReport) ([]error, error) {
	var warnings []error
	err := t.do(func() {
		entries := make([]IntersectionEntry, 0, len(reports))
		for _, r := range reports {
			n, ok := t.doc.Node(r.ID)
			if !ok {
				warnings = append(warnings, unknownNode(r.ID))
				continue
			}
			entries = append(entries, IntersectionEntry{
				Target:            n,
				IntersectionRatio: r.IntersectionRatio,
				IsIntersecting:    r.IsIntersecting,
			})
		}
		t.observer.Handle(entries)
	})
	return warnings, err
}

// ReportGeometry computes entries from bounding boxes using the configured root margin.
func (t *Tracker) ReportGeometry(viewport Rect, targets []TargetRect) ([]error, error) {
	var warnings []error
	err := t.do(func() {
		entries := make([]IntersectionEntry, 0, len(targets))
		for _, target := range targets {
			n, ok := t.doc.Node(target.ID)
			if !ok {
				warnings = append(warnings, unknownNode(target.ID))
				continue
			}
			entries = append(entries, ComputeEntry(n, target.Rect, viewport, t.cfg.RootMarginPx))
		}
		t.observer.Handle(entries)
	})
	return warnings, err
}

// Panels returns a snapshot of every tracked instance ordered by node id.
func (t *Tracker) Panels() ([]PanelStatus, error) {
	var statuses []PanelStatus
	err := t.do(func() {
		statuses = make([]PanelStatus, 0, t.registry.Len())
		for _, inst := range t.registry.All() {
			id, _ := t.doc.ID(inst.node)
			statuses = append(statuses, PanelStatus{
				ID:          id,
				Name:        inst.Name,
				ViewURL:     inst.currentViewURL(),
				Slides:      append([]Slide(nil), inst.Slides...),
				ActiveIndex: inst.activeSlide(),
				Panel:       inst.panel,
				Observed:    inst.Observed,
				Reported:    inst.Reported,
				Rotating:    inst.Rotating(),
			})
		}
	})
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].ID < statuses[j].ID
	})
	return statuses, err
}

// Render serializes the subtree rooted at id.
func (t *Tracker) Render(id dom.NodeID) (string, error) {
	var out string
	var err error
	if stopErr := t.do(func() {
		out, err = t.doc.Render(id)
	}); stopErr != nil {
		return "", stopErr
	}
	return out, err
}

func unknownNode(id dom.NodeID) error {
	return &errortypes.Warning{
		Message:     fmt.Sprintf("node %d is not in the document", id),
		WarningCode: errortypes.UnknownNodeWarningCode,
	}
}

func (t *Tracker) run() {
	defer close(t.stopped)
	for {
		select {
		case fn := <-t.events:
			fn()
		case <-t.done:
			return
		}
	}
}

// post queues fn on the loop. It returns false once the tracker is stopped.
func (t *Tracker) post(fn func()) bool {
	select {
	case t.events <- fn:
		return true
	case <-t.done:
		return false
	}
}

// do runs fn on the loop and waits for it to finish.
func (t *Tracker) do(fn func()) error {
	finished := make(chan struct{})
	if !t.post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrTrackerStopped
	}
	select {
	case <-finished:
		return nil
	case <-t.done:
		return ErrTrackerStopped
	}
}

func (t *Tracker) track(n *html.Node) *PanelInstance {
	inst, _ := t.registry.Track(n, func() *PanelInstance {
		return newPanelInstance(n, t.cfg.Markers)
	})
	return inst
}

func (t *Tracker) attachObserver(n *html.Node) {
	inst := t.track(n)
	if inst.panel {
		return
	}
	inst.panel = true
	if t.observer.Observe(inst) {
		t.metrics.RecordInstanceTracked(metrics.InstancePanel)
		logger.Debugf("observing panel %q", inst.Name)
	}
}

func (t *Tracker) startRotator(n *html.Node) {
	inst := t.track(n)
	if inst.rotator != nil {
		return
	}
	if len(inst.slideNodes) <= 1 {
		if len(inst.slideNodes) == 0 {
			logger.Warnf("slider %q has no slides", inst.Name)
		}
		return
	}

	dom.AddClass(inst.slideNodes[inst.ActiveIndex], t.cfg.Markers.ActiveClass)
	inst.rotator = task.NewTickerTaskWithOptions(task.Options{
		Interval:       t.cfg.RotationPeriod(),
		SkipInitialRun: true,
		Clock:          t.clock,
		Runner: task.RunnerFunc(func() error {
			if !t.post(func() { t.rotate(inst) }) {
				return ErrTrackerStopped
			}
			return nil
		}),
	})
	inst.rotator.Start()
	t.metrics.RecordInstanceTracked(metrics.InstanceSlider)
	logger.Debugf("rotating %d slides of %q", len(inst.slideNodes), inst.Name)
}

func (t *Tracker) rotate(inst *PanelInstance) {
	// ticks already queued when the rotator was stopped are dropped
	if inst.rotator == nil {
		return
	}
	inst.advance(t.cfg.Markers.ActiveClass)
	t.metrics.RecordSlideRotation()
}

func (t *Tracker) stopRotator(inst *PanelInstance) {
	if inst.rotator == nil {
		return
	}
	inst.rotator.Stop()
	inst.rotator = nil
	t.metrics.RecordInstanceRemoved(metrics.InstanceSlider)
}

func (t *Tracker) detach(root *html.Node) {
	for _, inst := range t.registry.Within(root) {
		if t.observer.Observing(inst.node) {
			t.observer.Unobserve(inst.node)
			t.metrics.RecordInstanceRemoved(metrics.InstancePanel)
		}
		t.stopRotator(inst)
		t.registry.Untrack(inst.node)
		logger.Debugf("stopped tracking %q", inst.Name)
	}
}

func (t *Tracker) onVisible(inst *PanelInstance, event VisibleEvent) {
	t.metrics.RecordVisibilityEvent()
	logger.Infof("panel %q is visible", event.PanelName)

	ctx := t.ctx
	submitted := t.pool.TrySubmit(func() {
		start := time.Now()
		err := t.dispatcher.Dispatch(ctx, event)
		elapsed := time.Since(start)
		t.post(func() {
			t.finishDispatch(Result{Event: event, Err: err, Duration: elapsed})
		})
	})
	if !submitted {
		t.finishDispatch(Result{
			Event: event,
			Err:   &errortypes.PoolSaturated{Message: fmt.Sprintf("impression for panel %q dropped: dispatch pool is full", event.PanelName)},
		})
	}
}

func (t *Tracker) finishDispatch(result Result) {
	switch {
	case result.Err == nil:
		t.metrics.RecordImpression(metrics.ImpressionOK)
		t.metrics.RecordImpressionTime(result.Duration)
		logger.Debugf("impression sent for panel %q", result.Event.PanelName)
	case errortypes.ReadCode(result.Err) == errortypes.PoolSaturatedErrorCode:
		t.metrics.RecordImpression(metrics.ImpressionRejected)
		logger.Errorf("%v", result.Err)
	default:
		t.metrics.RecordImpression(metrics.ImpressionFailed)
		t.metrics.RecordImpressionTime(result.Duration)
		logger.Errorf("impression for panel %q failed: %v", result.Event.PanelName, result.Err)
	}
	if t.onResult != nil {
		go t.onResult(result)
	}
}
