package metrics

import (
	"fmt"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Metrics is the go-metrics backed implementation of the MetricsEngine interface.
type Metrics struct {
	MetricsRegistry metrics.Registry

	TrackedMeters      map[InstanceKind]metrics.Meter
	RemovedMeters      map[InstanceKind]metrics.Meter
	VisibilityMeter    metrics.Meter
	RotationMeter      metrics.Meter
	ImpressionMeters   map[ImpressionStatus]metrics.Meter
	ImpressionTimer    metrics.Timer
	BackendTimers      map[BackendCall]metrics.Timer
	BackendErrorMeters map[BackendCall]metrics.Meter
	SetupSuccessMeter  metrics.Meter
	SetupErrorMeter    metrics.Meter
}

// NewBlankMetrics creates a new Metrics object with all blank metrics objects. This is useful
// for tests which must not write anywhere.
func NewBlankMetrics() *Metrics {
	m := &Metrics{
		MetricsRegistry:    metrics.NewRegistry(),
		TrackedMeters:      make(map[InstanceKind]metrics.Meter),
		RemovedMeters:      make(map[InstanceKind]metrics.Meter),
		VisibilityMeter:    blankMeter,
		RotationMeter:      blankMeter,
		ImpressionMeters:   make(map[ImpressionStatus]metrics.Meter),
		ImpressionTimer:    &metrics.NilTimer{},
		BackendTimers:      make(map[BackendCall]metrics.Timer),
		BackendErrorMeters: make(map[BackendCall]metrics.Meter),
		SetupSuccessMeter:  blankMeter,
		SetupErrorMeter:    blankMeter,
	}
	for _, kind := range InstanceKinds() {
		m.TrackedMeters[kind] = blankMeter
		m.RemovedMeters[kind] = blankMeter
	}
	for _, status := range ImpressionStatuses() {
		m.ImpressionMeters[status] = blankMeter
	}
	for _, call := range BackendCalls() {
		m.BackendTimers[call] = &metrics.NilTimer{}
		m.BackendErrorMeters[call] = blankMeter
	}
	return m
}

var blankMeter = &metrics.NilMeter{}

// NewMetrics creates a new Metrics object with needed metrics defined and registered in the
// given registry.
func NewMetrics(registry metrics.Registry) *Metrics {
	m := NewBlankMetrics()
	m.MetricsRegistry = registry

	for _, kind := range InstanceKinds() {
		m.TrackedMeters[kind] = metrics.GetOrRegisterMeter(fmt.Sprintf("instances.%s.tracked", kind), registry)
		m.RemovedMeters[kind] = metrics.GetOrRegisterMeter(fmt.Sprintf("instances.%s.removed", kind), registry)
	}
	m.VisibilityMeter = metrics.GetOrRegisterMeter("visibility_events", registry)
	m.RotationMeter = metrics.GetOrRegisterMeter("slide_rotations", registry)
	for _, status := range ImpressionStatuses() {
		m.ImpressionMeters[status] = metrics.GetOrRegisterMeter(fmt.Sprintf("impressions.%s", status), registry)
	}
	m.ImpressionTimer = metrics.GetOrRegisterTimer("impressions.send_time", registry)
	for _, call := range BackendCalls() {
		m.BackendTimers[call] = metrics.GetOrRegisterTimer(fmt.Sprintf("backend.%s.request_time", call), registry)
		m.BackendErrorMeters[call] = metrics.GetOrRegisterMeter(fmt.Sprintf("backend.%s.errors", call), registry)
	}
	m.SetupSuccessMeter = metrics.GetOrRegisterMeter("setup.ok", registry)
	m.SetupErrorMeter = metrics.GetOrRegisterMeter("setup.failed", registry)
	return m
}

func (me *Metrics) RecordInstanceTracked(kind InstanceKind) {
	if meter, ok := me.TrackedMeters[kind]; ok {
		meter.Mark(1)
	}
}

func (me *Metrics) RecordInstanceRemoved(kind InstanceKind) {
	if meter, ok := me.RemovedMeters[kind]; ok {
		meter.Mark(1)
	}
}

func (me *Metrics) RecordVisibilityEvent() {
	me.VisibilityMeter.Mark(1)
}

func (me *Metrics) RecordSlideRotation() {
	me.RotationMeter.Mark(1)
}

func (me *Metrics) RecordImpression(status ImpressionStatus) {
	if meter, ok := me.ImpressionMeters[status]; ok {
		meter.Mark(1)
	}
}

func (me *Metrics) RecordImpressionTime(length time.Duration) {
	me.ImpressionTimer.Update(length)
}

func (me *Metrics) RecordBackendRequest(call BackendCall, success bool, length time.Duration) {
	if timer, ok := me.BackendTimers[call]; ok {
		timer.Update(length)
	}
	if !success {
		if meter, ok := me.BackendErrorMeters[call]; ok {
			meter.Mark(1)
		}
	}
}

func (me *Metrics) RecordSetup(success bool) {
	if success {
		me.SetupSuccessMeter.Mark(1)
	} else {
		me.SetupErrorMeter.Mark(1)
	}
}
