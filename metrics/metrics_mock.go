package metrics

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MetricsEngineMock is mock for the MetricsEngine interface
type MetricsEngineMock struct {
	mock.Mock
}

// RecordInstanceTracked mock
func (me *MetricsEngineMock) RecordInstanceTracked(kind InstanceKind) {
	me.Called(kind)
}

// RecordInstanceRemoved mock
func (me *MetricsEngineMock) RecordInstanceRemoved(kind InstanceKind) {
	me.Called(kind)
}

// RecordVisibilityEvent mock
func (me *MetricsEngineMock) RecordVisibilityEvent() {
	me.Called()
}

// RecordSlideRotation mock
func (me *MetricsEngineMock) RecordSlideRotation() {
	me.Called()
}

// RecordImpression mock
func (me *MetricsEngineMock) RecordImpression(status ImpressionStatus) {
	me.Called(status)
}

// RecordImpressionTime mock
func (me *MetricsEngineMock) RecordImpressionTime(length time.Duration) {
	me.Called(length)
}

// RecordBackendRequest mock
func (me *MetricsEngineMock) RecordBackendRequest(call BackendCall, success bool, length time.Duration) {
	me.Called(call, success, length)
}

// RecordSetup mock
func (me *MetricsEngineMock) RecordSetup(success bool) {
	me.Called(success)
}
