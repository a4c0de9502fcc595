package metrics

import (
	"time"
)

// InstanceKind labels a tracked document element.
type InstanceKind string

const (
	InstancePanel  InstanceKind = "panel"
	InstanceSlider InstanceKind = "slider"
)

func InstanceKinds() []InstanceKind {
	return []InstanceKind{
		InstancePanel,
		InstanceSlider,
	}
}

// ImpressionStatus is the outcome of one impression dispatch.
type ImpressionStatus string

const (
	ImpressionOK ImpressionStatus = "ok"
	// ImpressionFailed covers transport errors and non-2xx responses.
	ImpressionFailed ImpressionStatus = "failed"
	// ImpressionRejected means the dispatch pool refused the send.
	ImpressionRejected ImpressionStatus = "rejected"
)

func ImpressionStatuses() []ImpressionStatus {
	return []ImpressionStatus{
		ImpressionOK,
		ImpressionFailed,
		ImpressionRejected,
	}
}

// BackendCall labels an outbound request made by the SDK.
type BackendCall string

const (
	BackendLogin      BackendCall = "login"
	BackendCampaigns  BackendCall = "campaigns"
	BackendImpression BackendCall = "impression"
	BackendIP         BackendCall = "ip"
	BackendLocation   BackendCall = "location"
)

func BackendCalls() []BackendCall {
	return []BackendCall{
		BackendLogin,
		BackendCampaigns,
		BackendImpression,
		BackendIP,
		BackendLocation,
	}
}

// MetricsEngine is a generic interface to record SDK metrics into the desired backend.
// The three families tracked are viewability state changes, impression dispatches
// and outbound backend requests.
type MetricsEngine interface {
	RecordInstanceTracked(kind InstanceKind)
	RecordInstanceRemoved(kind InstanceKind)
	RecordVisibilityEvent()
	RecordSlideRotation()
	RecordImpression(status ImpressionStatus)
	RecordImpressionTime(length time.Duration)
	RecordBackendRequest(call BackendCall, success bool, length time.Duration)
	RecordSetup(success bool)
}
