package impression

import (
	"context"

	"github.com/digital-lumenspei/renovi-web-sdk/viewability"
)

// Report is the body of one programmatic impression.
type Report struct {
	PanelName     string `json:"panelName"`
	DeviceID      string `json:"deviceId"`
	SessionID     string `json:"sessionId"`
	Dwell         int    `json:"dwell"`
	URL           string `json:"url"`
	GameID        string `json:"gameId"`
	City          string `json:"city"`
	Country       string `json:"country"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// Sender delivers a report to the backend. Implementations make exactly one attempt.
type Sender interface {
	CreateImpression(ctx context.Context, report Report) error
}

// Dispatcher turns visibility events into reports. Everything but the panel name and url
// comes from a template built once per session.
type Dispatcher struct {
	sender   Sender
	template Report
}

func NewDispatcher(sender Sender, template Report) *Dispatcher {
	return &Dispatcher{
		sender:   sender,
		template: template,
	}
}

// Build returns the report that Dispatch would send for event.
func (d *Dispatcher) Build(event viewability.VisibleEvent) Report {
	report := d.template
	report.PanelName = event.PanelName
	report.URL = event.ViewURL
	return report
}

// Dispatch sends a single report for event. Errors are returned unchanged; there is no retry.
func (d *Dispatcher) Dispatch(ctx context.Context, event viewability.VisibleEvent) error {
	return d.sender.CreateImpression(ctx, d.Build(event))
}
