package config

import (
	"fmt"
	"time"
)

// Tracking configures the viewability core.
type Tracking struct {
	Threshold        float64 `mapstructure:"threshold"`
	RootMarginPx     float64 `mapstructure:"root_margin_px"`
	RotationPeriodMS int     `mapstructure:"rotation_period_ms"`
	Dwell            int     `mapstructure:"dwell"`
	Markers          Markers `mapstructure:",squash"`
}

// Markers are the class names that identify tracked elements in the document.
type Markers struct {
	PanelClass  string `mapstructure:"panel_class"`
	SliderClass string `mapstructure:"slider_class"`
	SlideClass  string `mapstructure:"slide_class"`
	ActiveClass string `mapstructure:"active_class"`
}

// DefaultMarkers returns the class names used when none are configured.
func DefaultMarkers() Markers {
	return Markers{
		PanelClass:  "renovi-panel",
		SliderClass: "renovi-slider",
		SlideClass:  "renovi-slide",
		ActiveClass: "active",
	}
}

// DefaultTracking returns the reference tracking behavior: 50% threshold, no root margin,
// 3s rotation and a constant dwell of 60.
func DefaultTracking() Tracking {
	return Tracking{
		Threshold:        0.5,
		RotationPeriodMS: 3000,
		Dwell:            60,
		Markers:          DefaultMarkers(),
	}
}

func (t Tracking) RotationPeriod() time.Duration {
	return time.Duration(t.RotationPeriodMS) * time.Millisecond
}

func (t Tracking) validate(errs []error) []error {
	if t.Threshold <= 0 || t.Threshold > 1 {
		errs = append(errs, fmt.Errorf("tracking.threshold must be in (0, 1]. Got %v", t.Threshold))
	}
	if t.RootMarginPx < 0 {
		errs = append(errs, fmt.Errorf("tracking.root_margin_px must be non-negative. Got %v", t.RootMarginPx))
	}
	if t.RotationPeriodMS <= 0 {
		errs = append(errs, fmt.Errorf("tracking.rotation_period_ms must be positive. Got %d", t.RotationPeriodMS))
	}
	if t.Dwell < 0 {
		errs = append(errs, fmt.Errorf("tracking.dwell must be non-negative. Got %d", t.Dwell))
	}
	m := t.Markers
	if m.PanelClass == "" || m.SliderClass == "" || m.SlideClass == "" || m.ActiveClass == "" {
		errs = append(errs, fmt.Errorf("tracking marker classes must not be empty"))
	}
	if m.PanelClass == m.SlideClass || m.SliderClass == m.SlideClass {
		errs = append(errs, fmt.Errorf("tracking.slide_class must differ from the panel and slider classes"))
	}
	return errs
}
