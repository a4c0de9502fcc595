package endpoints

import (
	"fmt"
	"net/http"

	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/viewability"
	"github.com/julienschmidt/httprouter"
)

type intersectionEntry struct {
	ID    dom.NodeID `json:"id"`
	Ratio float64    `json:"ratio"`
	// IsIntersecting defaults to ratio > 0.
	IsIntersecting *bool `json:"isIntersecting"`
}

// intersectionsRequest carries either precomputed entries or raw geometry.
type intersectionsRequest struct {
	Entries  []intersectionEntry      `json:"entries"`
	Viewport *viewability.Rect        `json:"viewport"`
	Targets  []viewability.TargetRect `json:"targets"`
}

type intersectionsResponse struct {
	Warnings []string `json:"warnings,omitempty"`
}

// NewIntersectionsEndpoint feeds visibility samples from the host into the tracker.
func NewIntersectionsEndpoint(tracker Tracker) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req intersectionsRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}

		var (
			warnings []error
			err      error
		)
		switch {
		case req.Viewport != nil && len(req.Entries) > 0:
			err = &errortypes.BadInput{Message: "send either entries or viewport with targets, not both"}
		case req.Viewport != nil:
			warnings, err = tracker.ReportGeometry(*req.Viewport, req.Targets)
		default:
			var reports []viewability.IntersectionReport
			if reports, err = toReports(req.Entries); err == nil {
				warnings, err = tracker.ReportIntersections(reports)
			}
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, intersectionsResponse{Warnings: warningMessages(warnings)})
	}
}

func toReports(entries []intersectionEntry) ([]viewability.IntersectionReport, error) {
	reports := make([]viewability.IntersectionReport, 0, len(entries))
	for _, e := range entries {
		if e.Ratio < 0 || e.Ratio > 1 {
			return nil, &errortypes.BadInput{Message: fmt.Sprintf("ratio of node %d must be within [0, 1]. Got %v", e.ID, e.Ratio)}
		}
		intersecting := e.Ratio > 0
		if e.IsIntersecting != nil {
			intersecting = *e.IsIntersecting
		}
		reports = append(reports, viewability.IntersectionReport{
			ID:                e.ID,
			IntersectionRatio: e.Ratio,
			IsIntersecting:    intersecting,
		})
	}
	return reports, nil
}
