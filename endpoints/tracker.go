package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/digital-lumenspei/renovi-web-sdk/logger"
	"github.com/digital-lumenspei/renovi-web-sdk/viewability"
)

// Tracker is the part of viewability.Tracker exposed to the host.
type Tracker interface {
	InsertHTML(parent dom.NodeID, fragment string) ([]dom.NodeID, error)
	Remove(id dom.NodeID) error
	ReportIntersections(reports []viewability.IntersectionReport) ([]error, error)
	ReportGeometry(viewport viewability.Rect, targets []viewability.TargetRect) ([]error, error)
	Panels() ([]viewability.PanelStatus, error)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Errorf("failed to write response: %v", err)
	}
}

// writeError maps tracker and input errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, viewability.ErrTrackerStopped):
		status = http.StatusServiceUnavailable
	case errortypes.ReadCode(err) == errortypes.BadInputErrorCode:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: errortypes.ReadCode(err)})
}

// warningMessages returns the messages of the warnings the host should see. Anything
// else that came back alongside them is only logged.
func warningMessages(errs []error) []string {
	for _, err := range errortypes.FatalOnly(errs) {
		logger.Errorf("unexpected error while reporting intersections: %v", err)
	}
	warnings := errortypes.WarningOnly(errs)
	if len(warnings) == 0 {
		return nil
	}
	messages := make([]string, 0, len(warnings))
	for _, w := range warnings {
		messages = append(messages, w.Error())
	}
	return messages
}

func decodeBody(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return &errortypes.BadInput{Message: "invalid request body: " + err.Error()}
	}
	return nil
}
