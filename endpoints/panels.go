package endpoints

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func NewPanelsEndpoint(tracker Tracker) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		panels, err := tracker.Panels()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, panels)
	}
}
