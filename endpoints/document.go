package endpoints

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/errortypes"
	"github.com/julienschmidt/httprouter"
)

type insertNodesRequest struct {
	// Parent defaults to the document body.
	Parent *dom.NodeID `json:"parent"`
	HTML   string      `json:"html"`
}

type insertNodesResponse struct {
	IDs []dom.NodeID `json:"ids"`
}

// NewInsertNodesEndpoint parses an HTML fragment and appends it to the tracked document.
// Panels and sliders inside it are wired by the tracker's mutation watcher.
func NewInsertNodesEndpoint(tracker Tracker, body dom.NodeID) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req insertNodesRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, err)
			return
		}
		if req.HTML == "" {
			writeError(w, &errortypes.BadInput{Message: "html is required"})
			return
		}

		parent := body
		if req.Parent != nil {
			parent = *req.Parent
		}
		ids, err := tracker.InsertHTML(parent, req.HTML)
		if err != nil {
			writeError(w, err)
			return
		}
		if ids == nil {
			ids = []dom.NodeID{}
		}
		writeJSON(w, http.StatusCreated, insertNodesResponse{IDs: ids})
	}
}

// NewRemoveNodeEndpoint detaches a node and everything below it.
func NewRemoveNodeEndpoint(tracker Tracker) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
		if err != nil {
			writeError(w, &errortypes.BadInput{Message: fmt.Sprintf("node id %q is not a number", ps.ByName("id"))})
			return
		}
		if err := tracker.Remove(dom.NodeID(id)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
