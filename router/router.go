package router

import (
	"net/http"

	"github.com/digital-lumenspei/renovi-web-sdk/dom"
	"github.com/digital-lumenspei/renovi-web-sdk/endpoints"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// Router is the host bridge: the page embedding the SDK pushes document changes and
// visibility samples through it and reads back the tracked panels.
type Router struct {
	*httprouter.Router
}

type Options struct {
	Tracker endpoints.Tracker
	// Body is the node fragments are appended to when no parent is given.
	Body dom.NodeID

	StatusResponse string
	Version        string
	Revision       string
}

func New(opts Options) *Router {
	r := &Router{
		Router: httprouter.New(),
	}

	r.POST("/document/nodes", endpoints.NewInsertNodesEndpoint(opts.Tracker, opts.Body))
	r.DELETE("/document/nodes/:id", endpoints.NewRemoveNodeEndpoint(opts.Tracker))
	r.POST("/intersections", endpoints.NewIntersectionsEndpoint(opts.Tracker))
	r.GET("/panels", NoCache(endpoints.NewPanelsEndpoint(opts.Tracker)))
	r.GET("/status", endpoints.NewStatusEndpoint(opts.StatusResponse))
	r.HandlerFunc(http.MethodGet, "/version", endpoints.NewVersionEndpoint(opts.Version, opts.Revision))

	return r
}

// NoCache marks the response of handle as never cacheable.
func NoCache(handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Add("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Add("Pragma", "no-cache")
		w.Header().Add("Expires", "0")
		handle(w, r, ps)
	}
}

// SupportCORS lets any origin reach the bridge. The page hosting the SDK is usually
// served from a different origin than the bridge itself.
func SupportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: true,
		AllowOriginFunc: func(string) bool {
			return true
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept"}})
	return c.Handler(handler)
}
