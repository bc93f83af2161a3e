// v1
// internal/httpapi/router.go
package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"ecocampus/analyzer/internal/metrics"
)

// NewRouter assembles the HTTP surface. Every route is wrapped with the
// per-route metrics recorder.
func NewRouter(h *Handlers, met *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()

	route := func(path string, fn http.HandlerFunc) *mux.Route {
		return r.Handle(path, met.WrapHandler(path, fn))
	}

	route("/health", h.health).Methods("GET")
	route("/status", h.status).Methods("GET")
	route("/config/reload", h.reloadConfig).Methods("POST")
	route("/analysis/run", h.runAnalysis).Methods("POST")
	route("/simulation/run", h.runSimulation).Methods("POST")
	route("/simulation/templates", h.templates).Methods("GET")
	route("/simulation/compare", h.compareScenarios).Methods("POST")
	r.Handle("/metrics", met.Handler()).Methods("GET")

	return r
}
