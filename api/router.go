package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/maxpoletaev/gridlink/api/handler"
)

// CreateRouter serves the client introspection endpoints and, if a gatherer
// is given, the metrics under /metrics.
func CreateRouter(client handler.Client, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()

	handler.NewClusterHandler(client).Register(r)
	handler.NewPingHandler(client).Register(r)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
