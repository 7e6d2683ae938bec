package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matheuscscp/declarative-oauth2/internal/config"
	"github.com/matheuscscp/declarative-oauth2/internal/provider"
	"github.com/matheuscscp/declarative-oauth2/internal/store"
)

func New(conf *config.Config, providers map[string]provider.Interface) *http.Server {
	st := store.NewMemoryStore()
	metrics := newFlowMetrics(prometheus.DefaultRegisterer)
	api := newAPI(providers, st, metrics)
	return newServer(conf, api, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}
