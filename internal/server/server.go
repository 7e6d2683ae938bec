package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/matheuscscp/declarative-oauth2/internal/config"
	"github.com/matheuscscp/declarative-oauth2/internal/logging"
)

func newServer(conf *config.Config, api http.Handler,
	promRegisterer prometheus.Registerer, promGatherer prometheus.Gatherer) *http.Server {

	promHandler := promhttp.HandlerFor(promGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	requestDurationSecs := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
	}, []string{"host", "method", "path", "status"})
	promRegisterer.MustRegister(requestDurationSecs)

	return &http.Server{
		Addr:              conf.Server.Addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.Now()
			sr := &statusRecorder{ResponseWriter: w}
			defer func() {
				elapsed := time.Since(t)
				status := fmt.Sprintf("%d", sr.getStatusCode())
				requestDurationSecs.
					WithLabelValues(r.Host, r.Method, r.URL.Path, status).
					Observe(elapsed.Seconds())
				logging.FromRequest(r).WithFields(logrus.Fields{
					"status":   sr.getStatusCode(),
					"bytes":    sr.bytesWritten(),
					"duration": elapsed.String(),
				}).Debug("request served")
			}()

			w = sr
			r = logging.ForRequest(r, r.URL.Path)

			switch r.URL.Path {
			case "/readyz", "/healthz":
				w.WriteHeader(http.StatusOK)
			case "/metrics":
				promHandler.ServeHTTP(w, r)
			default:
				if !conf.Server.AcceptsHost(r.Host) {
					logging.FromRequest(r).Warn("host not allowed")
					http.Error(w, "Host not allowed", http.StatusMisdirectedRequest)
					return
				}
				api.ServeHTTP(w, r)
			}
		}),
	}
}
