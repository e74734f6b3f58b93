package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"media-ingest/internal/logging"
)

const (
	metricsMaxInFlight = 4
	metricsTimeout     = 10 * time.Second
)

// scrapeLogger routes promhttp errors to the application log.
type scrapeLogger struct{}

func (scrapeLogger) Println(v ...interface{}) {
	logging.Error("Metrics scrape: %s", fmt.Sprint(v...))
}

// MetricsHandler serves the default registry. OpenMetrics is negotiated when
// the scraper asks for it; a collector error is logged and the remaining
// metrics are still served.
func (h *Handlers) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:            scrapeLogger{},
		ErrorHandling:       promhttp.ContinueOnError,
		EnableOpenMetrics:   true,
		MaxRequestsInFlight: metricsMaxInFlight,
		Timeout:             metricsTimeout,
	})
}
