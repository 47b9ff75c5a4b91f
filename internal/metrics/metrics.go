// Package metrics defines the Prometheus collectors for the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TokenRefreshes counts refresh attempts by outcome ("ok", "failed").
	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snaptab_token_refreshes_total",
		Help: "Access token refresh attempts by outcome.",
	}, []string{"outcome"})

	// SplitPreviews counts locally computed split previews by outcome
	// ("ok", "invalid").
	SplitPreviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snaptab_split_previews_total",
		Help: "Locally computed receipt split previews by outcome.",
	}, []string{"outcome"})

	// UpstreamErrors counts failed backend calls by endpoint.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snaptab_upstream_errors_total",
		Help: "Backend API calls that failed, by endpoint.",
	}, []string{"endpoint"})
)

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
