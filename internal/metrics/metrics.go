// Package metrics exposes Prometheus collectors for the marker lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MarkersCreated counts markers accepted by the create operation.
	MarkersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapconnect_markers_created_total",
		Help: "Total number of markers created.",
	})

	// MarkersExpired counts active markers transitioned to inactive by sweeps.
	MarkersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapconnect_markers_expired_total",
		Help: "Total number of markers expired by the sweep.",
	})

	// StatusTransitions counts explicit owner/admin status changes by target status.
	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mapconnect_marker_status_transitions_total",
		Help: "Total number of explicit marker status transitions.",
	}, []string{"target"})

	// QuotaRejections counts creates refused because the owner was at the active quota.
	QuotaRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mapconnect_marker_quota_rejections_total",
		Help: "Total number of marker creates rejected by the active-marker quota.",
	})
)

// Handler returns the HTTP handler serving the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
