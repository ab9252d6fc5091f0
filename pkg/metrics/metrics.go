package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompositeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_composite_requests_total",
		Help: "Total number of composite tile renders by result",
	}, []string{"result"})

	CompositeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "heatmap_composite_latency_seconds",
		Help:    "End-to-end latency of composite tile renders in seconds",
		Buckets: prometheus.DefBuckets,
	})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_upstream_requests_total",
		Help: "Total number of upstream tile fetches by source and outcome",
	}, []string{"source", "outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "heatmap_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	PlaceholderSubstitutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "heatmap_placeholder_substitutions_total",
		Help: "Total number of failed fetches replaced by a transparent placeholder",
	}, []string{"source"})

	ComposeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "heatmap_compose_latency_seconds",
		Help:    "Time spent decoding, resizing, blending and encoding a composite",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	})
)

const (
	OutcomeOK          = "ok"
	OutcomeHTTPError   = "http_error"
	OutcomeNetwork     = "network_error"
	OutcomeEmptyBody   = "empty_body"
	OutcomeCancelled   = "cancelled"
	ResultOK           = "ok"
	ResultOverlayLost  = "overlay_not_found"
	ResultInternalFail = "internal_error"
)
