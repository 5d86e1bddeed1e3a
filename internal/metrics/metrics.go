package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fireaq_api_calls_total",
			Help: "Total upstream API calls by source",
		},
		[]string{"source", "endpoint", "status"},
	)

	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fireaq_api_latency_seconds",
			Help:    "Upstream API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source", "endpoint"},
	)

	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fireaq_readings_ingested_total",
			Help: "Total PM2.5 readings successfully ingested",
		},
		[]string{"source"},
	)

	HotspotsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fireaq_hotspots_ingested_total",
			Help: "Total fire detections successfully ingested",
		},
		[]string{"product"},
	)
)
