package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cars", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cars",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	IngestedRowsTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "cars", Name: "ingested_rows_total", Help: "CSV rows merged into the store"})
	UploadFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "cars", Name: "upload_failures_total", Help: "CSV uploads that stopped with an error"},
		[]string{"reason"},
	)

	StoreSize = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "cars", Name: "store_size", Help: "Number of cars currently stored"})
)
