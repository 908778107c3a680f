package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storageFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopstate_storage_failures_total",
			Help: "Backend failures absorbed by the persistent key-value adapter.",
		},
		[]string{"op"},
	)

	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shopstate_storage_breaker_state",
			Help: "Current state of the storage circuit breaker (0=closed, 1=half-open, 2=open).",
		},
		[]string{"name"},
	)
)
