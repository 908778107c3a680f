package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopstate_events_published_total",
			Help: "Change events handed to the Kafka writer, by topic and outcome.",
		},
		[]string{"topic", "result"},
	)

	eventsPublishSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopstate_events_publish_seconds",
			Help:    "Time spent in WriteMessages per change event.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"topic"},
	)
)
