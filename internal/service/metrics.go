package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "shopstate_active_devices",
		Help: "Devices whose cart and wishlist are currently held in memory.",
	})

	devicesEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopstate_devices_evicted_total",
		Help: "Idle devices dropped from memory.",
	})

	identitySwitchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopstate_identity_switches_total",
			Help: "Sign-ins and sign-outs that re-scoped a device.",
		},
		[]string{"kind"},
	)
)
