// Package metrics exposes Prometheus collectors for the hub.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OpenConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomhub_open_connections",
		Help: "Currently open websocket connections across all rooms.",
	})
	OnlineUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "roomhub_online_users",
		Help: "Users currently present across all rooms.",
	})
	Broadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomhub_broadcasts_total",
		Help: "Broadcast fan-outs performed.",
	})
	FramesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomhub_frames_delivered_total",
		Help: "Frames successfully handed to connection send buffers.",
	})
	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roomhub_frames_dropped_total",
		Help: "Frames dropped because the peer connection was dead or backed up.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
