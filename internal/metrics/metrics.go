package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Simulation metrics, labeled by map id.
var (
	TickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wowgo",
		Subsystem: "world",
		Name:      "tick_duration_seconds",
		Help:      "Duration of one map update tick.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
	}, []string{"map"})

	CreaturesAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wowgo",
		Subsystem: "world",
		Name:      "creatures_alive",
		Help:      "Live creature objects per map.",
	}, []string{"map"})

	PlayersOnline = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wowgo",
		Subsystem: "world",
		Name:      "players_online",
		Help:      "Players registered per map.",
	}, []string{"map"})

	UpdatePacketsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wowgo",
		Subsystem: "replication",
		Name:      "update_packets_total",
		Help:      "Replication packets emitted, by kind.",
	}, []string{"kind"})

	RespawnsScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wowgo",
		Subsystem: "world",
		Name:      "respawns_scheduled_total",
		Help:      "Pooled-mode respawn wakeups queued.",
	})

	RespawnsExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wowgo",
		Subsystem: "world",
		Name:      "respawns_executed_total",
		Help:      "Creatures brought back by the respawn scheduler.",
	})
)
