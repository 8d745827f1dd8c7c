// Package metrics exposes Prometheus collectors for graph sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LinkChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "blueprint_link_checks_total",
		Help: "Total number of link validations, labelled by result.",
	}, []string{"result"})

	AncestorVisits = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "blueprint_ancestor_visited_nodes",
		Help:    "Upstream nodes visited by a single ancestor search.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000, 10000},
	})

	DirtyMarks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blueprint_dirty_marks_total",
		Help: "Total number of save callbacks that flagged the graph dirty.",
	})

	GraphsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blueprint_graphs_loaded_total",
		Help: "Total number of graph snapshots restored into a session.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "blueprint_active_sessions",
		Help: "Graph sessions currently hosted by the API server.",
	})
)

// Link check results.
const (
	ResultOK      = "ok"
	ResultCycle   = "cycle"
	ResultInvalid = "invalid"
)
