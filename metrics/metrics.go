// Package metrics exposes the routing core's Prometheus vectors, following
// the same package-level var + Register(reg) shape this lineage's other
// services use.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/qdispatch/qdispatch/models"
)

var (
	NodeReachable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "qdispatch",
		Name:      "node_reachable",
		Help:      "1 if the node answered its last probe, 0 otherwise.",
	}, []string{"node"})

	NodeScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "qdispatch",
		Name:      "node_score",
		Help:      "The node's computed score on its last evaluation round.",
	}, []string{"node"})

	ArrReachable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "qdispatch",
		Name:      "arr_reachable",
		Help:      "1 if the arr instance answered its last connectivity check, 0 otherwise.",
	}, []string{"name", "type"})

	SubmissionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qdispatch",
		Name:      "submission_total",
		Help:      "Total submissions by terminal status.",
	}, []string{"status"})

	EvaluationRoundDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "qdispatch",
		Name:      "evaluation_round_duration_seconds",
		Help:      "Duration of one evaluator round across all nodes.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})
)

// ObserveSnapshots updates the per-node gauges from one evaluation round.
func ObserveSnapshots(snapshots []models.NodeSnapshot) {
	for _, s := range snapshots {
		reachable := 0.0
		if s.Reachable {
			reachable = 1.0
		}
		NodeReachable.WithLabelValues(s.Node).Set(reachable)
		if s.ScoreKnown {
			NodeScore.WithLabelValues(s.Node).Set(s.Score)
		}
	}
}

// ObserveArrStatus updates the arr_reachable gauge for one instance.
func ObserveArrStatus(instance models.ArrInstance, reachable bool) {
	v := 0.0
	if reachable {
		v = 1.0
	}
	ArrReachable.WithLabelValues(instance.Name, instance.Kind).Set(v)
}

// Register attaches every vector to reg. Call once at process start.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		NodeReachable,
		NodeScore,
		ArrReachable,
		SubmissionTotal,
		EvaluationRoundDuration,
	)
}
