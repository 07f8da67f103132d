// Package evaluator fans a Probe out across every configured node in
// parallel and assembles one snapshot per node, in input order, so
// downstream sorting has a deterministic tie-break.
package evaluator

import (
	"context"
	"time"

	"github.com/qdispatch/qdispatch/metrics"
	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/scorer"
	"golang.org/x/sync/errgroup"
)

// ProbeDeadline bounds a single node's probe within a round; a node that
// doesn't answer in time is treated as unreachable rather than stalling
// the whole round.
const ProbeDeadline = 5 * time.Second

// Prober is the subset of nodeclient.Client the Evaluator depends on.
type Prober interface {
	Probe(ctx context.Context) (models.NodeTelemetry, error)
}

// Node pairs a descriptor with the client used to probe it.
type Node struct {
	Descriptor models.NodeDescriptor
	Client     Prober
}

// Evaluator runs one round of probes against a fixed node list.
type Evaluator struct {
	nodes []Node
}

// New builds an Evaluator over the given nodes, in the order snapshots
// should be returned.
func New(nodes []Node) *Evaluator {
	return &Evaluator{nodes: nodes}
}

// Round probes every node concurrently and scores each against sizeGB. The
// result always has exactly one entry per configured node, in input order;
// a probe failure or timeout yields an unreachable/excluded snapshot for
// that position rather than aborting the round.
func (e *Evaluator) Round(ctx context.Context, policy models.ScoringPolicy, sizeGB float64) []models.NodeSnapshot {
	start := time.Now()
	snapshots := make([]models.NodeSnapshot, len(e.nodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, node := range e.nodes {
		i, node := i, node
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(gctx, ProbeDeadline)
			defer cancel()
			telemetry, err := node.Client.Probe(probeCtx)
			if err != nil {
				snapshots[i] = scorer.Unreachable(node.Descriptor.Name)
				return nil
			}
			snapshots[i] = scorer.Score(policy, node.Descriptor, telemetry, sizeGB)
			return nil
		})
	}
	_ = g.Wait()
	metrics.EvaluationRoundDuration.Observe(time.Since(start).Seconds())
	return snapshots
}
