// Package dispatcher orchestrates one admission: duplicate check,
// evaluation round, score-descending candidate ordering, submit-with-
// retry, and decision recording. It is the one component that sees the
// whole request lifecycle; everything else below it is deliberately
// narrow.
package dispatcher

import (
	"context"
	"sort"
	"time"

	"github.com/qdispatch/qdispatch/metrics"
	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/notify"
	"github.com/qdispatch/qdispatch/quality"
	"go.uber.org/zap"
)

// RoundEvaluator is the subset of evaluator.Evaluator the Dispatcher
// depends on.
type RoundEvaluator interface {
	Round(ctx context.Context, policy models.ScoringPolicy, sizeGB float64) []models.NodeSnapshot
}

// DuplicateTracker is the subset of tracker.Tracker the Dispatcher depends
// on.
type DuplicateTracker interface {
	IsDuplicate(req models.SubmitRequest) (bool, models.TrackedRequest)
	Add(req models.SubmitRequest, source string) string
	UpdateStatus(key, status, selectedNode string)
}

// NodeSubmitter is the subset of nodeclient.Client the Dispatcher depends
// on for the submit step.
type NodeSubmitter interface {
	Submit(ctx context.Context, magnet, category, savePath string) (string, error)
}

// NodeClients looks up the submit client for a node by name. A plain
// map[string]NodeSubmitter satisfies this directly; callers that need to
// swap the whole node fleet on config reload can implement Get over an
// atomically-swapped value instead.
type NodeClients interface {
	Get(name string) (NodeSubmitter, bool)
}

// StaticClients adapts a fixed map to NodeClients, for callers whose node
// fleet never changes after construction.
type StaticClients map[string]NodeSubmitter

func (m StaticClients) Get(name string) (NodeSubmitter, bool) {
	client, ok := m[name]
	return client, ok
}

// ConfigProvider exposes the currently active config, as owned by the
// Config Plane's atomic reference.
type ConfigProvider interface {
	Current() *models.Config
}

// Dispatcher implements the admission state machine described in the
// routing core's design: dedup, evaluate, sort, retry-on-failure, record.
type Dispatcher struct {
	config  ConfigProvider
	eval    RoundEvaluator
	tracker DuplicateTracker
	clients NodeClients
	sinks   []notify.Sink
	quality quality.Checker
	ring    *decisionRing
	logger  *zap.Logger
}

// New builds a Dispatcher. clients resolves the NodeSubmitter used to
// actually place a submit call once a node is selected; a plain
// map[string]NodeSubmitter works directly.
func New(config ConfigProvider, eval RoundEvaluator, trk DuplicateTracker, clients NodeClients, sinks []notify.Sink, qc quality.Checker, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if qc == nil {
		qc = quality.NoOp{}
	}
	return &Dispatcher{
		config:  config,
		eval:    eval,
		tracker: trk,
		clients: clients,
		sinks:   sinks,
		quality: qc,
		ring:    newDecisionRing(),
		logger:  logger,
	}
}

// Submit runs one admission to completion.
func (d *Dispatcher) Submit(ctx context.Context, req models.SubmitRequest) (models.SubmitDecision, error) {
	if req.Magnet == "" {
		return models.SubmitDecision{}, &ValidationError{Field: "magnet", Detail: "empty"}
	}

	cfg := d.config.Current()

	if cfg.RequestTracking.Enabled && cfg.RequestTracking.CheckDuplicates {
		if dup, existing := d.tracker.IsDuplicate(req); dup {
			decision := models.SubmitDecision{
				Status: models.StatusRejected,
				Reason: (&Duplicate{ExistingName: existing.Name}).Error(),
			}
			d.record(req, decision)
			d.notifyAll(req, decision)
			return decision, &Duplicate{ExistingName: existing.Name}
		}
	}

	if cfg.RequestTracking.Enabled && cfg.RequestTracking.CheckQualityProfiles {
		if suggestion := d.quality.Check(ctx, req.Name, req.Category, req.SizeGB); suggestion.Present && cfg.RequestTracking.SendSuggestions {
			d.notifyQualitySuggestion(req, suggestion)
		}
	}

	snapshots := d.eval.Round(ctx, cfg.Policy, req.SizeGB)
	metrics.ObserveSnapshots(snapshots)

	eligible := make([]models.NodeSnapshot, 0, len(snapshots))
	for _, s := range snapshots {
		if !s.Excluded && s.ScoreKnown {
			eligible = append(eligible, s)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool { return eligible[i].Score > eligible[j].Score })

	if len(eligible) == 0 {
		decision := models.SubmitDecision{
			Status:         models.StatusRejected,
			Reason:         (&NoEligibleNodes{}).Error(),
			AttemptedNodes: snapshots,
		}
		d.record(req, decision)
		d.notifyAll(req, decision)
		return decision, &NoEligibleNodes{}
	}

	maxRetries := cfg.Policy.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	if maxRetries > len(eligible) {
		maxRetries = len(eligible)
	}
	candidates := eligible[:maxRetries]

	var lastErr string
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		client, ok := d.clients.Get(candidate.Node)
		if !ok {
			lastErr = "no client configured for node " + candidate.Node
			continue
		}
		_, err := client.Submit(ctx, req.Magnet, req.Category, cfg.Policy.SavePath)
		if err != nil {
			lastErr = err.Error()
			continue
		}
		key := d.tracker.Add(req, req.Category)
		d.tracker.UpdateStatus(key, models.TrackStatusDownloading, candidate.Node)
		decision := models.SubmitDecision{
			SelectedNode:   candidate.Node,
			Reason:         "highest_score",
			Status:         models.StatusAccepted,
			AttemptedNodes: snapshots,
		}
		d.record(req, decision)
		d.notifyAll(req, decision)
		return decision, nil
	}

	decision := models.SubmitDecision{
		Status:         models.StatusFailed,
		Reason:         (&SubmitFailedAllNodes{LastErr: lastErr}).Error(),
		AttemptedNodes: snapshots,
	}
	d.record(req, decision)
	d.notifyAll(req, decision)
	return decision, &SubmitFailedAllNodes{LastErr: lastErr}
}

// Decisions returns up to limit newest decisions, oldest-first.
func (d *Dispatcher) Decisions(limit int) []models.DecisionRecord {
	return d.ring.latest(limit)
}

// Evaluate runs a read-only evaluation round against the live node fleet,
// for the /nodes and /debug/decision surfaces. It never touches the
// Tracker or submits anything.
func (d *Dispatcher) Evaluate(ctx context.Context, sizeGB float64) []models.NodeSnapshot {
	cfg := d.config.Current()
	snapshots := d.eval.Round(ctx, cfg.Policy, sizeGB)
	metrics.ObserveSnapshots(snapshots)
	return snapshots
}

func (d *Dispatcher) record(req models.SubmitRequest, decision models.SubmitDecision) {
	d.ring.add(models.DecisionRecord{At: time.Now(), Request: req, Decision: decision})
	metrics.SubmissionTotal.WithLabelValues(decision.Status).Inc()
}

// notifyAll fires every enabled sink in the background; failures are logged
// and swallowed, never surfaced to the admission path.
func (d *Dispatcher) notifyAll(req models.SubmitRequest, decision models.SubmitDecision) {
	for _, sink := range d.sinks {
		sink := sink
		go func() {
			if err := sink.Notify(context.Background(), req, decision); err != nil {
				d.logger.Warn("notify sink failed", zap.Error(err))
			}
		}()
	}
}

// notifyQualitySuggestion fires every enabled sink's quality-suggestion leg
// in the background, same swallow-on-failure policy as notifyAll.
func (d *Dispatcher) notifyQualitySuggestion(req models.SubmitRequest, suggestion quality.Suggestion) {
	for _, sink := range d.sinks {
		sink := sink
		go func() {
			if err := sink.NotifyQuality(context.Background(), req, suggestion); err != nil {
				d.logger.Warn("quality notify sink failed", zap.Error(err))
			}
		}()
	}
}
