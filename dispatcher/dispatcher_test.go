package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/notify"
	"github.com/qdispatch/qdispatch/quality"
	"github.com/stretchr/testify/require"
)

type fixedConfig struct{ cfg *models.Config }

func (f fixedConfig) Current() *models.Config { return f.cfg }

type fixedEvaluator struct{ snapshots []models.NodeSnapshot }

func (f fixedEvaluator) Round(ctx context.Context, policy models.ScoringPolicy, sizeGB float64) []models.NodeSnapshot {
	return f.snapshots
}

type memTracker struct {
	dup      bool
	existing models.TrackedRequest
	added    []string
}

func (m *memTracker) IsDuplicate(req models.SubmitRequest) (bool, models.TrackedRequest) {
	return m.dup, m.existing
}
func (m *memTracker) Add(req models.SubmitRequest, source string) string {
	m.added = append(m.added, req.Name)
	return req.Name
}
func (m *memTracker) UpdateStatus(key, status, selectedNode string) {}

type scriptedSubmitter struct {
	err error
}

func (s *scriptedSubmitter) Submit(ctx context.Context, magnet, category, savePath string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "hash", nil
}

type fixedQuality struct{ suggestion quality.Suggestion }

func (f fixedQuality) Check(ctx context.Context, name, category string, sizeGB float64) quality.Suggestion {
	return f.suggestion
}

type recordingSink struct {
	mu          sync.Mutex
	decisions   int
	suggestions []quality.Suggestion
}

func (r *recordingSink) Notify(ctx context.Context, req models.SubmitRequest, decision models.SubmitDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions++
	return nil
}

func (r *recordingSink) NotifyQuality(ctx context.Context, req models.SubmitRequest, suggestion quality.Suggestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suggestions = append(r.suggestions, suggestion)
	return nil
}

func (r *recordingSink) suggestionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.suggestions)
}

func baseConfig() *models.Config {
	return &models.Config{
		Policy:          models.ScoringPolicy{MaxRetries: 2, MinScore: -1},
		RequestTracking: models.DefaultRequestTracking,
	}
}

func TestSubmitPicksHighestScore(t *testing.T) {
	snapshots := []models.NodeSnapshot{
		{Node: "a", ScoreKnown: true, Score: 989},
		{Node: "b", ScoreKnown: true, Score: 500},
	}
	clients := StaticClients{"a": &scriptedSubmitter{}, "b": &scriptedSubmitter{}}
	d := New(fixedConfig{baseConfig()}, fixedEvaluator{snapshots}, &memTracker{}, clients, nil, nil, nil)
	decision, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, decision.Status)
	require.Equal(t, "a", decision.SelectedNode)
	require.Equal(t, "highest_score", decision.Reason)
}

func TestSubmitRetriesThenSucceeds(t *testing.T) {
	snapshots := []models.NodeSnapshot{
		{Node: "a", ScoreKnown: true, Score: 900},
		{Node: "b", ScoreKnown: true, Score: 500},
	}
	clients := StaticClients{
		"a": &scriptedSubmitter{err: errors.New("boom")},
		"b": &scriptedSubmitter{},
	}
	d := New(fixedConfig{baseConfig()}, fixedEvaluator{snapshots}, &memTracker{}, clients, nil, nil, nil)
	decision, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, decision.Status)
	require.Equal(t, "b", decision.SelectedNode)
}

func TestSubmitNoEligibleNodes(t *testing.T) {
	snapshots := []models.NodeSnapshot{
		{Node: "a", Reachable: false, Excluded: true, Reason: models.ReasonAPIUnreachable},
	}
	d := New(fixedConfig{baseConfig()}, fixedEvaluator{snapshots}, &memTracker{}, nil, nil, nil, nil)
	decision, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.Error(t, err)
	require.Equal(t, models.StatusRejected, decision.Status)
	require.Equal(t, "no_eligible_nodes", decision.Reason)
}

func TestSubmitDuplicateRejected(t *testing.T) {
	tr := &memTracker{dup: true, existing: models.TrackedRequest{Name: "earlier"}}
	d := New(fixedConfig{baseConfig()}, fixedEvaluator{nil}, tr, nil, nil, nil, nil)
	decision, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.Error(t, err)
	require.Equal(t, models.StatusRejected, decision.Status)
	require.Contains(t, decision.Reason, "duplicate_of_existing_request")
}

func TestSubmitAllNodesFail(t *testing.T) {
	snapshots := []models.NodeSnapshot{
		{Node: "a", ScoreKnown: true, Score: 900},
	}
	clients := StaticClients{"a": &scriptedSubmitter{err: errors.New("disk full")}}
	d := New(fixedConfig{baseConfig()}, fixedEvaluator{snapshots}, &memTracker{}, clients, nil, nil, nil)
	decision, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.Error(t, err)
	require.Equal(t, models.StatusFailed, decision.Status)
}

func TestDecisionsBounded(t *testing.T) {
	snapshots := []models.NodeSnapshot{{Node: "a", ScoreKnown: true, Score: 1}}
	clients := StaticClients{"a": &scriptedSubmitter{}}
	d := New(fixedConfig{baseConfig()}, fixedEvaluator{snapshots}, &memTracker{}, clients, nil, nil, nil)
	for i := 0; i < ringCapacity+10; i++ {
		_, _ = d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	}
	require.LessOrEqual(t, len(d.Decisions(0)), ringCapacity)
}

func TestSubmitSkipsDuplicateCheckWhenTrackingDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.RequestTracking.Enabled = false
	snapshots := []models.NodeSnapshot{{Node: "a", ScoreKnown: true, Score: 1}}
	clients := StaticClients{"a": &scriptedSubmitter{}}
	tr := &memTracker{dup: true, existing: models.TrackedRequest{Name: "earlier"}}
	d := New(fixedConfig{cfg}, fixedEvaluator{snapshots}, tr, clients, nil, nil, nil)
	decision, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, decision.Status)
}

func TestSubmitFiresQualitySuggestionWithoutAffectingDecision(t *testing.T) {
	cfg := baseConfig()
	snapshots := []models.NodeSnapshot{{Node: "a", ScoreKnown: true, Score: 1}}
	clients := StaticClients{"a": &scriptedSubmitter{}}
	sink := &recordingSink{}
	qc := fixedQuality{suggestion: quality.Suggestion{Present: true, CurrentQuality: "720p", SuggestedQuality: "1080p", Reason: "profile upgrade available"}}
	d := New(fixedConfig{cfg}, fixedEvaluator{snapshots}, &memTracker{}, clients, []notify.Sink{sink}, qc, nil)
	decision, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.NoError(t, err)
	require.Equal(t, models.StatusAccepted, decision.Status)
	require.Eventually(t, func() bool { return sink.suggestionCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestSubmitOmitsQualitySuggestionWhenSendSuggestionsDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.RequestTracking.SendSuggestions = false
	snapshots := []models.NodeSnapshot{{Node: "a", ScoreKnown: true, Score: 1}}
	clients := StaticClients{"a": &scriptedSubmitter{}}
	sink := &recordingSink{}
	qc := fixedQuality{suggestion: quality.Suggestion{Present: true, CurrentQuality: "720p", SuggestedQuality: "1080p"}}
	d := New(fixedConfig{cfg}, fixedEvaluator{snapshots}, &memTracker{}, clients, []notify.Sink{sink}, qc, nil)
	_, err := d.Submit(context.Background(), models.SubmitRequest{Name: "x", Magnet: "magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"})
	require.NoError(t, err)
	require.Equal(t, 0, sink.suggestionCount())
}
