package scorer

import (
	"testing"

	"github.com/qdispatch/qdispatch/models"
	"github.com/stretchr/testify/require"
)

func TestScoreHighestWins(t *testing.T) {
	policy := models.ScoringPolicy{DiskWeight: 1, MinScore: -1}
	a := Score(policy, models.NodeDescriptor{Name: "a", Weight: 1}, models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 989}, 0)
	b := Score(policy, models.NodeDescriptor{Name: "b", Weight: 1}, models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 500}, 0)
	require.False(t, a.Excluded)
	require.False(t, b.Excluded)
	require.InDelta(t, 989.0, a.Score, 0.001)
	require.InDelta(t, 500.0, b.Score, 0.001)
}

func TestSizeEstimateExcludes(t *testing.T) {
	policy := models.ScoringPolicy{DiskWeight: 1, MinScore: -1}
	snap := Score(policy, models.NodeDescriptor{Name: "a", MinFreeGB: 100}, models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 150}, 60)
	require.True(t, snap.Excluded)
	require.Equal(t, models.ReasonBelowMinFreeSpace, snap.Reason)
}

func TestWeightMultiplier(t *testing.T) {
	policy := models.ScoringPolicy{DiskWeight: 1, DownloadWeight: 0, BandwidthWeight: 0, MinScore: -1}
	snap := Score(policy, models.NodeDescriptor{Name: "a", Weight: 2}, models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 500}, 0)
	require.False(t, snap.Excluded)
	require.InDelta(t, 1000.0, snap.Score, 0.001)
}

func TestMissingFreeSpaceExcludes(t *testing.T) {
	policy := models.ScoringPolicy{MinScore: -1}
	snap := Score(policy, models.NodeDescriptor{Name: "a"}, models.NodeTelemetry{FreeDiskKnown: false}, 0)
	require.True(t, snap.Excluded)
	require.False(t, snap.ScoreKnown)
	require.Equal(t, models.ReasonMissingFreeSpace, snap.Reason)
}

func TestTooManyDownloadsExcludes(t *testing.T) {
	policy := models.ScoringPolicy{MaxDownloads: 2, MinScore: -1}
	snap := Score(policy, models.NodeDescriptor{Name: "a"}, models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 500, ActiveDownloads: 3}, 0)
	require.True(t, snap.Excluded)
	require.False(t, snap.ScoreKnown)
	require.Equal(t, models.ReasonTooManyDownloads, snap.Reason)
}

func TestScoreBelowMinimumRetainsScore(t *testing.T) {
	policy := models.ScoringPolicy{DiskWeight: 1, MinScore: 100}
	snap := Score(policy, models.NodeDescriptor{Name: "a"}, models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 10}, 0)
	require.True(t, snap.Excluded)
	require.True(t, snap.ScoreKnown)
	require.Equal(t, models.ReasonScoreBelowMinimum, snap.Reason)
}

func TestUnreachableSnapshot(t *testing.T) {
	snap := Unreachable("a")
	require.False(t, snap.Reachable)
	require.True(t, snap.Excluded)
	require.False(t, snap.ScoreKnown)
	require.Equal(t, models.ReasonAPIUnreachable, snap.Reason)
}
