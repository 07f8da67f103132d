package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qdispatch/qdispatch/models"
	"github.com/stretchr/testify/require"
)

type fakeProber struct {
	telemetry models.NodeTelemetry
	err       error
	delay     time.Duration
}

func (f *fakeProber) Probe(ctx context.Context) (models.NodeTelemetry, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return models.NodeTelemetry{}, ctx.Err()
		}
	}
	return f.telemetry, f.err
}

func TestRoundProducesOnePerNodeInOrder(t *testing.T) {
	nodes := []Node{
		{Descriptor: models.NodeDescriptor{Name: "a"}, Client: &fakeProber{telemetry: models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 100}}},
		{Descriptor: models.NodeDescriptor{Name: "b"}, Client: &fakeProber{err: errors.New("boom")}},
	}
	e := New(nodes)
	snaps := e.Round(context.Background(), models.ScoringPolicy{MinScore: -1}, 0)
	require.Len(t, snaps, 2)
	require.Equal(t, "a", snaps[0].Node)
	require.False(t, snaps[0].Excluded)
	require.Equal(t, "b", snaps[1].Node)
	require.True(t, snaps[1].Excluded)
	require.Equal(t, models.ReasonAPIUnreachable, snaps[1].Reason)
}

func TestRoundTimesOutSlowNode(t *testing.T) {
	nodes := []Node{
		{Descriptor: models.NodeDescriptor{Name: "slow"}, Client: &fakeProber{delay: ProbeDeadline + time.Second, telemetry: models.NodeTelemetry{FreeDiskKnown: true, FreeDiskGB: 1}}},
	}
	e := New(nodes)
	start := time.Now()
	snaps := e.Round(context.Background(), models.ScoringPolicy{MinScore: -1}, 0)
	require.Less(t, time.Since(start), ProbeDeadline+500*time.Millisecond)
	require.True(t, snaps[0].Excluded)
	require.Equal(t, models.ReasonAPIUnreachable, snaps[0].Reason)
}
