// Package scorer is the pure-function core mapping one node's telemetry,
// its config, and a request's size estimate into an eligibility decision
// and a comparable score. Nothing here performs I/O; identical inputs
// always produce identical outputs.
package scorer

import "github.com/qdispatch/qdispatch/models"

// Score evaluates one node for one request. sizeGB is the request's
// estimated size in gibibytes; 0 means "no estimate given".
func Score(policy models.ScoringPolicy, descriptor models.NodeDescriptor, telemetry models.NodeTelemetry, sizeGB float64) models.NodeSnapshot {
	snap := models.NodeSnapshot{
		Node:      descriptor.Name,
		Reachable: true,
		Telemetry: telemetry,
	}

	if !telemetry.FreeDiskKnown {
		snap.Excluded = true
		snap.Reason = models.ReasonMissingFreeSpace
		return snap
	}

	effectiveFree := telemetry.FreeDiskGB
	if sizeGB > 0 {
		effectiveFree -= sizeGB
		if effectiveFree < 0 {
			effectiveFree = 0
		}
	}

	if effectiveFree < descriptor.MinFreeGB {
		snap.Excluded = true
		snap.Reason = models.ReasonBelowMinFreeSpace
	}

	if telemetry.ActiveDownloads > policy.MaxDownloads {
		if !snap.Excluded {
			snap.Excluded = true
			snap.Reason = models.ReasonTooManyDownloads
		}
	}

	if snap.Excluded {
		return snap
	}

	base := effectiveFree*policy.DiskWeight -
		float64(telemetry.ActiveDownloads)*policy.DownloadWeight -
		telemetry.BandwidthMbps*policy.BandwidthWeight
	weight := descriptor.Weight
	if weight == 0 {
		weight = 1.0
	}
	score := base * weight
	snap.ScoreKnown = true
	snap.Score = score

	if score < policy.MinScore {
		snap.Excluded = true
		snap.Reason = models.ReasonScoreBelowMinimum
	}

	return snap
}

// Unreachable builds the fixed snapshot shape for a node whose Probe
// failed, per the invariant: reachable=false implies excluded=true,
// telemetry absent, score absent, reason=api_unreachable.
func Unreachable(name string) models.NodeSnapshot {
	return models.NodeSnapshot{
		Node:      name,
		Reachable: false,
		Excluded:  true,
		Reason:    models.ReasonAPIUnreachable,
	}
}
