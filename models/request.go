package models

import "time"

// SubmitRequest is what arrives at the Dispatcher's admission path, whether
// from the native /submit endpoint or translated from the compatibility
// ingress.
type SubmitRequest struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	SizeGB     float64 `json:"size_gb"`
	Magnet     string  `json:"magnet"`
	Source     string  `json:"source,omitempty"`
}

// Decision status values.
const (
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// SubmitDecision is the terminal outcome of one admission attempt.
type SubmitDecision struct {
	SelectedNode    string         `json:"selected_node,omitempty"`
	Reason          string         `json:"reason"`
	Status          string         `json:"status"`
	AttemptedNodes  []NodeSnapshot `json:"attempted_nodes"`
}

// Tracked request lifecycle states.
const (
	TrackStatusPending     = "pending"
	TrackStatusDownloading = "downloading"
	TrackStatusCompleted   = "completed"
	TrackStatusFailed      = "failed"
)

// TrackedRequest is the Tracker's own record, keyed by infohash (or a
// fallback hash of the full magnet when no btih segment is present).
type TrackedRequest struct {
	Key          string
	Name         string
	Category     string
	SizeGB       float64
	Magnet       string
	InsertedAt   time.Time
	Source       string
	SelectedNode string
	Status       string
}

// DecisionRecord is one entry in the Dispatcher's bounded history ring.
type DecisionRecord struct {
	At       time.Time      `json:"at"`
	Request  SubmitRequest  `json:"request"`
	Decision SubmitDecision `json:"decision"`
}
