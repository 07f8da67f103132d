package models

// NodeDescriptor is immutable for the lifetime of one config generation.
// Hot reload replaces the whole slice; nothing mutates a descriptor in
// place.
type NodeDescriptor struct {
	Name        string  `yaml:"name" json:"name"`
	BaseURL     string  `yaml:"base_url" json:"base_url"`
	Username    string  `yaml:"username" json:"username"`
	Password    string  `yaml:"password" json:"password"`
	MinFreeGB   float64 `yaml:"min_free_gb" json:"min_free_gb"`
	Weight      float64 `yaml:"weight" json:"weight"`
}

// ScoringPolicy is immutable for the lifetime of one config generation.
type ScoringPolicy struct {
	DiskWeight      float64 `yaml:"disk_weight" json:"disk_weight"`
	DownloadWeight  float64 `yaml:"download_weight" json:"download_weight"`
	BandwidthWeight float64 `yaml:"bandwidth_weight" json:"bandwidth_weight"`
	MaxDownloads    int     `yaml:"max_downloads" json:"max_downloads"`
	MinScore        float64 `yaml:"min_score" json:"min_score"`
	MaxRetries      int     `yaml:"max_retries" json:"max_retries"`
	SavePath        string  `yaml:"save_path,omitempty" json:"save_path,omitempty"`
	AdminKey        string  `yaml:"admin_key,omitempty" json:"admin_key,omitempty"`
}

// NodeTelemetry is sampled once per evaluation round and never persisted.
// FreeDiskGB being absent (FreeDiskKnown=false) is distinct from a known
// zero — the Scorer treats the two very differently.
type NodeTelemetry struct {
	FreeDiskKnown    bool
	FreeDiskGB       float64
	ActiveDownloads  int
	PausedDownloads  int
	BandwidthMbps    float64
}

// Reason codes form a closed enum; first-set-wins when more than one
// condition applies, in the order they're checked by the Scorer.
const (
	ReasonAPIUnreachable    = "api_unreachable"
	ReasonMissingFreeSpace  = "missing_free_space"
	ReasonBelowMinFreeSpace = "below_min_free_space"
	ReasonTooManyDownloads  = "too_many_downloads"
	ReasonScoreBelowMinimum = "score_below_minimum"
)

// NodeSnapshot is the Scorer/Evaluator's output for one node in one round.
//
// Invariants: Reachable=false implies Excluded=true, Telemetry is zero, and
// Score is absent with Reason=ReasonAPIUnreachable. Excluded=true implies
// ScoreKnown=false, or ScoreKnown=true with Score below the policy minimum.
type NodeSnapshot struct {
	Node        string
	Reachable   bool
	Telemetry   NodeTelemetry
	Excluded    bool
	Reason      string
	ScoreKnown  bool
	Score       float64
}
