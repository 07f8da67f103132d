package models

// ArrInstance kinds.
const (
	ArrKindSonarr     = "sonarr"
	ArrKindRadarr     = "radarr"
	ArrKindProwlarr   = "prowlarr"
	ArrKindOverseerr  = "overseerr"
	ArrKindJellyseerr = "jellyseerr"
)

// ArrInstance is consumed only by the arr connectivity-check port and its
// gauge; it never influences routing decisions.
type ArrInstance struct {
	Name    string `yaml:"name" json:"name"`
	Kind    string `yaml:"kind" json:"kind"`
	BaseURL string `yaml:"base_url" json:"base_url"`
	APIKey  string `yaml:"api_key" json:"api_key"`
}

// NotifySink kinds.
const (
	NotifyKindDiscord  = "discord"
	NotifyKindSlack    = "slack"
	NotifyKindTelegram = "telegram"
	NotifyKindN8N      = "n8n"
)

// NotifySink configures one fire-and-forget webhook delivery target.
type NotifySink struct {
	Kind       string `yaml:"kind" json:"kind"`
	WebhookURL string `yaml:"webhook_url" json:"webhook_url"`
	Enabled    bool   `yaml:"enabled" json:"enabled"`
}

// ZapConfig mirrors the logging knobs consumed by the ambient logger setup;
// kept alongside the routing document so one file configures the whole
// process.
type ZapConfig struct {
	Directory    string `yaml:"directory" json:"directory"`
	MaxSizeMB    int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxAgeDays   int    `yaml:"max_age_days" json:"max_age_days"`
	MaxBackups   int    `yaml:"max_backups" json:"max_backups"`
	Compress     bool   `yaml:"compress" json:"compress"`
	Level        string `yaml:"level" json:"level"`
	LogInConsole bool   `yaml:"log_in_console" json:"log_in_console"`
}

// RequestTracking gates the Dispatcher's per-request side checks: whether
// the Tracker is consulted for duplicates at all, and whether a quality
// suggestion is checked and forwarded to the notify sinks.
type RequestTracking struct {
	Enabled              bool `yaml:"enabled" json:"enabled"`
	CheckDuplicates      bool `yaml:"check_duplicates" json:"check_duplicates"`
	CheckQualityProfiles bool `yaml:"check_quality_profiles" json:"check_quality_profiles"`
	SendSuggestions      bool `yaml:"send_suggestions" json:"send_suggestions"`
}

// Config is the single YAML-shaped document the Config Plane validates,
// persists, and swaps atomically. It is never mutated in place; hot reload
// always replaces the whole value.
type Config struct {
	ListenAddr      string           `yaml:"listen_addr,omitempty" json:"listen_addr,omitempty"`
	Nodes           []NodeDescriptor `yaml:"nodes" json:"nodes"`
	Policy          ScoringPolicy    `yaml:"policy" json:"policy"`
	ArrInstances    []ArrInstance    `yaml:"arr_instances,omitempty" json:"arr_instances,omitempty"`
	NotifySinks     []NotifySink     `yaml:"notify_sinks,omitempty" json:"notify_sinks,omitempty"`
	RequestTracking RequestTracking  `yaml:"request_tracking" json:"request_tracking"`
	Logging         ZapConfig        `yaml:"logging" json:"logging"`
}

// DefaultListenAddr is used when a config document omits listen_addr.
const DefaultListenAddr = ":8080"

// DefaultRequestTracking is applied when a config document omits the
// request_tracking section or leaves every flag in it false; the two cases
// are not told apart.
var DefaultRequestTracking = RequestTracking{
	Enabled:              true,
	CheckDuplicates:      true,
	CheckQualityProfiles: true,
	SendSuggestions:      true,
}

// DefaultScoringPolicy carries the documented defaults applied to any field
// left unset in a parsed config document.
var DefaultScoringPolicy = ScoringPolicy{
	DiskWeight:      1.0,
	DownloadWeight:  2.0,
	BandwidthWeight: 0.1,
	MaxDownloads:    50,
	MinScore:        -1.0,
	MaxRetries:      2,
}

// DefaultZapConfig carries the documented logging defaults. It replaces the
// whole logging section whenever a config document leaves logging.level
// empty, including when the section is omitted.
var DefaultZapConfig = ZapConfig{
	Directory:    "logs",
	MaxSizeMB:    10,
	MaxAgeDays:   30,
	MaxBackups:   10,
	Compress:     true,
	Level:        "info",
	LogInConsole: true,
}
