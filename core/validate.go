// Package core is the Config Plane: validation, atomic hot-swap, and
// on-disk persistence of the single YAML config document.
package core

import (
	"encoding/json"

	"github.com/qdispatch/qdispatch/dispatcher"
	"github.com/qdispatch/qdispatch/models"
)

// applyDefaults fills in any zero-valued policy field with the documented
// default, mutating cfg in place before validation runs.
func applyDefaults(cfg *models.Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = models.DefaultListenAddr
	}
	d := models.DefaultScoringPolicy
	p := &cfg.Policy
	if p.DiskWeight == 0 {
		p.DiskWeight = d.DiskWeight
	}
	if p.DownloadWeight == 0 {
		p.DownloadWeight = d.DownloadWeight
	}
	if p.BandwidthWeight == 0 {
		p.BandwidthWeight = d.BandwidthWeight
	}
	if p.MaxDownloads == 0 {
		p.MaxDownloads = d.MaxDownloads
	}
	if p.MinScore == 0 {
		p.MinScore = d.MinScore
	}
	if p.MaxRetries == 0 {
		p.MaxRetries = d.MaxRetries
	}
	for i := range cfg.Nodes {
		if cfg.Nodes[i].Weight == 0 {
			cfg.Nodes[i].Weight = 1.0
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging = models.DefaultZapConfig
	}
	if cfg.RequestTracking == (models.RequestTracking{}) {
		cfg.RequestTracking = models.DefaultRequestTracking
	}
}

// Validate checks required fields, per the Config Plane's documented
// contract: nonempty node list, nonempty node name/base URL per node.
func Validate(cfg *models.Config) error {
	if len(cfg.Nodes) == 0 {
		return &dispatcher.ValidationError{Field: "nodes", Detail: "no nodes configured"}
	}
	seen := make(map[string]bool, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		if n.Name == "" {
			return &dispatcher.ValidationError{Field: "nodes[].name", Detail: "empty"}
		}
		if seen[n.Name] {
			return &dispatcher.ValidationError{Field: "nodes[].name", Detail: "duplicate name " + n.Name}
		}
		seen[n.Name] = true
		if n.BaseURL == "" {
			return &dispatcher.ValidationError{Field: "nodes[].base_url", Detail: "empty for node " + n.Name}
		}
	}
	for _, a := range cfg.ArrInstances {
		switch a.Kind {
		case models.ArrKindSonarr, models.ArrKindRadarr, models.ArrKindProwlarr, models.ArrKindOverseerr, models.ArrKindJellyseerr:
		default:
			return &dispatcher.ValidationError{Field: "arr_instances[].kind", Detail: "unknown kind " + a.Kind}
		}
	}
	for _, s := range cfg.NotifySinks {
		switch s.Kind {
		case models.NotifyKindDiscord, models.NotifyKindSlack, models.NotifyKindTelegram, models.NotifyKindN8N:
		default:
			return &dispatcher.ValidationError{Field: "notify_sinks[].kind", Detail: "unknown kind " + s.Kind}
		}
	}
	return nil
}

// ParseAndValidate decodes the YAML document into a Config, applies
// defaults, and validates it.
func ParseAndValidate(raw []byte) (*models.Config, error) {
	var cfg models.Config
	if err := unmarshalYAML(raw, &cfg); err != nil {
		return nil, &dispatcher.ValidationError{Field: "document", Detail: err.Error()}
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseAndValidateJSON mirrors ParseAndValidate for the JSON config
// surface.
func ParseAndValidateJSON(raw []byte) (*models.Config, error) {
	var cfg models.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &dispatcher.ValidationError{Field: "document", Detail: err.Error()}
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
