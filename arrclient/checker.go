// Package arrclient is the connectivity-check port for Sonarr/Radarr/
// Prowlarr-style instances. Nothing here influences routing decisions; it
// only feeds the arr_reachable gauge and the config test endpoint.
package arrclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qdispatch/qdispatch/models"
)

// Status is the outcome of one connectivity check.
type Status struct {
	Reachable bool
	Version   string
	Err       string
}

// Checker probes one arr instance's system/status endpoint.
type Checker struct {
	httpClient *http.Client
}

// New builds a Checker with a 5-second probe timeout.
func New() *Checker {
	return &Checker{httpClient: &http.Client{Timeout: 5 * time.Second}}
}

type statusResponse struct {
	Version string `json:"version"`
}

// Check performs GET {base}/api/v3/system/status with X-Api-Key auth.
func (c *Checker) Check(ctx context.Context, instance models.ArrInstance) Status {
	base := strings.TrimRight(instance.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/v3/system/status", nil)
	if err != nil {
		return Status{Err: err.Error()}
	}
	req.Header.Set("X-Api-Key", instance.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{Err: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Status{Err: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Status{Reachable: true}
	}
	return Status{Reachable: true, Version: body.Version}
}
