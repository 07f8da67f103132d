package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/qdispatch/qdispatch/dispatcher"
	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/nodeclient"
)

// statusForReloadError answers a document that fails validation with 400
// and a valid document that could not be persisted with 500.
func statusForReloadError(err error) int {
	var validation *dispatcher.ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	decision, err := s.disp.Submit(r.Context(), req)
	if err != nil {
		writeJSON(w, statusForDispatchError(err), decision)
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

type nodeView struct {
	Metrics  models.NodeTelemetry `json:"metrics"`
	Excluded bool                 `json:"excluded"`
	Reason   string               `json:"reason,omitempty"`
}

func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	snapshots := s.disp.Evaluate(r.Context(), 0)
	views := make([]nodeView, len(snapshots))
	for i, snap := range snapshots {
		views[i] = nodeView{Metrics: snap.Telemetry, Excluded: snap.Excluded, Reason: snap.Reason}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDebugDecision(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	snapshots := s.disp.Evaluate(r.Context(), req.SizeGB)
	writeJSON(w, http.StatusOK, map[string]interface{}{"request": req, "attempted_nodes": snapshots})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	writeJSON(w, http.StatusOK, s.disp.Decisions(limit))
}

func (s *Server) handleConfigGetJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.plane.Current())
}

func (s *Server) handleConfigSetJSON(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	applied, err := s.plane.ReloadJSON(body)
	if err != nil {
		writeError(w, statusForReloadError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

func (s *Server) handleConfigGetRaw(w http.ResponseWriter, r *http.Request) {
	raw, err := s.plane.Raw()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Server) handleConfigSetRaw(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	applied, err := s.plane.Reload(raw)
	if err != nil {
		writeError(w, statusForReloadError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, applied)
}

func (s *Server) handleTestNode(w http.ResponseWriter, r *http.Request) {
	var desc models.NodeDescriptor
	if err := json.NewDecoder(r.Body).Decode(&desc); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	client, err := nodeclient.New(desc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	telemetry, err := client.Probe(r.Context())
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"reachable": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reachable": true, "telemetry": telemetry})
}

func (s *Server) handleTestArr(w http.ResponseWriter, r *http.Request) {
	var instance models.ArrInstance
	if err := json.NewDecoder(r.Body).Decode(&instance); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status := s.arr.Check(r.Context(), instance)
	writeJSON(w, http.StatusOK, status)
}
