package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qdispatch/qdispatch/arrclient"
	"github.com/qdispatch/qdispatch/core"
	"github.com/qdispatch/qdispatch/models"
	"github.com/stretchr/testify/require"
)

type fakeDispatch struct {
	decision models.SubmitDecision
	err      error
}

func (f *fakeDispatch) Submit(ctx context.Context, req models.SubmitRequest) (models.SubmitDecision, error) {
	return f.decision, f.err
}

func (f *fakeDispatch) Decisions(limit int) []models.DecisionRecord {
	return []models.DecisionRecord{{Request: models.SubmitRequest{Name: "x"}, Decision: f.decision}}
}

func (f *fakeDispatch) Evaluate(ctx context.Context, sizeGB float64) []models.NodeSnapshot {
	return []models.NodeSnapshot{{Node: "n1", Reachable: true, ScoreKnown: true, Score: 10}}
}

func newTestPlane(t *testing.T, yaml string) *core.Plane {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	plane, err := core.Load(path, nil)
	require.NoError(t, err)
	return plane
}

const baseYAML = `
nodes:
  - name: n1
    base_url: http://localhost:8080
policy:
  max_retries: 2
`

const gatedYAML = `
nodes:
  - name: n1
    base_url: http://localhost:8080
policy:
  max_retries: 2
  admin_key: secret
`

func TestHealthIsNeverGated(t *testing.T) {
	plane := newTestPlane(t, baseYAML)
	srv := NewServer(&fakeDispatch{}, plane, arrclient.New(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAdminGateRejectsMissingKey(t *testing.T) {
	gated := gatedYAML
	plane := newTestPlane(t, gated)
	srv := NewServer(&fakeDispatch{}, plane, arrclient.New(), nil)
	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminGateAcceptsMatchingKey(t *testing.T) {
	gated := gatedYAML
	plane := newTestPlane(t, gated)
	srv := NewServer(&fakeDispatch{}, plane, arrclient.New(), nil)
	req := httptest.NewRequest(http.MethodGet, "/nodes", nil)
	req.Header.Set("X-Api-Key", "secret")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestCompatLoginSetsSessionCookie(t *testing.T) {
	plane := newTestPlane(t, baseYAML)
	srv := NewServer(&fakeDispatch{}, plane, arrclient.New(), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v2/auth/login", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Ok.", w.Body.String())
	require.NotEmpty(t, w.Result().Cookies())
}

func TestCompatAddRejectsNonMagnet(t *testing.T) {
	plane := newTestPlane(t, baseYAML)
	srv := NewServer(&fakeDispatch{}, plane, arrclient.New(), nil)
	form := url.Values{"urls": {"http://example.com/not-a-magnet"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v2/torrents/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompatAddAcceptsMagnetOnAcceptedDecision(t *testing.T) {
	plane := newTestPlane(t, baseYAML)
	disp := &fakeDispatch{decision: models.SubmitDecision{Status: models.StatusAccepted, SelectedNode: "n1"}}
	srv := NewServer(disp, plane, arrclient.New(), nil)
	form := url.Values{"urls": {"magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa&dn=Some+Movie"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v2/torrents/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Ok.", w.Body.String())
}

func TestCompatAddSurfaces503OnRejection(t *testing.T) {
	plane := newTestPlane(t, baseYAML)
	disp := &fakeDispatch{decision: models.SubmitDecision{Status: models.StatusRejected}}
	srv := NewServer(disp, plane, arrclient.New(), nil)
	form := url.Values{"urls": {"magnet:?xt=urn:btih:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v2/torrents/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCompatVersionEndpoints(t *testing.T) {
	plane := newTestPlane(t, baseYAML)
	srv := NewServer(&fakeDispatch{}, plane, arrclient.New(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v2/app/version", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v2/app/webapiVersion", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}
