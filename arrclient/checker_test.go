package arrclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/qdispatch/qdispatch/models"
	"github.com/stretchr/testify/require"
)

func TestCheckReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "key", r.Header.Get("X-Api-Key"))
		w.Write([]byte(`{"version":"4.5.0"}`))
	}))
	defer srv.Close()

	status := New().Check(context.Background(), models.ArrInstance{BaseURL: srv.URL, APIKey: "key"})
	require.True(t, status.Reachable)
	require.Equal(t, "4.5.0", status.Version)
}

func TestCheckUnreachableOnNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	status := New().Check(context.Background(), models.ArrInstance{BaseURL: srv.URL, APIKey: "bad"})
	require.False(t, status.Reachable)
	require.Contains(t, status.Err, "401")
}
