package notify

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/qdispatch/qdispatch/models"
	"github.com/stretchr/testify/require"
)

func TestDiscordSinkPostsEmbed(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		received = string(b)
	}))
	defer srv.Close()

	sink := &DiscordSink{WebhookURL: srv.URL}
	err := sink.Notify(context.Background(), models.SubmitRequest{Name: "movie"},
		models.SubmitDecision{Status: models.StatusAccepted, SelectedNode: "n1", Reason: "highest_score"})
	require.NoError(t, err)
	require.Contains(t, received, "embeds")
	require.Contains(t, received, "movie")
}

func TestFromConfigSkipsDisabled(t *testing.T) {
	sinks := FromConfig([]models.NotifySink{
		{Kind: models.NotifyKindDiscord, WebhookURL: "http://x", Enabled: false},
		{Kind: models.NotifyKindSlack, WebhookURL: "http://y", Enabled: true},
	})
	require.Len(t, sinks, 1)
	_, ok := sinks[0].(*SlackSink)
	require.True(t, ok)
}

func TestPostJSONErrorsOnNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	err := postJSON(context.Background(), srv.URL, map[string]string{"a": "b"})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "500"))
}
