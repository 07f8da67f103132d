// Package notify is the fire-and-forget webhook delivery port: per-sink
// failures are logged by the caller and never surfaced to the admission
// path.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/quality"
)

// Sink delivers a terminal decision, or a quality-upgrade suggestion, to
// one external destination.
type Sink interface {
	Notify(ctx context.Context, req models.SubmitRequest, decision models.SubmitDecision) error
	NotifyQuality(ctx context.Context, req models.SubmitRequest, suggestion quality.Suggestion) error
}

func postJSON(ctx context.Context, url string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", url, resp.StatusCode)
	}
	return nil
}

// levelFor maps a decision status to a success/warning/error severity;
// "info" is used only for quality suggestions.
func levelFor(decision models.SubmitDecision) string {
	switch decision.Status {
	case models.StatusAccepted:
		return "success"
	case models.StatusRejected:
		return "warning"
	default:
		return "error"
	}
}

func titleFor(decision models.SubmitDecision) string {
	switch decision.Status {
	case models.StatusAccepted:
		return "Submission accepted"
	case models.StatusRejected:
		return "Submission rejected"
	default:
		return "Submission failed"
	}
}

func bodyFor(req models.SubmitRequest, decision models.SubmitDecision) string {
	switch decision.Status {
	case models.StatusAccepted:
		return fmt.Sprintf("%s routed to %s (%s)", req.Name, decision.SelectedNode, decision.Reason)
	default:
		return fmt.Sprintf("%s: %s", req.Name, decision.Reason)
	}
}

const qualityTitle = "Quality upgrade suggestion"

func qualityBodyFor(req models.SubmitRequest, suggestion quality.Suggestion) string {
	return fmt.Sprintf("%s\ncurrent: %s\nsuggested: %s\nreason: %s",
		req.Name, suggestion.CurrentQuality, suggestion.SuggestedQuality, suggestion.Reason)
}

// FromConfig builds the enabled sinks described by a config document.
func FromConfig(sinks []models.NotifySink) []Sink {
	built := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if !s.Enabled {
			continue
		}
		switch s.Kind {
		case models.NotifyKindDiscord:
			built = append(built, &DiscordSink{WebhookURL: s.WebhookURL})
		case models.NotifyKindSlack:
			built = append(built, &SlackSink{WebhookURL: s.WebhookURL})
		case models.NotifyKindTelegram:
			built = append(built, &TelegramSink{WebhookURL: s.WebhookURL})
		case models.NotifyKindN8N:
			built = append(built, &N8NSink{WebhookURL: s.WebhookURL})
		}
	}
	return built
}
