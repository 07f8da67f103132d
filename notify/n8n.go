package notify

import (
	"context"

	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/quality"
)

// N8NSink POSTs the raw decision payload to an n8n webhook so a workflow
// can react to it; unlike the chat sinks it is not trying to render a
// message, just hand over structured data.
type N8NSink struct {
	WebhookURL string
}

func (s *N8NSink) Notify(ctx context.Context, req models.SubmitRequest, decision models.SubmitDecision) error {
	payload := map[string]interface{}{
		"request":  req,
		"decision": decision,
	}
	return postJSON(ctx, s.WebhookURL, payload)
}

func (s *N8NSink) NotifyQuality(ctx context.Context, req models.SubmitRequest, suggestion quality.Suggestion) error {
	payload := map[string]interface{}{
		"request":    req,
		"suggestion": suggestion,
	}
	return postJSON(ctx, s.WebhookURL, payload)
}
