package notify

import (
	"context"

	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/quality"
)

var slackColors = map[string]string{
	"info":    "#3B82F6",
	"success": "#10B981",
	"warning": "#F59E0B",
	"error":   "#EF4444",
}

// SlackSink posts an attachment to a Slack incoming webhook.
type SlackSink struct {
	WebhookURL string
}

func (s *SlackSink) Notify(ctx context.Context, req models.SubmitRequest, decision models.SubmitDecision) error {
	level := levelFor(decision)
	payload := map[string]interface{}{
		"attachments": []map[string]interface{}{
			{
				"color": slackColors[level],
				"title": titleFor(decision),
				"text":  bodyFor(req, decision),
			},
		},
	}
	return postJSON(ctx, s.WebhookURL, payload)
}

func (s *SlackSink) NotifyQuality(ctx context.Context, req models.SubmitRequest, suggestion quality.Suggestion) error {
	payload := map[string]interface{}{
		"attachments": []map[string]interface{}{
			{
				"color": slackColors["info"],
				"title": qualityTitle,
				"text":  qualityBodyFor(req, suggestion),
			},
		},
	}
	return postJSON(ctx, s.WebhookURL, payload)
}
