package notify

import (
	"context"

	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/quality"
)

var discordColors = map[string]int{
	"info":    0x3B82F6,
	"success": 0x10B981,
	"warning": 0xF59E0B,
	"error":   0xEF4444,
}

// DiscordSink posts an embed to a Discord webhook.
type DiscordSink struct {
	WebhookURL string
}

func (s *DiscordSink) Notify(ctx context.Context, req models.SubmitRequest, decision models.SubmitDecision) error {
	level := levelFor(decision)
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       titleFor(decision),
				"description": bodyFor(req, decision),
				"color":       discordColors[level],
			},
		},
	}
	return postJSON(ctx, s.WebhookURL, payload)
}

func (s *DiscordSink) NotifyQuality(ctx context.Context, req models.SubmitRequest, suggestion quality.Suggestion) error {
	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{
			{
				"title":       qualityTitle,
				"description": qualityBodyFor(req, suggestion),
				"color":       discordColors["info"],
			},
		},
	}
	return postJSON(ctx, s.WebhookURL, payload)
}
