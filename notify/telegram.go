package notify

import (
	"context"
	"fmt"

	"github.com/qdispatch/qdispatch/models"
	"github.com/qdispatch/qdispatch/quality"
)

var telegramEmoji = map[string]string{
	"info":    "ℹ️",
	"success": "✅",
	"warning": "⚠️",
	"error":   "❌",
}

// TelegramSink posts to a preconfigured Telegram bot sendMessage URL
// (bot token and chat id are baked into WebhookURL).
type TelegramSink struct {
	WebhookURL string
}

func (s *TelegramSink) Notify(ctx context.Context, req models.SubmitRequest, decision models.SubmitDecision) error {
	level := levelFor(decision)
	text := fmt.Sprintf("%s *%s*\n\n%s", telegramEmoji[level], titleFor(decision), bodyFor(req, decision))
	payload := map[string]interface{}{
		"text":       text,
		"parse_mode": "Markdown",
	}
	return postJSON(ctx, s.WebhookURL, payload)
}

func (s *TelegramSink) NotifyQuality(ctx context.Context, req models.SubmitRequest, suggestion quality.Suggestion) error {
	text := fmt.Sprintf("%s *%s*\n\n%s", telegramEmoji["info"], qualityTitle, qualityBodyFor(req, suggestion))
	payload := map[string]interface{}{
		"text":       text,
		"parse_mode": "Markdown",
	}
	return postJSON(ctx, s.WebhookURL, payload)
}
