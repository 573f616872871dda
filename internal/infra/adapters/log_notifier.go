package adapters

import (
	"context"

	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
	zap "go.uber.org/zap"
)

// LogNotifier writes bot messages to the log. It is used when no bot is configured
// but pushMessageToBot should still succeed.
type LogNotifier struct{}

// Push logs msg
func (LogNotifier) Push(ctx context.Context, msg domain.BotMessage) error {
	logger.FromContext(ctx).Info("Bot message",
		zap.String("message", msg.Message),
		zap.String("suggestion_title", msg.SuggestionTitle),
		zap.Strings("suggestions", msg.Suggestions),
	)
	return nil
}
