package notifier

import (
	"context"
	"log/slog"

	"mangapost/app/models"
)

// LogProvider logs posts instead of sending them.
type LogProvider struct {
	channelID string
	logger    *slog.Logger
}

// NewLogProvider creates a notifier for local development.
func NewLogProvider(channelID string, logger *slog.Logger) *LogProvider {
	return &LogProvider{
		channelID: channelID,
		logger:    logger,
	}
}

// Publish logs the post and returns the channel link.
func (l *LogProvider) Publish(ctx context.Context, post *models.Post, caption string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	l.logger.InfoContext(ctx, "MOCK TELEGRAM POST",
		"channel", l.channelID,
		"post_id", post.ID,
		"title", post.Title,
		"dest_url", post.DestinationURL,
		"caption_length", len(caption))
	return Receipt{ChannelURL: ChannelURL(l.channelID)}, nil
}
