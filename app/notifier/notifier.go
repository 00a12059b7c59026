// Package notifier delivers published posts to the channel.
package notifier

import (
	"context"
	"strings"

	"mangapost/app/models"
)

// Notifier defines the interface for channel delivery implementations.
//
//go:generate mockgen -source=notifier.go -destination=../services/notifier_mock_test.go -package=services
type Notifier interface {
	// Publish sends the post's cover image with the given caption.
	Publish(ctx context.Context, post *models.Post, caption string) (Receipt, error)
}

// Receipt describes a delivered message.
type Receipt struct {
	MessageID  int64  `json:"messageId,omitempty"`
	ChannelURL string `json:"channelUrl,omitempty"`
}

// ChannelURL returns the public t.me link for a channel username such as
// "@hi0anime". Numeric chat ids have no public link.
func ChannelURL(channelID string) string {
	name := strings.TrimPrefix(channelID, "@")
	if name == "" || name == channelID {
		return ""
	}
	return "https://t.me/" + name
}
