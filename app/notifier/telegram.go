package notifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"mangapost/app/models"
)

// ErrTelegram is returned for any failed Bot API call.
var ErrTelegram = errors.New("telegram api error")

const (
	DefaultAPIURL     = "https://api.telegram.org"
	DefaultButtonText = "📖 READ ONLINE (FREE)"
	DefaultTimeout    = 30 * time.Second
)

// TelegramConfig holds the Bot API settings.
type TelegramConfig struct {
	APIURL     string
	Token      string
	ChannelID  string
	ButtonText string
	Timeout    time.Duration
}

// TelegramProvider posts photos to a channel via the Telegram Bot API.
type TelegramProvider struct {
	bot        *bot.Bot
	token      string
	channelID  string
	buttonText string
	logger     *slog.Logger
}

// NewTelegramProvider creates a new Telegram notifier. No request is made until Publish.
func NewTelegramProvider(cfg TelegramConfig, logger *slog.Logger) (*TelegramProvider, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.ButtonText == "" {
		cfg.ButtonText = DefaultButtonText
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	b, err := bot.New(cfg.Token,
		bot.WithSkipGetMe(),
		bot.WithServerURL(strings.TrimRight(cfg.APIURL, "/")),
		bot.WithHTTPClient(cfg.Timeout, &http.Client{Timeout: cfg.Timeout}),
		bot.WithErrorsHandler(func(err error) {
			logger.Warn("Telegram client error", "error", redact(err.Error(), cfg.Token))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTelegram, err)
	}

	return &TelegramProvider{
		bot:        b,
		token:      cfg.Token,
		channelID:  cfg.ChannelID,
		buttonText: cfg.ButtonText,
		logger:     logger,
	}, nil
}

// Publish sends the cover image with caption and a single "read" button.
func (t *TelegramProvider) Publish(ctx context.Context, post *models.Post, caption string) (Receipt, error) {
	photo, err := inputPhoto(post.CoverImage)
	if err != nil {
		return Receipt{}, err
	}

	params := &bot.SendPhotoParams{
		ChatID:    t.channelID,
		Photo:     photo,
		Caption:   caption,
		ParseMode: tgmodels.ParseModeHTML,
		ReplyMarkup: &tgmodels.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgmodels.InlineKeyboardButton{
				{{Text: t.buttonText, URL: post.DestinationURL}},
			},
		},
	}

	t.logger.InfoContext(ctx, "Telegram API request starting",
		"endpoint", "sendPhoto",
		"chat_id", t.channelID,
		"post_id", post.ID,
		"upload", models.IsDataImage(post.CoverImage))

	startTime := time.Now()
	msg, err := t.bot.SendPhoto(ctx, params)
	duration := time.Since(startTime)
	if err != nil {
		reason := redact(err.Error(), t.token)
		t.logger.WarnContext(ctx, "Telegram API request failed",
			"chat_id", t.channelID,
			"duration_ms", duration.Milliseconds(),
			"error", reason)
		return Receipt{}, fmt.Errorf("%w: %s", ErrTelegram, reason)
	}

	t.logger.InfoContext(ctx, "Telegram API request completed",
		"endpoint", "sendPhoto",
		"chat_id", t.channelID,
		"message_id", msg.ID,
		"duration_ms", duration.Milliseconds(),
		"status", "success")

	return Receipt{
		MessageID:  int64(msg.ID),
		ChannelURL: ChannelURL(t.channelID),
	}, nil
}

// inputPhoto uploads data: images and passes URLs through for Telegram to fetch.
func inputPhoto(cover string) (tgmodels.InputFile, error) {
	if !models.IsDataImage(cover) {
		return &tgmodels.InputFileString{Data: cover}, nil
	}
	mimeType, image, err := decodeDataImage(cover)
	if err != nil {
		return nil, err
	}
	return &tgmodels.InputFileUpload{
		Filename: "cover." + extension(mimeType),
		Data:     bytes.NewReader(image),
	}, nil
}

// decodeDataImage splits "data:image/png;base64,...." into its mime type and bytes.
func decodeDataImage(s string) (string, []byte, error) {
	header, payload, ok := strings.Cut(s, ",")
	if !ok || !models.IsDataImage(s) {
		return "", nil, fmt.Errorf("invalid data image")
	}
	mimeType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	image, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data image: %w", err)
	}
	return mimeType, image, nil
}

func extension(mimeType string) string {
	ext := strings.TrimPrefix(mimeType, "image/")
	switch ext {
	case "jpeg", "":
		return "jpg"
	case "svg+xml":
		return "svg"
	}
	return ext
}

// redact hides the bot token, which appears in request URLs.
func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}
