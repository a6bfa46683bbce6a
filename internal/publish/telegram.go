package publish

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"digesttracker/internal/model"
)

// TelegramPublisher posts digests to a channel. Credentials live in the
// blog config, so one process can serve several channels.
//
// Blog config keys: token (bot token), chat_id (channel ID, numeric or
// string).
type TelegramPublisher struct{}

func NewTelegramPublisher() *TelegramPublisher {
	return &TelegramPublisher{}
}

func (p *TelegramPublisher) Publish(_ context.Context, req Request) (string, error) {
	token := req.Config.String("token")
	if token == "" {
		return "", errors.New("telegram blog config missing token")
	}

	chatID, err := telegramChatID(req.Config)
	if err != nil {
		return "", err
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return "", fmt.Errorf("telegram login: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, escapeForMarkdown(req.Content))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	sent, err := bot.Send(msg)
	if err != nil {
		return "", fmt.Errorf("send digest: %w", err)
	}

	return channelLink(chatID, sent.MessageID), nil
}

func telegramChatID(config model.Metadata) (int64, error) {
	switch v := config["chat_id"].(type) {
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("telegram chat_id %q: %w", v, err)
		}
		return id, nil
	case float64: // JSON numbers decode as float64
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	}
	return 0, errors.New("telegram blog config missing chat_id")
}

// channelLink builds the t.me reference for a channel message; channel
// links drop the -100 chat ID prefix.
func channelLink(chatID int64, messageID int) string {
	id := strings.TrimPrefix(strconv.FormatInt(chatID, 10), "-100")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

// escapeForMarkdown escapes the MarkdownV2 control characters, leaving *
// and ` alone so the digest's own emphasis still renders.
func escapeForMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(text)
}
