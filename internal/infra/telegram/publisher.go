// Package telegram delivers rendered charts to a chat.
package telegram

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"strconv"
	"strings"

	"vizboard/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// BoldCaption formats a title for HTML parse mode
func BoldCaption(title string) string {
	return "<b>" + html.EscapeString(title) + "</b>"
}

// Publisher sends files to one chat
type Publisher struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewPublisher authenticates the bot. endpoint is the Bot API format string
// (tgbotapi.APIEndpoint when empty); client may be nil.
func NewPublisher(token, chatID, endpoint string, client *http.Client) (*Publisher, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.LogInfo("Telegram bot initialized", zap.String("username", bot.Self.UserName))
	return &Publisher{bot: bot, chatID: id}, nil
}

// SendPhoto uploads a PNG with an HTML caption
func (p *Publisher) SendPhoto(path, caption string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(p.chatID, tgbotapi.FilePath(path))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML

	if _, err := p.bot.Send(photo); err != nil {
		log.LogError("Failed to send chart", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("send photo %s: %w", path, err)
	}
	log.LogInfo("Chart sent", zap.String("path", path), zap.Int64("chatID", p.chatID))
	return nil
}

// SendAnimation uploads a GIF
func (p *Publisher) SendAnimation(path, caption string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	anim := tgbotapi.NewAnimation(p.chatID, tgbotapi.FilePath(path))
	anim.Caption = caption
	anim.ParseMode = tgbotapi.ModeHTML

	if _, err := p.bot.Send(anim); err != nil {
		log.LogError("Failed to send animation", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("send animation %s: %w", path, err)
	}
	log.LogInfo("Animation sent", zap.String("path", path), zap.Int64("chatID", p.chatID))
	return nil
}

// SendDocument uploads any other file, such as the HTML page
func (p *Publisher) SendDocument(path, caption string) error {
	if err := checkFile(path); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(p.chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	doc.ParseMode = tgbotapi.ModeHTML

	if _, err := p.bot.Send(doc); err != nil {
		log.LogError("Failed to send document", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("send document %s: %w", path, err)
	}
	return nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("chart file does not exist: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("chart file %s is empty", path)
	}
	return nil
}
