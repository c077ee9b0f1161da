package commands

// Optional sinks shared by both commands: browser and Telegram

import (
	"fmt"
	"time"

	"vizboard/internal/infra/exec"
	logging "vizboard/internal/infra/log"
	"vizboard/internal/infra/telegram"

	"go.uber.org/zap"
)

const openTimeout = 10 * time.Second

type attachment struct {
	path      string
	caption   string
	animation bool
}

func publish(pagePath string, files []attachment) error {
	if cfg.Output.Open {
		// A missing opener is not fatal, the page is already on disk
		if out, err := exec.OpenInBrowser(pagePath, openTimeout); err != nil {
			logging.LogWarn("Failed to open page",
				zap.String("page", pagePath),
				zap.ByteString("output", out),
				zap.Error(err))
		}
	}

	if !cfg.Telegram.Enabled {
		logging.LogInfo("Page ready", zap.String("page", pagePath))
		return nil
	}

	publisher, err := telegram.NewPublisher(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Endpoint, nil)
	if err != nil {
		logging.LogError("Failed to initialize Telegram bot", zap.Error(err))
		return fmt.Errorf("telegram: %w", err)
	}
	for _, f := range files {
		send := publisher.SendPhoto
		if f.animation {
			send = publisher.SendAnimation
		}
		if err := send(f.path, telegram.BoldCaption(f.caption)); err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
	}
	if err := publisher.SendDocument(pagePath, ""); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	logging.LogSuccess("Charts sent to Telegram", zap.Int("files", len(files)+1))
	return nil
}
