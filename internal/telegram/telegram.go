package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/pfrederiksen/event-scout/internal/event"
	"github.com/pfrederiksen/event-scout/internal/logger"
)

const (
	apiBaseURL = "https://api.telegram.org"
	timeout    = 10 * time.Second
)

// Client represents a Telegram Bot API client
type Client struct {
	botToken string
	chatID   string
	http     *resty.Client
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	return &Client{
		botToken: botToken,
		chatID:   chatID,
		http: resty.New().
			SetBaseURL(apiBaseURL).
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}, nil
}

// NewClientFromEnv creates a client from TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID
func NewClientFromEnv() (*Client, error) {
	return NewClient(os.Getenv("TELEGRAM_BOT_TOKEN"), os.Getenv("TELEGRAM_CHAT_ID"))
}

// SetBaseURL points the client at a different API host
func (c *Client) SetBaseURL(u string) {
	c.http.SetBaseURL(u)
}

// SendMessage sends a text message to the configured chat
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	var result apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("token", c.botToken).
		SetBody(sendMessageRequest{
			ChatID:                c.chatID,
			Text:                  text,
			ParseMode:             "HTML",
			DisableWebPagePreview: true,
		}).
		SetResult(&result).
		SetError(&result).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode() != 200 {
		if result.Description != "" {
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode(), result.Description)
		}
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode(), resp.String())
	}

	if !result.OK {
		return errors.New("telegram API error: " + result.Description)
	}

	return nil
}

// Notify sends the events as a digest, one message per chunk
func (c *Client) Notify(ctx context.Context, events []event.CategorizedCandidate) error {
	messages := SplitMessage(FormatDigest(events), MaxMessageLength)
	for i, msg := range messages {
		if err := c.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("sending digest part %d/%d: %w", i+1, len(messages), err)
		}
	}
	logger.Info("Sent Telegram digest", logger.Fields{
		"events":   len(events),
		"messages": len(messages),
	})
	return nil
}
