package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Telegram delivers briefings over the Telegram Bot API. Delivery is a
// single attempt; a failed send is reported to the caller, never retried.
type Telegram struct {
	apiURL string
	client *http.Client
}

// NewTelegram creates a Telegram sink for the given bot token.
func NewTelegram(botToken string) *Telegram {
	return &Telegram{
		apiURL: fmt.Sprintf("https://api.telegram.org/bot%s", botToken),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	ChatID                int64  `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendBriefing sends one Markdown-formatted briefing to a chat.
func (t *Telegram) SendBriefing(ctx context.Context, chatID int64, text string) error {
	return t.sendMessage(ctx, sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
}

func (t *Telegram) sendMessage(ctx context.Context, msg sendMessageRequest) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message to chat %d: %w", msg.ChatID, err)
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode telegram response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, result.Description)
	}

	log.Printf("✅ Message sent to chat %d", msg.ChatID)
	return nil
}
