// Package notify sends operational notifications via the Telegram Bot API.
package notify

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"solana-pool-sniper/internal/domain"
)

// Notifier sends a message to the operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop is a Notifier that discards messages. Used when Telegram is not
// configured.
type Nop struct{}

// Notify discards the message.
func (Nop) Notify(context.Context, string) error { return nil }

// Telegram sends HTML-formatted messages to one chat.
type Telegram struct {
	baseURL string
	token   string
	chatID  string
	client  *http.Client
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		baseURL: "https://api.telegram.org",
		token:   token,
		chatID:  chatID,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Notify sends text as an HTML message.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// SnipeMessage formats a snipe record for notification.
func SnipeMessage(record domain.SnipeRecord) string {
	mode := "LIVE"
	if record.DryRun {
		mode = "DRY RUN"
	}
	return fmt.Sprintf(
		"<b>Snipe executed (%s)</b>\n"+
			"Token: %s (%s)\nMint: <code>%s</code>\n"+
			"Spent: %.4f SOL\nReceived: %d\nPrice: $%g\nTx: <code>%s</code>",
		mode,
		html.EscapeString(record.Name),
		html.EscapeString(record.Symbol),
		record.Mint,
		float64(record.SpentLamports)/1e9,
		record.TokensReceived,
		record.PriceUSD,
		record.TxSignature,
	)
}

// ErrorMessage formats a pipeline error for notification.
func ErrorMessage(stage string, err error) string {
	return fmt.Sprintf("<b>Sniper error</b>\nStage: %s\n<code>%s</code>",
		html.EscapeString(stage), html.EscapeString(err.Error()))
}
