// Package telegram delivers alert batches through the Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/apexscan/apex-scanner/internal/service/notification"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	sendTimeout    = 10 * time.Second

	// Telegram rejects messages above 4096 chars; chunk a bit below.
	maxMessageLen = 4000
)

var _ notification.Notifier = (*Service)(nil)

// Service holds the bot credentials behind a mutex: they can be
// swapped at runtime through the /monitor/config endpoint.
type Service struct {
	mu     sync.RWMutex
	token  string
	chatID string

	cli     *http.Client
	baseURL string
}

type Option func(svc *Service)

func WithBaseURL(baseURL string) Option {
	return func(svc *Service) {
		svc.baseURL = baseURL
	}
}

func NewService(token, chatID string, opts ...Option) *Service {
	svc := &Service{
		token:   token,
		chatID:  chatID,
		cli:     &http.Client{Timeout: sendTimeout},
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// SetCredentials swaps the bot token and chat target for the rest of
// the process lifetime.
func (svc *Service) SetCredentials(token, chatID string) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.token = token
	svc.chatID = chatID
}

func (svc *Service) Configured() bool {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.token != "" && svc.chatID != ""
}

func (svc *Service) credentials() (string, string) {
	svc.mu.RLock()
	defer svc.mu.RUnlock()
	return svc.token, svc.chatID
}

type sendMessageReq struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Send posts one HTML message. Any failure is logged and reported as
// false; nothing propagates.
func (svc *Service) Send(ctx context.Context, text string) bool {
	token, chatID := svc.credentials()
	if token == "" || chatID == "" {
		slog.Warn("telegram not configured, skipping notification")
		return false
	}

	payload, err := json.Marshal(sendMessageReq{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		slog.Error("telegram payload marshal failed", "error", err)
		return false
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", svc.baseURL, token)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		slog.Error("telegram request build failed", "error", err)
		return false
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := svc.cli.Do(httpReq)
	if err != nil {
		slog.Error("telegram send failed", "error", err)
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		slog.Error("telegram rejected message", "status", resp.StatusCode, "body", string(body))
		return false
	}
	return true
}

// SendChunked splits long text (LLM reports) into api-sized messages
// and reports whether every chunk was delivered.
func (svc *Service) SendChunked(ctx context.Context, text string) bool {
	ok := true
	for _, chunk := range splitChunks(text, maxMessageLen) {
		if !svc.Send(ctx, chunk) {
			ok = false
		}
	}
	return ok
}

func splitChunks(text string, size int) []string {
	var chunks []string
	runes := []rune(text)
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return append(chunks, string(runes))
}
