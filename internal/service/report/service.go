// Package report turns scan output into a desk-style technical
// research memo via the LLM service and pushes it to Telegram.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/apexscan/apex-scanner/internal/service/llm"
)

const promptTemplate = `You are a senior quantitative trader who combines technical analysis with statistical models to time entries and exits.

I have scanned %d crypto/stock assets on the %s timeframe and ranked them by signal strength. Here is the full data:

%s

Provide a comprehensive technical analysis report covering:

1. MARKET OVERVIEW — Overall market condition based on this scan. What does the breadth of signals tell us?

2. TIER 1 — TOP CONVICTION (top 5 assets)
For each: trend direction, key levels, entry zone, stop-loss, profit target, risk-reward ratio, confidence rating (Strong Buy / Buy / Neutral / Sell / Strong Sell)

3. TIER 2 — WATCHLIST (next 10 assets)
Brief technical setup for each — one line per asset with the key signal and what to watch

4. SECTOR/THEME PATTERNS — Are there recurring patterns? (e.g. DeFi tokens all showing oversold, L2s showing momentum)

5. RISK FACTORS — What could invalidate these setups? Key macro or on-chain risks to monitor

6. EXECUTION SUMMARY — Prioritized action plan: what to act on now vs. what to monitor

Format as a professional quantitative research memo. Be direct and specific. Use actual numbers from the data.`

// ChunkedNotifier delivers oversized text as a chunk series.
type ChunkedNotifier interface {
	SendChunked(ctx context.Context, text string) bool
}

type Req struct {
	// CoinsData is the ranked scan output, already rendered as text.
	CoinsData string
	Count     int
	Timeframe string
}

type Service struct {
	llmSvc   llm.Service
	notifier ChunkedNotifier
}

func NewService(llmSvc llm.Service, notifier ChunkedNotifier) *Service {
	return &Service{
		llmSvc:   llmSvc,
		notifier: notifier,
	}
}

// Generate asks the LLM for the memo and forwards it to the notifier.
// Delivery failure does not fail the request: the report is still
// returned to the caller.
func (s *Service) Generate(ctx context.Context, req Req) (string, error) {
	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = "N/A"
	}

	answer, err := s.llmSvc.AskOnce(ctx, llm.Question{
		Content: fmt.Sprintf(promptTemplate, req.Count, timeframe, req.CoinsData),
	})
	if err != nil {
		return "", fmt.Errorf("report generation failed: %w", err)
	}

	header := fmt.Sprintf("⚔ <b>SCAN REPORT — TOP %d ASSETS (%s)</b>\n%s\n\n",
		req.Count, timeframe, time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	if !s.notifier.SendChunked(ctx, header+answer.Content) {
		slog.Error("report delivery failed", "count", req.Count, "timeframe", timeframe)
	}
	return answer.Content, nil
}
