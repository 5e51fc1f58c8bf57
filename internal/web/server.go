// Package web exposes the scanner over a small JSON HTTP surface:
// health, monitor control, raw candle lookups and index membership.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/apexscan/apex-scanner/internal/entity"
	"github.com/apexscan/apex-scanner/internal/repo"
	"github.com/apexscan/apex-scanner/internal/service/equity"
	"github.com/apexscan/apex-scanner/internal/service/exchange"
	"github.com/apexscan/apex-scanner/internal/service/exchange/fallback"
	"github.com/apexscan/apex-scanner/internal/service/monitor"
	"github.com/apexscan/apex-scanner/internal/service/report"
)

const (
	maxBatchSymbols = 50
	defaultLimit    = 30
)

// TelegramController is the slice of the Telegram service the HTTP
// surface needs: runtime credential updates and a test send.
type TelegramController interface {
	SetCredentials(token, chatID string)
	Configured() bool
	Send(ctx context.Context, text string) bool
}

// ConstituentService lists index memberships.
type ConstituentService interface {
	Russell2000(ctx context.Context) ([]string, bool, error)
	SP500(ctx context.Context) ([]string, error)
}

// ReportService turns ranked scan output into an analyst memo.
type ReportService interface {
	Generate(ctx context.Context, req report.Req) (string, error)
}

// Config carries the monitor settings the status endpoint reports.
type Config struct {
	ScanInterval   time.Duration
	CooldownWindow time.Duration
	SpikeThreshold float64
}

type Server struct {
	cfg Config

	scanner      *monitor.Scanner
	universe     *monitor.Universe
	cooldown     *monitor.CooldownTracker
	telegram     TelegramController
	crypto       *fallback.Resolver
	equities     *equity.Service
	constituents ConstituentService
	reports      ReportService
	alerts       repo.AlertRepo
}

func NewServer(cfg Config, scanner *monitor.Scanner, universe *monitor.Universe, cooldown *monitor.CooldownTracker,
	telegram TelegramController, crypto *fallback.Resolver, equities *equity.Service,
	constituents ConstituentService, reports ReportService, alerts repo.AlertRepo) *Server {
	return &Server{
		cfg:          cfg,
		scanner:      scanner,
		universe:     universe,
		cooldown:     cooldown,
		telegram:     telegram,
		crypto:       crypto,
		equities:     equities,
		constituents: constituents,
		reports:      reports,
		alerts:       alerts,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /monitor/status", s.handleStatus)
	mux.HandleFunc("POST /monitor/config", s.handleConfig)
	mux.HandleFunc("POST /monitor/test", s.handleTest)
	mux.HandleFunc("POST /monitor/scan-now", s.handleScanNow)
	mux.HandleFunc("GET /binance-pairs", s.handlePairs)
	mux.HandleFunc("GET /crypto", s.handleCrypto)
	mux.HandleFunc("GET /stocks", s.handleStocks)
	mux.HandleFunc("GET /russell2000", s.handleRussell2000)
	mux.HandleFunc("GET /sp500", s.handleSP500)
	mux.HandleFunc("POST /report", s.handleReport)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	body := map[string]any{
		"running":               true,
		"scan_interval_minutes": int(s.cfg.ScanInterval.Minutes()),
		"alert_cooldown_hours":  s.cfg.CooldownWindow.Hours(),
		"spike_threshold":       s.cfg.SpikeThreshold,
		"coins_monitored":       s.universe.Size(),
		"symbols_on_cooldown":   s.cooldown.ActiveCount(now),
		"telegram_configured":   s.telegram.Configured(),
	}
	if s.alerts != nil {
		since := now.Add(-24 * time.Hour)
		if count, err := s.alerts.CountSince(r.Context(), since); err == nil {
			body["alerts_last_24h"] = count
		}
		if recent, err := s.alerts.FindSince(r.Context(), since); err == nil {
			body["recent_alerts"] = lo.Map(recent, func(a entity.Alert, _ int) map[string]any {
				return map[string]any{
					"symbol":       a.Symbol,
					"volume_ratio": a.VolumeRatio,
					"price":        a.Price,
					"source":       a.Source,
					"delivered":    a.Delivered,
					"time":         a.CreatedAt.UTC().Format(time.RFC3339),
				}
			})
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TelegramToken string `json:"telegram_token"`
		ChatID        string `json:"chat_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TelegramToken == "" || req.ChatID == "" {
		writeError(w, http.StatusBadRequest, "telegram_token and chat_id are required")
		return
	}
	s.telegram.SetCredentials(req.TelegramToken, req.ChatID)
	writeJSON(w, http.StatusOK, map[string]any{"configured": true})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	if !s.telegram.Configured() {
		writeError(w, http.StatusBadRequest, "telegram not configured")
		return
	}
	ok := s.telegram.Send(r.Context(), "✅ <b>APEX SCANNER</b> test message")
	writeJSON(w, http.StatusOK, map[string]any{"delivered": ok})
}

func (s *Server) handleScanNow(w http.ResponseWriter, r *http.Request) {
	// The sweep can take minutes; run it detached from the request.
	go func() {
		if err := s.scanner.Scan(context.Background()); err != nil {
			slog.Error("manual scan failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]any{"started": true})
}

func (s *Server) handlePairs(w http.ResponseWriter, r *http.Request) {
	symbols := s.universe.Symbols()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(symbols),
		"symbols": symbols,
	})
}

func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	bases, ok := parseSymbolList(w, r, "symbols")
	if !ok {
		return
	}
	symbols := lo.Map(bases, func(base string, _ int) exchange.Symbol {
		return exchange.Symbol{Base: base, Quote: "USDT"}
	})
	interval := exchange.ParseInterval(r.URL.Query().Get("interval"))
	results := s.crypto.ResolveBatch(r.Context(), symbols, interval, parseLimit(r), maxBatchSymbols)
	writeJSON(w, http.StatusOK, batchResponse(results, interval))
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	tickers, ok := parseSymbolList(w, r, "tickers")
	if !ok {
		return
	}
	interval := exchange.ParseInterval(r.URL.Query().Get("interval"))
	results := s.equities.FetchAll(r.Context(), tickers, interval)
	writeJSON(w, http.StatusOK, batchResponse(results, interval))
}

func (s *Server) handleRussell2000(w http.ResponseWriter, r *http.Request) {
	tickers, cached, err := s.constituents.Russell2000(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":   "Russell 2000",
		"count":   len(tickers),
		"cached":  cached,
		"tickers": tickers,
	})
}

func (s *Server) handleSP500(w http.ResponseWriter, r *http.Request) {
	tickers, err := s.constituents.SP500(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"index":   "S&P 500",
		"count":   len(tickers),
		"tickers": tickers,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report generation is not configured")
		return
	}
	var req struct {
		CoinsData string `json:"coins_data"`
		Count     int    `json:"count"`
		Timeframe string `json:"timeframe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.CoinsData == "" {
		writeError(w, http.StatusBadRequest, "coins_data is required")
		return
	}
	text, err := s.reports.Generate(r.Context(), report.Req{
		CoinsData: req.CoinsData,
		Count:     req.Count,
		Timeframe: req.Timeframe,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": text})
}

// parseSymbolList reads a comma-separated query parameter, trimming
// blanks and enforcing the batch cap. A false return means the error
// response was already written.
func parseSymbolList(w http.ResponseWriter, r *http.Request, param string) ([]string, bool) {
	raw := r.URL.Query().Get(param)
	parts := lo.FilterMap(strings.Split(raw, ","), func(p string, _ int) (string, bool) {
		p = strings.ToUpper(strings.TrimSpace(p))
		return p, p != ""
	})
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, param+" query parameter is required")
		return nil, false
	}
	if len(parts) > maxBatchSymbols {
		writeError(w, http.StatusBadRequest, "too many symbols requested")
		return nil, false
	}
	return lo.Uniq(parts), true
}

func parseLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 300 {
		return defaultLimit
	}
	return limit
}

type candlePayload struct {
	Time   string `json:"time"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

type seriesPayload struct {
	Source  string          `json:"source"`
	Candles []candlePayload `json:"candles"`
}

func batchResponse(results map[string]fallback.Result, interval exchange.Interval) map[string]any {
	data := make(map[string]seriesPayload, len(results))
	for base, res := range results {
		data[base] = seriesPayload{
			Source: res.Source,
			Candles: lo.Map(res.Klines, func(k exchange.Kline, _ int) candlePayload {
				return candlePayload{
					Time:   k.OpenTime.UTC().Format(time.RFC3339),
					Open:   k.Open.String(),
					High:   k.High.String(),
					Low:    k.Low.String(),
					Close:  k.Close.String(),
					Volume: k.Volume.String(),
				}
			}),
		}
	}
	return map[string]any{
		"interval": interval.ToString(),
		"count":    len(data),
		"data":     data,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
