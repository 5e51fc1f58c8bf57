package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apexscan/apex-scanner/internal/entity"
	"github.com/apexscan/apex-scanner/internal/repo"
	"github.com/apexscan/apex-scanner/internal/service/exchange"
	"github.com/apexscan/apex-scanner/internal/service/notification"
	"github.com/apexscan/apex-scanner/internal/service/strategy"
)

const (
	defaultWorkers    = 20
	defaultKlineLimit = 30
	defaultTopN       = 10

	quoteAsset = "USDT"
)

// Scanner sweeps the universe through the resolver → detector pipeline
// and batches positive signals to the notifier. A sweep never fails a
// symbol loudly: per-symbol errors are contained in their worker.
type Scanner struct {
	universe *Universe
	resolver CandleResolver
	detector *strategy.SpikeDetector
	notifier notification.Notifier
	cooldown *CooldownTracker
	alerts   repo.AlertRepo

	interval   exchange.Interval
	klineLimit int
	workers    int
	topN       int

	now func() time.Time
}

type ScannerOption func(s *Scanner)

func WithWorkers(n int) ScannerOption {
	return func(s *Scanner) {
		s.workers = n
	}
}

func WithTopN(n int) ScannerOption {
	return func(s *Scanner) {
		s.topN = n
	}
}

func WithInterval(interval exchange.Interval) ScannerOption {
	return func(s *Scanner) {
		s.interval = interval
	}
}

func WithClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) {
		s.now = now
	}
}

func NewScanner(universe *Universe, resolver CandleResolver, detector *strategy.SpikeDetector,
	notifier notification.Notifier, cooldown *CooldownTracker, alerts repo.AlertRepo, opts ...ScannerOption) *Scanner {
	s := &Scanner{
		universe:   universe,
		resolver:   resolver,
		detector:   detector,
		notifier:   notifier,
		cooldown:   cooldown,
		alerts:     alerts,
		interval:   exchange.Interval1d,
		klineLimit: defaultKlineLimit,
		workers:    defaultWorkers,
		topN:       defaultTopN,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs one full sweep: fetch, detect, notify, bookkeep.
func (s *Scanner) Scan(ctx context.Context) error {
	now := s.now()
	symbols := s.universe.Symbols()
	slog.Info("starting volume scan", "symbols", len(symbols))

	alerts := s.sweep(ctx, symbols, now)
	if len(alerts) == 0 {
		slog.Info("scan complete, no volume spikes detected")
		return nil
	}

	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].VolumeRatio.GreaterThan(alerts[j].VolumeRatio)
	})
	if len(alerts) > s.topN {
		alerts = alerts[:s.topN]
	}

	delivered := s.notifier.Send(ctx, FormatAlertBatch(alerts, now))
	if !delivered {
		// No cooldown on failed delivery: the next sweep gets another
		// shot at notifying instead of silently muting the symbol.
		slog.Error("alert delivery failed, cooldowns not recorded", "alerts", len(alerts))
	}

	for _, alert := range alerts {
		if delivered {
			s.cooldown.Record(alert.Symbol, now)
		}
		s.persist(ctx, alert, delivered, now)
	}
	slog.Info("scan complete", "alerts", len(alerts), "delivered", delivered)
	return nil
}

// sweep runs the per-symbol pipeline over a bounded worker pool.
func (s *Scanner) sweep(ctx context.Context, symbols []string, now time.Time) []Alert {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, s.workers)
		alerts []Alert
	)

	for _, base := range symbols {
		if s.cooldown.ShouldSkip(base, now) {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(base string) {
			defer wg.Done()
			defer func() { <-sem }()

			alert, ok := s.checkSymbol(ctx, base)
			if !ok {
				return
			}
			mu.Lock()
			alerts = append(alerts, alert)
			mu.Unlock()
		}(base)
	}
	wg.Wait()
	return alerts
}

func (s *Scanner) checkSymbol(ctx context.Context, base string) (Alert, bool) {
	res, ok := s.resolver.Resolve(ctx, exchange.GetKlinesReq{
		Symbol:   exchange.Symbol{Base: base, Quote: quoteAsset},
		Interval: s.interval,
		Limit:    s.klineLimit,
	})
	if !ok {
		// All sources exhausted; the symbol just sits this sweep out.
		return Alert{}, false
	}

	signal, ok := s.detector.Detect(res.Klines)
	if !ok {
		return Alert{}, false
	}

	return Alert{
		Symbol:      base,
		VolumeRatio: signal.VolumeRatio,
		PctAboveLow: signal.PctAboveLow,
		Price:       res.Klines[len(res.Klines)-1].Close,
		Source:      res.Source,
	}, true
}

func (s *Scanner) persist(ctx context.Context, alert Alert, delivered bool, now time.Time) {
	if s.alerts == nil {
		return
	}
	_, err := s.alerts.Create(ctx, entity.Alert{
		Symbol:      alert.Symbol,
		VolumeRatio: alert.VolumeRatio.InexactFloat64(),
		PctAboveLow: alert.PctAboveLow.InexactFloat64(),
		Price:       alert.Price.String(),
		Source:      alert.Source,
		Delivered:   delivered,
		CreatedAt:   now,
	})
	if err != nil {
		slog.Error("failed to save alert", "symbol", alert.Symbol, "error", err)
	}
}

// FormatAlertBatch renders the Telegram HTML message for one sweep.
func FormatAlertBatch(alerts []Alert, now time.Time) string {
	var b strings.Builder
	b.WriteString("🚨 <b>APEX SCANNER — VOLUME SPIKE ALERT</b>\n")
	b.WriteString("⏰ " + now.UTC().Format("2006-01-02 15:04 UTC") + "\n")
	b.WriteString("✅ Filtered: price below 10-bar avg &amp; within 40% of 30d low\n\n")
	for _, a := range alerts {
		fmt.Fprintf(&b, "<b>%s</b>  %sx avg volume\n", a.Symbol, a.VolumeRatio)
		fmt.Fprintf(&b, "   Price: $%s  |  %s%% above 30d low  |  %s\n\n",
			a.Price.StringFixed(4), a.PctAboveLow, a.Source)
	}
	return strings.TrimRight(b.String(), "\n")
}
