package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexscan/apex-scanner/internal/entity"
	"github.com/apexscan/apex-scanner/internal/service/equity"
	"github.com/apexscan/apex-scanner/internal/service/exchange"
	"github.com/apexscan/apex-scanner/internal/service/exchange/fallback"
	"github.com/apexscan/apex-scanner/internal/service/monitor"
	"github.com/apexscan/apex-scanner/internal/service/report"
	"github.com/apexscan/apex-scanner/internal/service/strategy"
)

type fakeTelegram struct {
	token, chatID string
	sent          []string
	deliver       bool
}

func (f *fakeTelegram) SetCredentials(token, chatID string) {
	f.token, f.chatID = token, chatID
}

func (f *fakeTelegram) Configured() bool { return f.token != "" }

func (f *fakeTelegram) Send(_ context.Context, text string) bool {
	f.sent = append(f.sent, text)
	return f.deliver
}

type fakeConstituents struct {
	russell []string
	sp500   []string
	cached  bool
	err     error
}

func (f *fakeConstituents) Russell2000(context.Context) ([]string, bool, error) {
	return f.russell, f.cached, f.err
}

func (f *fakeConstituents) SP500(context.Context) ([]string, error) {
	return f.sp500, f.err
}

type fakeReports struct {
	req    report.Req
	result string
	err    error
}

func (f *fakeReports) Generate(_ context.Context, req report.Req) (string, error) {
	f.req = req
	return f.result, f.err
}

type fakeMarket struct {
	name   string
	klines []exchange.Kline
	err    error
}

func (f *fakeMarket) GetKlines(context.Context, exchange.GetKlinesReq) ([]exchange.Kline, error) {
	return f.klines, f.err
}

func (f *fakeMarket) Name() string { return f.name }

func sampleKlines(n int) []exchange.Kline {
	out := make([]exchange.Kline, 0, n)
	start := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out = append(out, exchange.Kline{
			OpenTime: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:     decimal.NewFromInt(100),
			High:     decimal.NewFromInt(105),
			Low:      decimal.NewFromInt(95),
			Close:    decimal.NewFromInt(102),
			Volume:   decimal.NewFromInt(1000),
		})
	}
	return out
}

func newTestServer(t *testing.T, tg *fakeTelegram, cons ConstituentService, reports ReportService) *Server {
	t.Helper()

	market := &fakeMarket{name: "Fake", klines: sampleKlines(30)}
	crypto := fallback.NewResolver([]exchange.MarketService{market})
	universe := monitor.NewUniverse(nil)
	cooldown := monitor.NewCooldownTracker(2 * time.Hour)
	scanner := monitor.NewScanner(universe, crypto, strategy.NewSpikeDetector(1.8), tg, cooldown, nil)

	return NewServer(
		Config{ScanInterval: time.Hour, CooldownWindow: 2 * time.Hour, SpikeThreshold: 1.8},
		scanner, universe, cooldown, tg, crypto,
		equity.NewService(market, &fakeMarket{name: "Backup", err: errors.New("down")}),
		cons, reports, nil,
	)
}

func doJSON(t *testing.T, handler http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeTelegram{}, &fakeConstituents{}, &fakeReports{})
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestStatusReportsConfig(t *testing.T) {
	tg := &fakeTelegram{token: "tok"}
	srv := newTestServer(t, tg, &fakeConstituents{}, &fakeReports{})
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/monitor/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, float64(60), body["scan_interval_minutes"])
	assert.Equal(t, float64(2), body["alert_cooldown_hours"])
	assert.Equal(t, 1.8, body["spike_threshold"])
	assert.True(t, body["telegram_configured"].(bool))
	assert.Greater(t, body["coins_monitored"].(float64), float64(100))
}

type fakeAlertRepo struct {
	alerts []entity.Alert
}

func (f *fakeAlertRepo) Create(_ context.Context, alert entity.Alert) (int64, error) {
	f.alerts = append(f.alerts, alert)
	return int64(len(f.alerts)), nil
}

func (f *fakeAlertRepo) FindSince(context.Context, time.Time) ([]entity.Alert, error) {
	return f.alerts, nil
}

func (f *fakeAlertRepo) CountSince(context.Context, time.Time) (int64, error) {
	return int64(len(f.alerts)), nil
}

func TestStatusIncludesAlertHistory(t *testing.T) {
	alerts := &fakeAlertRepo{alerts: []entity.Alert{{
		Symbol:      "BTC",
		VolumeRatio: 2.4,
		Price:       "61250.5",
		Source:      "KuCoin",
		Delivered:   true,
		CreatedAt:   time.Date(2025, 8, 30, 18, 0, 0, 0, time.UTC),
	}}}
	srv := newTestServer(t, &fakeTelegram{}, &fakeConstituents{}, &fakeReports{})
	srv.alerts = alerts

	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/monitor/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["alerts_last_24h"])

	recent := body["recent_alerts"].([]any)
	require.Len(t, recent, 1)
	first := recent[0].(map[string]any)
	assert.Equal(t, "BTC", first["symbol"])
	assert.Equal(t, 2.4, first["volume_ratio"])
	assert.True(t, first["delivered"].(bool))
}

func TestConfigUpdatesCredentials(t *testing.T) {
	tg := &fakeTelegram{}
	srv := newTestServer(t, tg, &fakeConstituents{}, &fakeReports{})

	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/monitor/config", `{"telegram_token":"t","chat_id":"c"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t", tg.token)
	assert.Equal(t, "c", tg.chatID)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/monitor/config", `{"telegram_token":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "required")
}

func TestTestEndpointRequiresConfig(t *testing.T) {
	srv := newTestServer(t, &fakeTelegram{}, &fakeConstituents{}, &fakeReports{})
	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/monitor/test", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tg := &fakeTelegram{token: "tok", deliver: true}
	srv = newTestServer(t, tg, &fakeConstituents{}, &fakeReports{})
	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/monitor/test", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, body["delivered"].(bool))
	assert.Len(t, tg.sent, 1)
}

func TestPairsListsUniverse(t *testing.T) {
	srv := newTestServer(t, &fakeTelegram{}, &fakeConstituents{}, &fakeReports{})
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/binance-pairs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Greater(t, body["count"].(float64), float64(100))
}

func TestCryptoBatch(t *testing.T) {
	srv := newTestServer(t, &fakeTelegram{}, &fakeConstituents{}, &fakeReports{})

	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/crypto?symbols=btc,%20eth&interval=4h", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4h", body["interval"])
	assert.Equal(t, float64(2), body["count"])

	data := body["data"].(map[string]any)
	btc := data["BTC"].(map[string]any)
	assert.Equal(t, "Fake", btc["source"])
	assert.Len(t, btc["candles"].([]any), 30)

	rec, body = doJSON(t, srv.Handler(), http.MethodGet, "/crypto", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "symbols")
}

func TestStocksBatch(t *testing.T) {
	srv := newTestServer(t, &fakeTelegram{}, &fakeConstituents{}, &fakeReports{})
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/stocks?tickers=AAPL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
}

func TestRussell2000Endpoint(t *testing.T) {
	cons := &fakeConstituents{russell: []string{"AAPL", "MSFT"}, cached: true}
	srv := newTestServer(t, &fakeTelegram{}, cons, &fakeReports{})
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/russell2000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
	assert.True(t, body["cached"].(bool))
}

func TestSP500EndpointError(t *testing.T) {
	cons := &fakeConstituents{err: errors.New("upstream down")}
	srv := newTestServer(t, &fakeTelegram{}, cons, &fakeReports{})
	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/sp500", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body["error"], "upstream down")
}

func TestReportEndpoint(t *testing.T) {
	reports := &fakeReports{result: "memo text"}
	srv := newTestServer(t, &fakeTelegram{}, &fakeConstituents{}, reports)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/report",
		`{"coins_data":"BTC 2.1x","count":5,"timeframe":"1d"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memo text", body["report"])
	assert.Equal(t, "BTC 2.1x", reports.req.CoinsData)
	assert.Equal(t, 5, reports.req.Count)

	rec, body = doJSON(t, srv.Handler(), http.MethodPost, "/report", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "coins_data")
}
