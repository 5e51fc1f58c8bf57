package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/apexscan/apex-scanner/internal/repo"
	"github.com/apexscan/apex-scanner/internal/schedule"
	"github.com/apexscan/apex-scanner/internal/service/constituent"
	"github.com/apexscan/apex-scanner/internal/service/equity"
	"github.com/apexscan/apex-scanner/internal/service/exchange"
	"github.com/apexscan/apex-scanner/internal/service/exchange/binance"
	"github.com/apexscan/apex-scanner/internal/service/exchange/fallback"
	"github.com/apexscan/apex-scanner/internal/service/exchange/kucoin"
	"github.com/apexscan/apex-scanner/internal/service/exchange/okx"
	"github.com/apexscan/apex-scanner/internal/service/llm/gemini"
	"github.com/apexscan/apex-scanner/internal/service/monitor"
	"github.com/apexscan/apex-scanner/internal/service/notification/telegram"
	"github.com/apexscan/apex-scanner/internal/service/report"
	"github.com/apexscan/apex-scanner/internal/service/strategy"
	"github.com/apexscan/apex-scanner/internal/web"
	"github.com/apexscan/apex-scanner/ioc"
	"github.com/apexscan/apex-scanner/pkg/httpx"
)

func initViper() {
	// --config=./config/xxx.yaml
	file := pflag.String("config", "./config/config.yaml", "specify config file")
	pflag.Parse()

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("monitor.scan_interval", time.Hour)
	viper.SetDefault("monitor.refresh_interval", 24*time.Hour)
	viper.SetDefault("monitor.cooldown", 2*time.Hour)
	viper.SetDefault("monitor.spike_threshold", 1.8)
	viper.SetDefault("monitor.workers", 20)
	viper.SetDefault("monitor.top_n", 10)
	viper.SetDefault("monitor.interval", "1d")

	_ = viper.BindEnv("telegram.token", "TELEGRAM_BOT_TOKEN")
	_ = viper.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID")

	viper.SetConfigFile(*file)
	if err := viper.ReadInConfig(); err != nil {
		var notFound *os.PathError
		if !errors.As(err, &notFound) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		slog.Warn("config file not found, using defaults and environment", "file", *file)
	}
}

func initLogger() {
	level := slog.LevelInfo
	if viper.GetString("log.level") == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

func main() {
	_ = godotenv.Load()
	initViper()
	initLogger()

	db := ioc.InitDB()
	if err := repo.InitTables(db); err != nil {
		panic(err)
	}
	alertRepo := repo.NewAlertRepo(db)

	browserCli := httpx.NewBrowserClient()
	binanceCli := ioc.InitBinanceCli()
	futuresCli := ioc.InitBinanceFuturesCli()

	kucoinMarket := kucoin.NewMarketService(browserCli)
	okxMarket := okx.NewMarketService(browserCli)
	cryptoResolver := fallback.NewResolver([]exchange.MarketService{
		kucoinMarket,
		okxMarket,
		binance.NewMarketService(binanceCli),
		binance.NewFuturesMarketService(futuresCli),
	})

	universe := monitor.NewUniverse([]exchange.SymbolService{
		binance.NewSymbolService(binanceCli),
		kucoin.NewSymbolService(browserCli),
		okx.NewSymbolService(browserCli),
	})

	tg := telegram.NewService(viper.GetString("telegram.token"), viper.GetString("telegram.chat_id"))
	cooldown := monitor.NewCooldownTracker(viper.GetDuration("monitor.cooldown"))
	detector := strategy.NewSpikeDetector(viper.GetFloat64("monitor.spike_threshold"))

	scanner := monitor.NewScanner(universe, cryptoResolver, detector, tg, cooldown, alertRepo,
		monitor.WithWorkers(viper.GetInt("monitor.workers")),
		monitor.WithTopN(viper.GetInt("monitor.top_n")),
		monitor.WithInterval(exchange.ParseInterval(viper.GetString("monitor.interval"))),
	)

	equitySvc := equity.NewService(equity.NewYahooService(browserCli), equity.NewStooqService(browserCli))
	constituentSvc := constituent.NewService(browserCli)

	var reportSvc web.ReportService
	if geminiCli := ioc.InitGeminiCli(); geminiCli != nil {
		reportSvc = report.NewService(gemini.NewService(geminiCli), tg)
	} else {
		slog.Info("gemini not configured, report generation disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The refresh loop fires immediately, so the universe is seeded
	// before the delayed first sweep; a failed seed falls back to the
	// built-in list.
	go schedule.NewLoop(monitor.NewRefreshTask(universe), viper.GetDuration("monitor.refresh_interval")).Run(ctx)
	go schedule.NewLoop(monitor.NewScanTask(scanner), viper.GetDuration("monitor.scan_interval"),
		schedule.WithInitialDelay(10*time.Second)).Run(ctx)

	srv := web.NewServer(web.Config{
		ScanInterval:   viper.GetDuration("monitor.scan_interval"),
		CooldownWindow: viper.GetDuration("monitor.cooldown"),
		SpikeThreshold: viper.GetFloat64("monitor.spike_threshold"),
	}, scanner, universe, cooldown, tg, cryptoResolver, equitySvc, constituentSvc, reportSvc, alertRepo)

	httpSrv := &http.Server{
		Addr:    viper.GetString("server.addr"),
		Handler: srv.Handler(),
	}
	go func() {
		slog.Info("http server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}
