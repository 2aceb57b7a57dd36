package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-pool-sniper/internal/config"
	"solana-pool-sniper/internal/executor"
	"solana-pool-sniper/internal/filter"
	"solana-pool-sniper/internal/jupiter"
	"solana-pool-sniper/internal/marketdata"
	"solana-pool-sniper/internal/monitor"
	"solana-pool-sniper/internal/notify"
	"solana-pool-sniper/internal/observability"
	"solana-pool-sniper/internal/portfolio"
	"solana-pool-sniper/internal/safety"
	"solana-pool-sniper/internal/sniper"
	"solana-pool-sniper/internal/solana"
	"solana-pool-sniper/internal/status"
	"solana-pool-sniper/internal/storage"
	"solana-pool-sniper/internal/storage/memory"
	"solana-pool-sniper/internal/storage/migrations"
	pgstore "solana-pool-sniper/internal/storage/postgres"
	"solana-pool-sniper/internal/wallet"
)

func main() {
	mode := flag.String("mode", "", "Detection mode override: logs or account")
	dryRun := flag.Bool("dry-run", false, "Force dry-run mode regardless of configuration")
	statusAddr := flag.String("status-addr", "", "Status HTTP address override (empty uses config)")
	flag.Parse()

	logger := log.New(os.Stdout, "[sniper] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load configuration: %v", err)
	}
	if *mode != "" {
		cfg.Monitor.Mode = *mode
	}
	if *dryRun {
		cfg.Snipe.DryRun = true
	}
	if *statusAddr != "" {
		cfg.Status.ListenAddr = *statusAddr
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	err = run(ctx, logger, cfg)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	if cfg.Snipe.DryRun {
		logger.Println("Running in DRY RUN mode, no transactions will be submitted")
	} else {
		logger.Println("Running in LIVE mode")
	}

	rpc := solana.NewHTTPClient(cfg.Solana.RPCEndpoint)

	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	metrics := observability.NewMetrics("pool_sniper", nil)

	var swap jupiter.Client = jupiter.Instrument(
		jupiter.NewHTTPClient(cfg.Jupiter.BaseURL),
		metrics.QuoteLatency,
	)

	market := marketdata.NewHTTPClient(
		cfg.MarketData.BaseURL,
		cfg.MarketData.APIKey,
		marketdata.WithRequestsPerSecond(cfg.MarketData.RequestsPerSecond),
	)

	var signer *wallet.Wallet
	if cfg.Wallet.Secret != "" {
		signer, err = wallet.New(cfg.Wallet.Secret)
		if err != nil {
			return fmt.Errorf("load wallet: %w", err)
		}
		logger.Printf("Wallet loaded: %s", signer.PublicKey())
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.BotToken != "" {
		notifier = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	var snipeStore storage.SnipeStore = memory.NewSnipeStore()
	if cfg.Postgres.DSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		snipeStore = pgstore.NewSnipeStore(pool)
	}

	store := portfolio.NewStore(cfg.Files.PortfolioPath, cfg.Files.SnipeLogPath)

	exec, err := executor.New(executor.Options{
		Swap:   swap,
		RPC:    rpc,
		Wallet: signer,
		Config: cfg.Snipe,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("create executor: %w", err)
	}

	mon := monitor.New(monitor.Options{
		WS:           ws,
		RPC:          rpc,
		Mode:         monitor.Mode(cfg.Monitor.Mode),
		SeenCapacity: cfg.Monitor.SeenCapacity,
		Logger:       logger,
	})

	pipeline := sniper.New(sniper.Options{
		Market: market,
		Filter: filter.NewEvaluator(cfg.Filter),
		Safety: safety.NewChecker(safety.Options{
			RPC:    rpc,
			Swap:   swap,
			Config: cfg.Safety,
			Logger: logger,
		}),
		Executor:     exec,
		Store:        store,
		SnipeStore:   snipeStore,
		Notifier:     notifier,
		Metrics:      metrics,
		PollInterval: cfg.Monitor.PollInterval,
		Logger:       logger,
	})

	statusServer := status.NewServer(status.Options{
		ListenAddr: cfg.Status.ListenAddr,
		Store:      store,
		Snipes:     snipeStore,
		Metrics:    observability.Handler(),
		SeenCount:  mon.SeenCount,
		DryRun:     cfg.Snipe.DryRun,
		Mode:       cfg.Monitor.Mode,
		Logger:     logger,
	})

	errCh := make(chan error, 4)

	go func() {
		if err := statusServer.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("status server: %w", err)
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := statusServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("WARN: status server shutdown: %v", err)
		}
	}()

	go func() {
		errCh <- mon.Run(ctx)
	}()
	go func() {
		errCh <- pipeline.Run(ctx, mon.Candidates())
	}()
	go func() {
		errCh <- pipeline.RunPolling(ctx)
	}()

	// Keep the dedupe-set gauge fresh.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.SeenSetSize.Set(float64(mon.SeenCount()))
			}
		}
	}()

	logger.Printf("Sniper running (mode=%s, poll=%s)", cfg.Monitor.Mode, cfg.Monitor.PollInterval)

	return waitForFailure(ctx, errCh)
}

// waitForFailure blocks until the context is cancelled or a worker reports a
// real error. Nil results are skipped: when the monitor fails it also closes
// its candidate channel, so the consuming pipeline returns nil and the two
// results race onto errCh in either order.
func waitForFailure(ctx context.Context, errCh <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil {
				return err
			}
		}
	}
}
