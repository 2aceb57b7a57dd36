package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"solana-pool-sniper/internal/config"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/marketdata"
	"solana-pool-sniper/internal/portfolio"
)

func main() {
	refresh := flag.Bool("refresh", true, "Fetch current prices and update valuations")
	showLog := flag.Bool("log", false, "Print the full snipe attempt log instead of holdings")
	flag.Parse()

	logger := log.New(os.Stderr, "[portfolio] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Load configuration: %v", err)
	}

	store := portfolio.NewStore(cfg.Files.PortfolioPath, cfg.Files.SnipeLogPath)

	if *showLog {
		if err := printSnipeLog(store); err != nil {
			logger.Fatalf("Error: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	p, err := store.Load()
	if err != nil {
		logger.Fatalf("Load portfolio: %v", err)
	}

	if *refresh && len(p.Tokens) > 0 {
		market := marketdata.NewHTTPClient(
			cfg.MarketData.BaseURL,
			cfg.MarketData.APIKey,
			marketdata.WithRequestsPerSecond(cfg.MarketData.RequestsPerSecond),
		)

		prices := make(map[string]float64, len(p.Tokens))
		for _, entry := range p.Tokens {
			price, err := market.Price(ctx, entry.Mint)
			if err != nil {
				logger.Printf("WARN: price %s: %v", entry.Mint, err)
				continue
			}
			prices[entry.Mint] = price
		}

		p, err = store.UpdateValuations(prices)
		if err != nil {
			logger.Fatalf("Update valuations: %v", err)
		}
	}

	printPortfolio(p)
}

func printPortfolio(p *domain.Portfolio) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MINT\tSYMBOL\tENTRY USD\tCURRENT USD\tP/L %\tMETHOD\tDRY RUN")
	for _, entry := range p.Tokens {
		fmt.Fprintf(w, "%s\t%s\t%.8f\t%.8f\t%+.2f\t%s\t%v\n",
			entry.Mint,
			entry.Symbol,
			entry.PriceUSD,
			entry.CurrentPrice,
			entry.ProfitLoss,
			entry.Method,
			entry.DryRun,
		)
	}
	w.Flush()

	fmt.Printf("\nTotal invested: %.4f SOL\n", p.TotalInvested)
	if p.LastUpdated > 0 {
		fmt.Printf("Last updated: %s\n", time.UnixMilli(p.LastUpdated).Format(time.RFC3339))
	}
}

func printSnipeLog(store *portfolio.Store) error {
	records, err := store.SnipeLog()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tMINT\tSYMBOL\tMETHOD\tSIGNATURE\tDRY RUN")
	for _, record := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%v\n",
			time.UnixMilli(record.Timestamp).Format(time.RFC3339),
			record.Mint,
			record.Symbol,
			record.Method,
			record.TxSignature,
			record.DryRun,
		)
	}
	return w.Flush()
}
