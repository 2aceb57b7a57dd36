// Package sniper orchestrates the detection-to-execution pipeline:
// enrich, filter, safety-check, execute, record, notify.
package sniper

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/executor"
	"solana-pool-sniper/internal/filter"
	"solana-pool-sniper/internal/marketdata"
	"solana-pool-sniper/internal/notify"
	"solana-pool-sniper/internal/observability"
	"solana-pool-sniper/internal/portfolio"
	"solana-pool-sniper/internal/safety"
	"solana-pool-sniper/internal/storage"
)

// Options configures a Pipeline.
type Options struct {
	Market   marketdata.Client
	Filter   *filter.Evaluator
	Safety   *safety.Checker
	Executor *executor.Executor
	Store    *portfolio.Store
	// SnipeStore is an optional durable record store.
	SnipeStore storage.SnipeStore
	Notifier   notify.Notifier
	Metrics    *observability.Metrics
	// PollInterval drives the backup polling path (0 disables).
	PollInterval time.Duration
	// PollLimit is the new-listings page size.
	PollLimit int
	Logger    *log.Logger
}

// Pipeline processes pool candidates from any detection path. A per-mint
// in-flight claim guarantees at most one snipe attempt per mint per process
// even when the subscription and polling paths race on the same token.
type Pipeline struct {
	market     marketdata.Client
	filter     *filter.Evaluator
	safety     *safety.Checker
	executor   *executor.Executor
	store      *portfolio.Store
	snipeStore storage.SnipeStore
	notifier   notify.Notifier
	metrics    *observability.Metrics
	pollEvery  time.Duration
	pollLimit  int
	logger     *log.Logger

	mu      sync.Mutex
	claimed map[string]struct{}
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	pollLimit := opts.PollLimit
	if pollLimit == 0 {
		pollLimit = 20
	}
	return &Pipeline{
		market:     opts.Market,
		filter:     opts.Filter,
		safety:     opts.Safety,
		executor:   opts.Executor,
		store:      opts.Store,
		snipeStore: opts.SnipeStore,
		notifier:   notifier,
		metrics:    opts.Metrics,
		pollEvery:  opts.PollInterval,
		pollLimit:  pollLimit,
		logger:     logger,
		claimed:    make(map[string]struct{}),
	}
}

// Run consumes candidates until the channel closes or the context ends.
func (p *Pipeline) Run(ctx context.Context, candidates <-chan domain.PoolCandidate) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case candidate, ok := <-candidates:
			if !ok {
				return nil
			}
			p.Process(ctx, candidate)
		}
	}
}

// RunPolling periodically pulls new listings from the market data API and
// feeds them through the same Process path. Errors are notified and the
// loop keeps going; a broken polling cycle must not kill the process.
func (p *Pipeline) RunPolling(ctx context.Context) error {
	if p.pollEvery <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				p.logger.Printf("ERROR: polling cycle: %v", err)
				if nerr := p.notifier.Notify(ctx, notify.ErrorMessage("polling", err)); nerr != nil {
					p.logger.Printf("WARN: notify: %v", nerr)
				}
			}
		}
	}
}

func (p *Pipeline) pollOnce(ctx context.Context) error {
	listings, err := p.market.NewListings(ctx, p.pollLimit)
	if err != nil {
		return err
	}

	for _, listing := range listings {
		p.Process(ctx, domain.PoolCandidate{
			Address:    listing.Address,
			Method:     domain.MethodPolling,
			DetectedAt: time.Now().UnixMilli(),
		})
	}
	return nil
}

// Process runs one candidate through the full pipeline. The first caller
// to claim a mint proceeds; later detections of the same mint are dropped.
func (p *Pipeline) Process(ctx context.Context, candidate domain.PoolCandidate) {
	if !p.claim(candidate.Address) {
		p.logger.Printf("Skip %s: already claimed", candidate.Address)
		return
	}
	if p.alreadySniped(ctx, candidate.Address) {
		p.logger.Printf("Skip %s: already sniped on record", candidate.Address)
		p.countDrop("already_sniped")
		return
	}

	if p.metrics != nil {
		p.metrics.CandidatesDetected.WithLabelValues(string(candidate.Method)).Inc()
		p.metrics.LastCandidateTimestamp.SetToCurrentTime()
	}
	p.logger.Printf("Candidate %s (pool %s, method %s)", candidate.Address, candidate.PoolID, candidate.Method)

	start := time.Now()
	metrics, err := p.market.TokenOverview(ctx, candidate.Address)
	p.observeStage("enrich", start)
	if p.metrics != nil {
		p.metrics.MarketDataLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		p.logger.Printf("WARN: enrich %s: %v", candidate.Address, err)
		p.countDrop("enrich")
		return
	}

	result := p.filter.Evaluate(*metrics)
	if !result.Eligible {
		failed := result.FailedCriterion()
		p.logger.Printf("Filter reject %s: %s (%s, want %s)", candidate.Address, failed.Name, failed.Actual, failed.Threshold)
		if p.metrics != nil {
			p.metrics.FilterRejections.WithLabelValues(failed.Name).Inc()
		}
		return
	}

	start = time.Now()
	report := p.safety.Check(ctx, candidate.Address)
	p.observeStage("safety", start)
	if !report.Pass {
		failed := report.FailedCheck()
		p.logger.Printf("Safety reject %s: %s: %s", candidate.Address, failed.Name, failed.Reason)
		if p.metrics != nil {
			p.metrics.SafetyRejections.WithLabelValues(failed.Name).Inc()
		}
		return
	}

	start = time.Now()
	record, err := p.executor.Execute(ctx, candidate, *metrics)
	p.observeStage("execute", start)
	if err != nil {
		p.logger.Printf("ERROR: execute %s: %v", candidate.Address, err)
		if p.metrics != nil {
			p.metrics.SnipesFailed.WithLabelValues("execute").Inc()
		}
		if nerr := p.notifier.Notify(ctx, notify.ErrorMessage("execute", err)); nerr != nil {
			p.logger.Printf("WARN: notify: %v", nerr)
		}
		return
	}

	p.record(ctx, record)
}

// record persists the snipe and notifies the operator. Persistence errors
// are logged, not fatal: the buy already happened.
func (p *Pipeline) record(ctx context.Context, record *domain.SnipeRecord) {
	if err := p.store.Record(*record); err != nil {
		p.logger.Printf("ERROR: record snipe %s: %v", record.Mint, err)
	}
	if p.snipeStore != nil {
		if err := p.snipeStore.Insert(ctx, record); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			p.logger.Printf("WARN: store snipe %s: %v", record.Mint, err)
		}
	}

	if p.metrics != nil {
		mode := "live"
		if record.DryRun {
			mode = "dry_run"
		}
		p.metrics.SnipesExecuted.WithLabelValues(mode).Inc()
		p.metrics.LastSnipeTimestamp.SetToCurrentTime()
	}

	if err := p.notifier.Notify(ctx, notify.SnipeMessage(*record)); err != nil {
		p.logger.Printf("WARN: notify: %v", err)
	}
}

// alreadySniped consults the durable store so a restart does not re-buy a
// mint recorded by a previous run. Store errors do not block the attempt;
// the in-memory claim still holds within this process.
func (p *Pipeline) alreadySniped(ctx context.Context, mint string) bool {
	if p.snipeStore == nil {
		return false
	}
	sniped, err := p.snipeStore.HasMint(ctx, mint)
	if err != nil {
		p.logger.Printf("WARN: durable dedupe %s: %v", mint, err)
		return false
	}
	return sniped
}

// claim marks mint as in-flight, reporting whether this caller won.
func (p *Pipeline) claim(mint string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.claimed[mint]; ok {
		return false
	}
	p.claimed[mint] = struct{}{}
	return true
}

func (p *Pipeline) countDrop(reason string) {
	if p.metrics != nil {
		p.metrics.CandidatesDropped.WithLabelValues(reason).Inc()
	}
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.PipelineDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}
