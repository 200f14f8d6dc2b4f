// internal/keeper/keeper.go
package keeper

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/order"
	"github.com/rovshanmuradov/swap-router/internal/utils/metrics"
)

// Decisions taken for one order during a scan.
const (
	DecisionFilled  = "filled"
	DecisionSkipped = "skipped"
	DecisionExpired = "expired"
	DecisionFailed  = "failed"
)

// Executor is the operation surface the keeper drives.
type Executor interface {
	OpenOrders(ctx context.Context) ([]order.Entry, error)
	ExecuteOrder(ctx context.Context, operator, addr solana.PublicKey, ex *order.Execution) (*order.Fill, error)
	SharedExecuteOrder(ctx context.Context, operator, addr solana.PublicKey, ex *order.Execution) (*order.Fill, error)
}

// Config controls the keeper loop.
type Config struct {
	Operator       solana.PublicKey
	Interval       time.Duration
	Workers        int
	Retries        int
	PlatformFeeBps uint16
	Shared         bool
}

// Report counts decisions of one scan.
type Report struct {
	Filled  int
	Skipped int
	Expired int
	Failed  int
}

func (r *Report) add(decision string) {
	switch decision {
	case DecisionFilled:
		r.Filled++
	case DecisionSkipped:
		r.Skipped++
	case DecisionExpired:
		r.Expired++
	default:
		r.Failed++
	}
}

// Keeper реализует процесс оператора: периодически просматривает открытые ордера
// и исполняет те, чей триггер выполнен. Просроченные ордера только
// логируются, отмена остаётся за создателем или оператором.
type Keeper struct {
	exec    Executor
	quoter  Quoter
	cfg     Config
	metrics *metrics.Collector
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a keeper.
func New(exec Executor, quoter Quoter, cfg Config, collector *metrics.Collector, logger *zap.Logger) *Keeper {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Keeper{
		exec:    exec,
		quoter:  quoter,
		cfg:     cfg,
		metrics: collector,
		now:     time.Now,
		logger:  logger.Named("keeper"),
	}
}

// Run scans every interval until ctx is done.
func (k *Keeper) Run(ctx context.Context) error {
	k.logger.Info("Keeper started",
		zap.Stringer("operator", k.cfg.Operator),
		zap.Duration("interval", k.cfg.Interval),
		zap.Int("workers", k.cfg.Workers))

	ticker := time.NewTicker(k.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := k.Scan(ctx); err != nil && !errors.Is(err, context.Canceled) {
			k.logger.Error("Scan failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			k.logger.Info("Keeper stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Scan evaluates every open order once. Failures of single orders are
// counted in the report, not returned.
func (k *Keeper) Scan(ctx context.Context) (*Report, error) {
	entries, err := k.exec.OpenOrders(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		report Report
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(k.cfg.Workers)
	for _, entry := range entries {
		entry := entry
		g.Go(func() error {
			decision := k.process(gCtx, entry)
			if k.metrics != nil {
				k.metrics.RecordKeeperDecision(decision)
			}
			mu.Lock()
			report.add(decision)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	k.logger.Debug("Scan complete",
		zap.Int("orders", len(entries)),
		zap.Int("filled", report.Filled),
		zap.Int("skipped", report.Skipped),
		zap.Int("expired", report.Expired),
		zap.Int("failed", report.Failed))
	return &report, nil
}

func (k *Keeper) process(ctx context.Context, entry order.Entry) string {
	o := entry.Order
	log := k.logger.With(zap.Stringer("order", entry.Address))

	if o.Expired(k.now().Unix()) {
		log.Info("Order expired, awaiting cancel or close", zap.Int64("expiry", o.Expiry))
		return DecisionExpired
	}

	quote, err := k.quoter.Quote(ctx, o)
	if err != nil {
		log.Warn("Quote failed", zap.Error(err))
		return DecisionFailed
	}
	if _, err := order.CheckTrigger(o, quote.QuotedOutAmount); err != nil {
		if errors.Is(err, errs.ErrTriggerConditionNotMet) {
			return DecisionSkipped
		}
		log.Warn("Trigger check failed", zap.Error(err))
		return DecisionFailed
	}

	ex := &order.Execution{
		Plan:            quote.Plan,
		Accounts:        quote.Accounts,
		QuotedOutAmount: quote.QuotedOutAmount,
		PlatformFeeBps:  k.cfg.PlatformFeeBps,
	}
	fill, err := k.execute(ctx, entry.Address, ex)
	if err != nil {
		log.Warn("Execution failed", zap.Error(err))
		return DecisionFailed
	}
	log.Info("Order filled",
		zap.Uint64("price_ratio", fill.PriceRatio),
		zap.Uint64("realized", fill.Route.Realized))
	return DecisionFilled
}

// execute retries only while the store reports contention.
func (k *Keeper) execute(ctx context.Context, addr solana.PublicKey, ex *order.Execution) (*order.Fill, error) {
	run := k.exec.ExecuteOrder
	if k.cfg.Shared {
		run = k.exec.SharedExecuteOrder
	}

	operation := func() (*order.Fill, error) {
		fill, err := run(ctx, k.cfg.Operator, addr, ex)
		if err != nil && !errors.Is(err, errs.ErrStoreBusy) {
			return nil, backoff.Permanent(err)
		}
		return fill, err
	}
	notify := func(err error, d time.Duration) {
		k.logger.Debug("Retrying execution", zap.Stringer("order", addr), zap.Error(err), zap.Duration("backoff", d))
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(k.cfg.Retries+1)),
		backoff.WithNotify(notify))
}
