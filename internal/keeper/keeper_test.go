package keeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/swap-router/internal/config"
	"github.com/rovshanmuradov/swap-router/internal/engine"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/host/hosttest"
	"github.com/rovshanmuradov/swap-router/internal/order"
	"github.com/rovshanmuradov/swap-router/internal/router"
	"github.com/rovshanmuradov/swap-router/internal/types"
	"github.com/rovshanmuradov/swap-router/internal/utils/metrics"
)

func openOrder(t *testing.T, w *hosttest.World, e *engine.Engine, shell order.Shell, source solana.PublicKey, terms order.Terms) solana.PublicKey {
	t.Helper()
	addr, err := e.InitOrder(w.Ctx, w.User, shell)
	require.NoError(t, err)
	require.NoError(t, e.CreateOrder(w.Ctx, w.User, addr, source, terms))
	return addr
}

func TestScanAgainstPools(t *testing.T) {
	w := hosttest.New(t)
	logger := zaptest.NewLogger(t)
	collector := metrics.NewCollector()
	e := engine.New(w.Host, collector, nil, logger)

	sellA := func(nonce uint64) order.Shell {
		return order.Shell{Nonce: nonce, InputMint: w.MintA, OutputMint: w.MintB, Destination: w.UserB}
	}
	later := w.Clock.Now().Add(time.Hour).Unix()

	fillable := openOrder(t, w, e, sellA(1), w.UserA, order.Terms{
		InputAmount: 30_000_000, MinOutputAmount: 33_000_000, TriggerBps: 500,
		TriggerKind: types.StopLoss, Expiry: later, SlippageBps: 100,
	})
	waiting := openOrder(t, w, e, sellA(2), w.UserA, order.Terms{
		InputAmount: 30_000_000, MinOutputAmount: 30_000_000, TriggerBps: 1_000,
		TriggerKind: types.TakeProfit, Expiry: later, SlippageBps: 100,
	})
	openOrder(t, w, e, sellA(3), w.UserA, order.Terms{
		InputAmount: 1_000_000, MinOutputAmount: 1_000_000, TriggerBps: 100,
		TriggerKind: types.StopLoss, Expiry: w.Clock.Now().Add(time.Minute).Unix(),
	})
	openOrder(t, w, e, order.Shell{Nonce: 4, InputMint: w.MintB, OutputMint: w.MintA, Destination: w.UserA}, w.UserB, order.Terms{
		InputAmount: 1_000_000, MinOutputAmount: 1_000_000, TriggerBps: 100,
		TriggerKind: types.TakeProfit, Expiry: later,
	})
	w.Clock.Advance(2 * time.Minute)

	quoter := NewPoolQuoter(w.Host, Pair{InputMint: w.MintA, OutputMint: w.MintB, SwapType: types.SwapTypeRaydium, Pool: w.Raydium.Amm})
	k := New(e, quoter, Config{Operator: w.Operator, Interval: time.Second, Workers: 1}, collector, logger)
	k.now = w.Clock.Now

	report, err := k.Scan(w.Ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Filled: 1, Skipped: 1, Expired: 1, Failed: 1}, *report)

	_, err = e.LoadOrder(w.Ctx, fillable)
	assert.ErrorIs(t, err, errs.ErrAccountNotFound)
	o, err := e.LoadOrder(w.Ctx, waiting)
	require.NoError(t, err)
	assert.Equal(t, types.OrderOpen, o.Status)
	assert.Greater(t, w.Balance(w.UserB), hosttest.UserFunds-1_000_000)
}

func TestQuoteMatchesPool(t *testing.T) {
	w := hosttest.New(t)
	quoter := NewPoolQuoter(w.Host, Pair{InputMint: w.MintA, OutputMint: w.MintB, SwapType: types.SwapTypeRaydium, Pool: w.Raydium.Amm})

	q, err := quoter.Quote(w.Ctx, &order.LimitOrder{InputMint: w.MintA, OutputMint: w.MintB, InputAmount: 7_000_000})
	require.NoError(t, err)
	assert.Equal(t, w.QuoteRaydium(w.MintA, w.MintB, 7_000_000), q.QuotedOutAmount)
	assert.Equal(t, w.RaydiumWindow(w.MintA, w.MintB), q.Accounts)
	require.Len(t, q.Plan, 1)
	assert.Equal(t, uint8(len(q.Accounts)), q.Plan[0].OutputIndex)

	_, err = quoter.Quote(w.Ctx, &order.LimitOrder{InputMint: w.MintB, OutputMint: w.MintA, InputAmount: 1})
	assert.ErrorIs(t, err, ErrNoPair)
}

func TestPairsFromConfig(t *testing.T) {
	mint := solana.NewWallet().PublicKey().String()
	pairs, err := PairsFromConfig([]config.PairConfig{{InputMint: mint, OutputMint: mint, SwapType: "pumpswap_sell", Pool: mint}})
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, types.SwapTypePumpSwapSell, pairs[0].SwapType)
	assert.True(t, pairs[0].ProtocolFeeAccount.IsZero())

	_, err = PairsFromConfig([]config.PairConfig{{InputMint: mint, OutputMint: mint, SwapType: "orca", Pool: mint}})
	assert.Error(t, err)
	_, err = PairsFromConfig([]config.PairConfig{{InputMint: "bad", OutputMint: mint, SwapType: "raydium", Pool: mint}})
	assert.Error(t, err)
}

type stubQuoter struct{ out uint64 }

func (q stubQuoter) Quote(context.Context, *order.LimitOrder) (*Quote, error) {
	return &Quote{QuotedOutAmount: q.out}, nil
}

type stubExecutor struct {
	mu      sync.Mutex
	entries []order.Entry
	errs    []error
	calls   int
	shared  int
}

func (s *stubExecutor) OpenOrders(context.Context) ([]order.Entry, error) { return s.entries, nil }

func (s *stubExecutor) ExecuteOrder(_ context.Context, _, _ solana.PublicKey, _ *order.Execution) (*order.Fill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return &order.Fill{Route: &router.Result{}}, nil
}

func (s *stubExecutor) SharedExecuteOrder(ctx context.Context, operator, addr solana.PublicKey, ex *order.Execution) (*order.Fill, error) {
	s.mu.Lock()
	s.shared++
	s.mu.Unlock()
	return s.ExecuteOrder(ctx, operator, addr, ex)
}

func triggered() []order.Entry {
	return []order.Entry{{
		Address: solana.NewWallet().PublicKey(),
		Order: &order.LimitOrder{
			MinOutputAmount: 100,
			TriggerBps:      1_000,
			TriggerKind:     types.TakeProfit,
			Expiry:          time.Now().Add(time.Hour).Unix(),
		},
	}}
}

func TestExecuteRetriesOnlyStoreBusy(t *testing.T) {
	logger := zaptest.NewLogger(t)

	busy := &stubExecutor{entries: triggered(), errs: []error{errs.ErrStoreBusy, errs.ErrStoreBusy}}
	report, err := New(busy, stubQuoter{out: 200}, Config{Retries: 3}, nil, logger).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Filled)
	assert.Equal(t, 3, busy.calls)

	failing := &stubExecutor{entries: triggered(), errs: []error{errs.ErrSlippageToleranceExceeded}}
	report, err = New(failing, stubQuoter{out: 200}, Config{Retries: 3, Shared: true}, nil, logger).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, failing.shared)

	exhausted := &stubExecutor{entries: triggered(), errs: []error{errs.ErrStoreBusy, errs.ErrStoreBusy}}
	report, err = New(exhausted, stubQuoter{out: 200}, Config{Retries: 1}, nil, logger).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 2, exhausted.calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	exec := &stubExecutor{}
	k := New(exec, stubQuoter{}, Config{Interval: 10 * time.Millisecond}, nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("keeper did not stop")
	}
}

var errQuote = errors.New("quote unavailable")

type failingQuoter struct{}

func (failingQuoter) Quote(context.Context, *order.LimitOrder) (*Quote, error) { return nil, errQuote }

func TestQuoteFailureCountsAsFailed(t *testing.T) {
	exec := &stubExecutor{entries: triggered()}
	report, err := New(exec, failingQuoter{}, Config{}, nil, zaptest.NewLogger(t)).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Failed: 1}, *report)
	assert.Zero(t, exec.calls)
}
