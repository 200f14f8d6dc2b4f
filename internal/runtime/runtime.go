// internal/runtime/runtime.go
package runtime

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

const (
	// MaxInvokeDepth ограничивает глубину вложенных вызовов, включая верхний.
	MaxInvokeDepth = 4
	// InvokeCost is charged for every nested call.
	InvokeCost uint64 = 1_000
)

// Program is an executable unit addressed by its program id.
type Program interface {
	ProgramID() solana.PublicKey
	Process(rc *Context, accounts []*solana.AccountMeta, data []byte) error
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithComputeBudget overrides the per-operation compute budget.
func WithComputeBudget(units uint64) Option {
	return func(r *Runtime) { r.computeBudget = units }
}

// WithClock replaces the wall clock used by Context.Now.
func WithClock(clock func() time.Time) Option {
	return func(r *Runtime) { r.clock = clock }
}

// Runtime is the registry of programs reachable through Invoke.
type Runtime struct {
	mu            sync.RWMutex
	programs      map[solana.PublicKey]Program
	computeBudget uint64
	clock         func() time.Time
	logger        *zap.Logger
}

// New creates an empty runtime.
func New(logger *zap.Logger, opts ...Option) *Runtime {
	r := &Runtime{
		programs:      make(map[solana.PublicKey]Program),
		computeBudget: types.MaxComputeUnits,
		clock:         time.Now,
		logger:        logger.Named("runtime"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a program. A program id can be registered once.
func (r *Runtime) Register(p Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ProgramID()
	if _, exists := r.programs[id]; exists {
		return fmt.Errorf("program %s already registered", id)
	}
	r.programs[id] = p

	r.logger.Info("Program registered", zap.String("program_id", id.String()))
	return nil
}

// Get returns the program registered under id.
func (r *Runtime) Get(id solana.PublicKey) (Program, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.programs[id]
	if !exists {
		return nil, errs.Wrap(errs.ErrProgramNotFound, "%s", id)
	}
	return p, nil
}

// List returns registered program ids in a stable order.
func (r *Runtime) List() []solana.PublicKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]solana.PublicKey, 0, len(r.programs))
	for id := range r.programs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Now returns the runtime clock reading.
func (r *Runtime) Now() time.Time {
	return r.clock()
}

// Logger returns the runtime logger.
func (r *Runtime) Logger() *zap.Logger {
	return r.logger
}

// NewContext opens a top-level execution of programID inside tx, signed by signers.
func (r *Runtime) NewContext(ctx context.Context, tx store.Tx, programID solana.PublicKey, signers ...solana.PublicKey) *Context {
	set := make(map[solana.PublicKey]bool, len(signers))
	for _, s := range signers {
		set[s] = true
	}
	return &Context{
		Context:   ctx,
		Tx:        tx,
		rt:        r,
		programID: programID,
		signers:   set,
		depth:     1,
		meter:     &meter{remaining: r.computeBudget},
		now:       r.clock(),
	}
}
