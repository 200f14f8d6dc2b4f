// internal/runtime/context.go
package runtime

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/store"
)

type meter struct {
	remaining uint64
	used      uint64
}

// Context is the state of one program frame. Nested frames share the
// transaction, the clock reading and the compute meter of the top frame.
type Context struct {
	context.Context
	Tx store.Tx

	rt        *Runtime
	programID solana.PublicKey
	signers   map[solana.PublicKey]bool
	depth     int
	meter     *meter
	now       time.Time
}

// ProgramID returns the program executing this frame.
func (rc *Context) ProgramID() solana.PublicKey { return rc.programID }

// Depth returns the invocation depth, 1 for the top frame.
func (rc *Context) Depth() int { return rc.depth }

// Now returns the clock reading taken when the operation started.
func (rc *Context) Now() time.Time { return rc.now }

// Logger returns a logger annotated with the executing program.
func (rc *Context) Logger() *zap.Logger {
	return rc.rt.logger.With(zap.Stringer("program_id", rc.programID), zap.Int("depth", rc.depth))
}

// IsSigner reports whether key signed this frame.
func (rc *Context) IsSigner(key solana.PublicKey) bool {
	return rc.signers[key]
}

// RequireSigner fails with ErrMissingSignature unless key signed this frame.
func (rc *Context) RequireSigner(key solana.PublicKey) error {
	if !rc.IsSigner(key) {
		return errs.Wrap(errs.ErrMissingSignature, "%s", key)
	}
	return nil
}

// Consume charges units against the operation budget.
func (rc *Context) Consume(units uint64) error {
	if units > rc.meter.remaining {
		rc.meter.used += rc.meter.remaining
		rc.meter.remaining = 0
		return errs.ErrComputeBudgetExceeded
	}
	rc.meter.remaining -= units
	rc.meter.used += units
	return nil
}

// Remaining returns the unspent compute units.
func (rc *Context) Remaining() uint64 { return rc.meter.remaining }

// Used returns the compute units spent so far.
func (rc *Context) Used() uint64 { return rc.meter.used }

// Invoke calls programID with the signatures of this frame.
func (rc *Context) Invoke(programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte) error {
	return rc.InvokeSigned(programID, accounts, data)
}

// InvokeSigned calls programID. Each entry of signerSeeds signs for the
// address it derives from the calling program id.
func (rc *Context) InvokeSigned(programID solana.PublicKey, accounts []*solana.AccountMeta, data []byte, signerSeeds ...[][]byte) error {
	if rc.depth >= MaxInvokeDepth {
		return errs.Wrap(errs.ErrCallDepthExceeded, "invoke %s at depth %d", programID, rc.depth)
	}
	if err := rc.Consume(InvokeCost); err != nil {
		return err
	}

	derived := make(map[solana.PublicKey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		pda, err := solana.CreateProgramAddress(seeds, rc.programID)
		if err != nil {
			return errs.Wrap(errs.ErrMissingSignature, "invalid signer seeds: %v", err)
		}
		derived[pda] = true
	}

	signers := make(map[solana.PublicKey]bool)
	for _, meta := range accounts {
		if !meta.IsSigner {
			continue
		}
		if !rc.signers[meta.PublicKey] && !derived[meta.PublicKey] {
			return errs.Wrap(errs.ErrMissingSignature, "%s in call to %s", meta.PublicKey, programID)
		}
		signers[meta.PublicKey] = true
	}

	program, err := rc.rt.Get(programID)
	if err != nil {
		return err
	}

	child := &Context{
		Context:   rc.Context,
		Tx:        rc.Tx,
		rt:        rc.rt,
		programID: programID,
		signers:   signers,
		depth:     rc.depth + 1,
		meter:     rc.meter,
		now:       rc.now,
	}
	return program.Process(child, accounts, data)
}
