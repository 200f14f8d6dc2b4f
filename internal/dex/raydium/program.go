// internal/dex/raydium/program.go
package raydium

import (
	"context"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/dex"
	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
	"github.com/rovshanmuradov/swap-router/internal/token"
)

// SwapCost is charged per executed swap instruction.
const SwapCost uint64 = 20_000

// Program is the constant-product AMM venue.
type Program struct {
	id     solana.PublicKey
	logger *zap.Logger
}

var _ runtime.Program = (*Program)(nil)

// NewProgram returns the AMM program registered under id.
func NewProgram(id solana.PublicKey, logger *zap.Logger) *Program {
	return &Program{id: id, logger: logger.Named("raydium_program")}
}

func (p *Program) ProgramID() solana.PublicKey { return p.id }

// Process executes swap_base_in. Accounts: amm, amm authority, open orders,
// coin vault, pc vault, user source, user destination, user owner, token program.
func (p *Program) Process(rc *runtime.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) != swapBaseInDataSize || data[0] != InstructionSwapBaseIn {
		return errs.Wrap(errs.ErrInvalidInstructionData, "raydium instruction")
	}
	if len(accounts) != idxTokenProgram {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "raydium swap expects %d accounts, got %d", idxTokenProgram, len(accounts))
	}
	if err := rc.Consume(SwapCost); err != nil {
		return err
	}
	amountIn := binary.LittleEndian.Uint64(data[1:9])
	minOut := binary.LittleEndian.Uint64(data[9:17])

	// accounts are shifted by one: the program itself is not passed
	at := func(idx int) solana.PublicKey { return accounts[idx-1].PublicKey }

	info, err := LoadAmmInfo(rc, rc.Tx, p.id, at(idxAmm))
	if err != nil {
		return err
	}
	if !info.IsActive() {
		return errs.Wrap(errs.ErrPoolDisabled, "raydium pool %s", at(idxAmm))
	}
	authority, bump, err := AmmAuthority(p.id)
	if err != nil {
		return err
	}
	if !at(idxAmmAuthority).Equals(authority) || !at(idxCoinVault).Equals(info.CoinVault) ||
		!at(idxPcVault).Equals(info.PcVault) || !at(idxOpenOrders).Equals(info.OpenOrders) {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "raydium pool accounts")
	}

	source, err := token.LoadAccount(rc, rc.Tx, at(idxUserSource))
	if err != nil {
		return err
	}
	vaultIn, vaultOut := info.CoinVault, info.PcVault
	switch {
	case source.Mint.Equals(info.CoinMint):
	case source.Mint.Equals(info.PcMint):
		vaultIn, vaultOut = info.PcVault, info.CoinVault
	default:
		return errs.Wrap(errs.ErrMintMismatch, "raydium source mint %s", source.Mint)
	}

	out, err := quote(rc, rc.Tx, info, vaultIn, vaultOut, amountIn)
	if err != nil {
		return err
	}
	if out == 0 || out < minOut {
		return errs.Wrap(errs.ErrVenueOutputTooLow, "raydium out %d < min %d", out, minOut)
	}

	if err := token.Transfer(rc, at(idxUserSource), vaultIn, at(idxUserOwner), amountIn); err != nil {
		return err
	}
	seeds := [][]byte{[]byte(AmmAuthoritySeed), {bump}}
	if err := token.Transfer(rc, vaultOut, at(idxUserDestination), authority, out, seeds); err != nil {
		return err
	}

	p.logger.Debug("swap_base_in",
		zap.Stringer("amm", at(idxAmm)),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", out))
	return nil
}

func quote(ctx context.Context, tx store.Tx, info *AmmInfo, vaultIn, vaultOut solana.PublicKey, amountIn uint64) (uint64, error) {
	reserveIn, err := token.Balance(ctx, tx, vaultIn)
	if err != nil {
		return 0, err
	}
	reserveOut, err := token.Balance(ctx, tx, vaultOut)
	if err != nil {
		return 0, err
	}
	return dex.ConstantProductOut(reserveIn, reserveOut, amountIn, info.FeeBps())
}
