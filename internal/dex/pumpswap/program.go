// internal/dex/pumpswap/program.go
package pumpswap

import (
	"bytes"
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/token"
)

// SwapCost is charged per executed swap instruction.
const SwapCost uint64 = 30_000

// Account positions inside the instruction (the program itself is not passed).
const (
	accPool = iota
	accUser
	accGlobalConfig
	accBaseMint
	accQuoteMint
	accUserBase
	accUserQuote
	accPoolBase
	accPoolQuote
	accProtocolFeeATA
	accTokenProgram
	accountCount
)

// Program is the PumpSwap AMM venue.
type Program struct {
	id     solana.PublicKey
	logger *zap.Logger
}

var _ runtime.Program = (*Program)(nil)

// NewProgram returns the pumpswap program registered under id.
func NewProgram(id solana.PublicKey, logger *zap.Logger) *Program {
	return &Program{id: id, logger: logger.Named("pumpswap_program")}
}

func (p *Program) ProgramID() solana.PublicKey { return p.id }

func (p *Program) Process(rc *runtime.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) != instructionDataSize {
		return errs.Wrap(errs.ErrInvalidInstructionData, "pumpswap instruction")
	}
	if len(accounts) != accountCount {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "pumpswap expects %d accounts, got %d", accountCount, len(accounts))
	}
	if err := rc.Consume(SwapCost); err != nil {
		return err
	}
	at := func(i int) solana.PublicKey { return accounts[i].PublicKey }

	pool, err := LoadPool(rc, rc.Tx, p.id, at(accPool))
	if err != nil {
		return err
	}
	cfg, err := LoadGlobalConfig(rc, rc.Tx, p.id, at(accGlobalConfig))
	if err != nil {
		return err
	}
	if !at(accBaseMint).Equals(pool.BaseMint) || !at(accQuoteMint).Equals(pool.QuoteMint) ||
		!at(accPoolBase).Equals(pool.PoolBaseTokenAccount) || !at(accPoolQuote).Equals(pool.PoolQuoteTokenAccount) {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "pumpswap pool accounts")
	}
	feeATA, err := token.LoadAccount(rc, rc.Tx, at(accProtocolFeeATA))
	if err != nil {
		return errs.Wrap(err, "protocol fee account")
	}
	if !feeATA.Mint.Equals(pool.QuoteMint) || !cfg.IsFeeRecipient(feeATA.Owner) {
		return errs.Wrap(errs.ErrAccountSchemaMismatch, "protocol fee recipient")
	}

	baseReserve, quoteReserve, err := reserves(rc, rc.Tx, pool)
	if err != nil {
		return err
	}
	amount1 := binary.LittleEndian.Uint64(data[8:16])
	amount2 := binary.LittleEndian.Uint64(data[16:24])

	switch {
	case bytes.Equal(data[:8], sellDiscriminator):
		if cfg.DisableFlags&DisableSell != 0 {
			return errs.Wrap(errs.ErrPoolDisabled, "pumpswap sell disabled")
		}
		amounts, err := calculateSell(baseReserve, quoteReserve, amount1, cfg)
		if err != nil {
			return err
		}
		if amounts.AmountOut == 0 || amounts.AmountOut < amount2 {
			return errs.Wrap(errs.ErrVenueOutputTooLow, "pumpswap sell out %d < min %d", amounts.AmountOut, amount2)
		}
		return p.settle(rc, pool, accounts, at(accUserBase), at(accUserQuote), amounts)

	case bytes.Equal(data[:8], buyExactQuoteInDiscriminator):
		if cfg.DisableFlags&DisableBuy != 0 {
			return errs.Wrap(errs.ErrPoolDisabled, "pumpswap buy disabled")
		}
		amounts, err := calculateBuyExactQuoteIn(baseReserve, quoteReserve, amount1, cfg)
		if err != nil {
			return err
		}
		if amounts.AmountOut == 0 || amounts.AmountOut < amount2 {
			return errs.Wrap(errs.ErrVenueOutputTooLow, "pumpswap buy out %d < min %d", amounts.AmountOut, amount2)
		}
		return p.settle(rc, pool, accounts, at(accUserQuote), at(accUserBase), amounts)

	default:
		return errs.Wrap(errs.ErrInvalidInstructionData, "unknown pumpswap discriminator")
	}
}

// settle moves the user input into the pool and pays out output and protocol fee.
func (p *Program) settle(rc *runtime.Context, pool *Pool, accounts []*solana.AccountMeta, userIn, userOut solana.PublicKey, amounts *SwapAmounts) error {
	user := accounts[accUser].PublicKey
	feeATA := accounts[accProtocolFeeATA].PublicKey
	seeds := pool.signerSeeds()
	poolAddr := accounts[accPool].PublicKey

	selling := userIn.Equals(accounts[accUserBase].PublicKey)
	poolIn, poolOut := pool.PoolQuoteTokenAccount, pool.PoolBaseTokenAccount
	if selling {
		poolIn, poolOut = pool.PoolBaseTokenAccount, pool.PoolQuoteTokenAccount
	}

	if err := token.Transfer(rc, userIn, poolIn, user, amounts.PoolIn); err != nil {
		return err
	}
	if amounts.ProtocolFee > 0 {
		if selling {
			if err := token.Transfer(rc, poolOut, feeATA, poolAddr, amounts.ProtocolFee, seeds); err != nil {
				return err
			}
		} else if err := token.Transfer(rc, userIn, feeATA, user, amounts.ProtocolFee); err != nil {
			return err
		}
	}
	if err := token.Transfer(rc, poolOut, userOut, poolAddr, amounts.AmountOut, seeds); err != nil {
		return err
	}

	p.logger.Debug("pumpswap swap",
		zap.Stringer("pool", poolAddr),
		zap.Bool("sell", selling),
		zap.Uint64("amount_in", amounts.AmountIn),
		zap.Uint64("amount_out", amounts.AmountOut),
		zap.Uint64("protocol_fee", amounts.ProtocolFee))
	return nil
}
