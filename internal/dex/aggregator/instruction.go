// internal/dex/aggregator/instruction.go
package aggregator

import (
	"bytes"
	"crypto/sha256"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/types"
)

// ProgramID of the external aggregator.
var ProgramID = solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")

var routeDiscriminator = func() []byte {
	h := sha256.Sum256([]byte("global:route"))
	return h[:8]
}()

// Fixed accounts preceding the venue accounts of a route call.
const (
	accTokenProgram = iota
	accUserTransferAuthority
	accUserSource
	accUserDestination
	fixedAccounts
)

// RoutePlanStep is one venue-agnostic hop over the remaining accounts.
type RoutePlanStep struct {
	Swap        types.SwapType
	Percent     uint8
	InputIndex  uint8
	OutputIndex uint8
}

// RouteArgs is the borsh body of the route instruction.
type RouteArgs struct {
	RoutePlan       []RoutePlanStep
	InAmount        uint64
	QuotedOutAmount uint64
	SlippageBps     uint16
	PlatformFeeBps  uint8
}

// EncodeRoute builds [discriminator | borsh(args)].
func EncodeRoute(args *RouteArgs) ([]byte, error) {
	body, err := bin.MarshalBorsh(args)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, routeDiscriminator...), body...), nil
}

// DecodeRoute parses route instruction data.
func DecodeRoute(data []byte) (*RouteArgs, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], routeDiscriminator) {
		return nil, errs.Wrap(errs.ErrInvalidInstructionData, "aggregator route discriminator")
	}
	var args RouteArgs
	if err := bin.UnmarshalBorsh(&args, data[8:]); err != nil {
		return nil, errs.Wrap(errs.ErrInvalidInstructionData, "aggregator route: %v", err)
	}
	return &args, nil
}

// RouteAccounts builds the account list of a route call.
func RouteAccounts(tokenProgram, authority, source, destination solana.PublicKey, remaining []*solana.AccountMeta) []*solana.AccountMeta {
	metas := []*solana.AccountMeta{
		solana.Meta(tokenProgram),
		solana.Meta(authority).SIGNER(),
		solana.Meta(source).WRITE(),
		solana.Meta(destination).WRITE(),
	}
	return append(metas, remaining...)
}

// StepsFromPlan converts a router plan into aggregator steps.
func StepsFromPlan(plan types.RoutePlan) []RoutePlanStep {
	steps := make([]RoutePlanStep, len(plan))
	for i, hop := range plan {
		steps[i] = RoutePlanStep{
			Swap:        hop.SwapType,
			Percent:     hop.Percent,
			InputIndex:  hop.InputIndex,
			OutputIndex: hop.OutputIndex,
		}
	}
	return steps
}
