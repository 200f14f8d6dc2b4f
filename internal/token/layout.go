// internal/token/layout.go
package token

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

var (
	// LegacyProgramID is the token program with fixed-size accounts.
	LegacyProgramID = solana.TokenProgramID
	// ExtensibleProgramID allows token accounts with trailing extension data.
	ExtensibleProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

const (
	MintSize    = 82
	AccountSize = 165

	accountTypeOffset = AccountSize
	accountTypeToken  = 2
	stateInitialized  = 1
)

// IsTokenProgram reports whether id is one of the two token programs.
func IsTokenProgram(id solana.PublicKey) bool {
	return id.Equals(LegacyProgramID) || id.Equals(ExtensibleProgramID)
}

// Mint is the state of an asset definition.
type Mint struct {
	MintAuthority solana.PublicKey
	Supply        uint64
	Decimals      uint8
}

func (m *Mint) encode() []byte {
	data := make([]byte, MintSize)
	binary.LittleEndian.PutUint32(data[0:4], 1)
	copy(data[4:36], m.MintAuthority[:])
	binary.LittleEndian.PutUint64(data[36:44], m.Supply)
	data[44] = m.Decimals
	data[45] = 1
	return data
}

func decodeMint(data []byte) (*Mint, error) {
	if len(data) < MintSize || data[45] != 1 {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "mint layout")
	}
	m := &Mint{
		Supply:   binary.LittleEndian.Uint64(data[36:44]),
		Decimals: data[44],
	}
	if binary.LittleEndian.Uint32(data[0:4]) == 1 {
		copy(m.MintAuthority[:], data[4:36])
	}
	return m, nil
}

// Account is the state of a token account. Extensions is opaque
// trailing data, only present on extensible-program accounts.
type Account struct {
	Mint       solana.PublicKey
	Owner      solana.PublicKey
	Amount     uint64
	Extensions []byte
}

func (a *Account) encode(extensible bool) []byte {
	size := AccountSize
	if extensible && len(a.Extensions) > 0 {
		size += 1 + len(a.Extensions)
	}
	data := make([]byte, size)
	copy(data[0:32], a.Mint[:])
	copy(data[32:64], a.Owner[:])
	binary.LittleEndian.PutUint64(data[64:72], a.Amount)
	data[108] = stateInitialized
	if size > AccountSize {
		data[accountTypeOffset] = accountTypeToken
		copy(data[accountTypeOffset+1:], a.Extensions)
	}
	return data
}

func decodeAccount(data []byte) (*Account, error) {
	if len(data) < AccountSize || data[108] != stateInitialized {
		return nil, errs.Wrap(errs.ErrInvalidAccountData, "token account layout")
	}
	a := &Account{Amount: binary.LittleEndian.Uint64(data[64:72])}
	copy(a.Mint[:], data[0:32])
	copy(a.Owner[:], data[32:64])
	if len(data) > AccountSize+1 {
		a.Extensions = append([]byte(nil), data[accountTypeOffset+1:]...)
	}
	return a, nil
}
