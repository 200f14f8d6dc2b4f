// internal/token/program.go
package token

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/rovshanmuradov/swap-router/internal/errs"
	"github.com/rovshanmuradov/swap-router/internal/runtime"
	"github.com/rovshanmuradov/swap-router/internal/store"
)

// Instruction tags, same numbering as the SPL token program.
const (
	InstructionMintTo          uint8 = 7
	InstructionCloseAccount    uint8 = 9
	InstructionTransferChecked uint8 = 12
)

// TransferCost is charged per executed token instruction.
const TransferCost uint64 = 4_500

// Program executes token instructions for one of the two token program ids.
type Program struct {
	id solana.PublicKey
}

var _ runtime.Program = (*Program)(nil)

// NewProgram returns the token program registered under id.
func NewProgram(id solana.PublicKey) *Program {
	return &Program{id: id}
}

func (p *Program) ProgramID() solana.PublicKey { return p.id }

func (p *Program) Process(rc *runtime.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return errs.ErrInvalidInstructionData
	}
	if err := rc.Consume(TransferCost); err != nil {
		return err
	}
	switch data[0] {
	case InstructionTransferChecked:
		return p.transferChecked(rc, accounts, data[1:])
	case InstructionMintTo:
		return p.mintTo(rc, accounts, data[1:])
	case InstructionCloseAccount:
		return p.closeAccount(rc, accounts)
	default:
		return errs.Wrap(errs.ErrInvalidInstructionData, "unknown token instruction %d", data[0])
	}
}

// transferChecked: [source(w), mint, destination(w), authority(s)] data [amount u64 | decimals u8].
func (p *Program) transferChecked(rc *runtime.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(accounts) < 4 || len(data) < 9 {
		return errs.ErrInvalidInstructionData
	}
	amount := binary.LittleEndian.Uint64(data[0:8])
	decimals := data[8]
	source, mintKey, destination, authority := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey, accounts[3].PublicKey

	m, err := p.loadMint(rc, mintKey)
	if err != nil {
		return err
	}
	if m.Decimals != decimals {
		return errs.Wrap(errs.ErrMintMismatch, "decimals %d, mint has %d", decimals, m.Decimals)
	}
	src, err := p.loadAccount(rc, source)
	if err != nil {
		return err
	}
	dst, err := p.loadAccount(rc, destination)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(mintKey) || !dst.Mint.Equals(mintKey) {
		return errs.Wrap(errs.ErrMintMismatch, "transfer %s -> %s", source, destination)
	}
	if !src.Owner.Equals(authority) {
		return errs.Wrap(errs.ErrOwnerMismatch, "source %s", source)
	}
	if err := rc.RequireSigner(authority); err != nil {
		return err
	}
	if src.Amount < amount {
		return errs.Wrap(errs.ErrInsufficientFunds, "source %s has %d, needs %d", source, src.Amount, amount)
	}
	if source.Equals(destination) {
		return nil
	}
	if dst.Amount+amount < dst.Amount {
		return errs.ErrArithmeticOverflow
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := putAccount(rc, rc.Tx, source, src, p.id); err != nil {
		return err
	}
	return putAccount(rc, rc.Tx, destination, dst, p.id)
}

// mintTo: [mint(w), destination(w), mint authority(s)] data [amount u64].
func (p *Program) mintTo(rc *runtime.Context, accounts []*solana.AccountMeta, data []byte) error {
	if len(accounts) < 3 || len(data) < 8 {
		return errs.ErrInvalidInstructionData
	}
	mintKey, destination, authority := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey
	m, err := p.loadMint(rc, mintKey)
	if err != nil {
		return err
	}
	if !m.MintAuthority.Equals(authority) {
		return errs.Wrap(errs.ErrUnauthorized, "mint authority of %s", mintKey)
	}
	if err := rc.RequireSigner(authority); err != nil {
		return err
	}
	return mintTo(rc, rc.Tx, mintKey, p.id, m, destination, binary.LittleEndian.Uint64(data[0:8]))
}

// closeAccount: [account(w), destination(w), owner(s)].
func (p *Program) closeAccount(rc *runtime.Context, accounts []*solana.AccountMeta) error {
	if len(accounts) < 3 {
		return errs.ErrInvalidInstructionData
	}
	address, destination, owner := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey
	a, err := p.loadAccount(rc, address)
	if err != nil {
		return err
	}
	if !a.Owner.Equals(owner) {
		return errs.Wrap(errs.ErrOwnerMismatch, "close %s", address)
	}
	if err := rc.RequireSigner(owner); err != nil {
		return err
	}
	if a.Amount != 0 {
		return errs.Wrap(errs.ErrAccountNotEmpty, "close %s with %d", address, a.Amount)
	}
	_, err = store.CloseAccount(rc, rc.Tx, address, destination)
	return err
}

func (p *Program) loadMint(rc *runtime.Context, key solana.PublicKey) (*Mint, error) {
	m, owner, err := LoadMint(rc, rc.Tx, key)
	if err != nil {
		return nil, err
	}
	if !owner.Equals(p.id) {
		return nil, errs.Wrap(errs.ErrInvalidAccountOwner, "mint %s", key)
	}
	return m, nil
}

func (p *Program) loadAccount(rc *runtime.Context, key solana.PublicKey) (*Account, error) {
	acc, err := rc.Tx.Get(rc, key)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(p.id) {
		return nil, errs.Wrap(errs.ErrInvalidAccountOwner, "token account %s", key)
	}
	return decodeAccount(acc.Data)
}

// Transfer moves amount from source to destination through the token program
// owning source. authority must sign the frame or be derived from signerSeeds.
func Transfer(rc *runtime.Context, source, destination, authority solana.PublicKey, amount uint64, signerSeeds ...[][]byte) error {
	src, err := rc.Tx.Get(rc, source)
	if err != nil {
		return errs.Wrap(err, "transfer source")
	}
	a, err := decodeAccount(src.Data)
	if err != nil {
		return err
	}
	m, _, err := LoadMint(rc, rc.Tx, a.Mint)
	if err != nil {
		return err
	}
	data := make([]byte, 10)
	data[0] = InstructionTransferChecked
	binary.LittleEndian.PutUint64(data[1:9], amount)
	data[9] = m.Decimals
	metas := []*solana.AccountMeta{
		solana.Meta(source).WRITE(),
		solana.Meta(a.Mint),
		solana.Meta(destination).WRITE(),
		solana.Meta(authority).SIGNER(),
	}
	return rc.InvokeSigned(src.Owner, metas, data, signerSeeds...)
}

// Close closes a zero-balance token account, sending its deposit to destination.
func Close(rc *runtime.Context, account, destination, owner solana.PublicKey, signerSeeds ...[][]byte) error {
	acc, err := rc.Tx.Get(rc, account)
	if err != nil {
		return errs.Wrap(err, "close token account")
	}
	metas := []*solana.AccountMeta{
		solana.Meta(account).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(owner).SIGNER(),
	}
	return rc.InvokeSigned(acc.Owner, metas, []byte{InstructionCloseAccount}, signerSeeds...)
}
