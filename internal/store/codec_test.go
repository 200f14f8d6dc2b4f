package store

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

type sample struct {
	Owner  solana.PublicKey
	Amount uint64
	Flag   bool
}

func TestEncodeDecode(t *testing.T) {
	disc := Discriminator("Sample")
	in := sample{Owner: solana.SystemProgramID, Amount: 7, Flag: true}

	data, err := Encode(disc, &in)
	require.NoError(t, err)
	assert.True(t, HasDiscriminator(data, disc))

	var out sample
	require.NoError(t, Decode(data, disc, &out))
	assert.Equal(t, in, out)
}

func TestDecodeRejectsForeignDiscriminator(t *testing.T) {
	data, err := Encode(Discriminator("Sample"), &sample{})
	require.NoError(t, err)

	var out sample
	assert.ErrorIs(t, Decode(data, Discriminator("Other"), &out), errs.ErrInvalidAccountData)
	assert.ErrorIs(t, Decode([]byte{1, 2}, Discriminator("Sample"), &out), errs.ErrInvalidAccountData)
}

func TestMinimumBalance(t *testing.T) {
	assert.Equal(t, uint64(890_880), MinimumBalance(0))
	assert.Equal(t, uint64(2_039_280), MinimumBalance(165))
}
