package store

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

// DiscriminatorSize is the length of the type tag prefixed to account data.
const DiscriminatorSize = 8

// Discriminator computes the 8-byte tag for an account type name.
func Discriminator(name string) [DiscriminatorSize]byte {
	var d [DiscriminatorSize]byte
	h := sha256.Sum256([]byte("account:" + name))
	copy(d[:], h[:DiscriminatorSize])
	return d
}

// Encode serializes v with borsh behind the discriminator.
func Encode(disc [DiscriminatorSize]byte, v interface{}) ([]byte, error) {
	body, err := bin.MarshalBorsh(v)
	if err != nil {
		return nil, fmt.Errorf("borsh encode: %w", err)
	}
	out := make([]byte, 0, DiscriminatorSize+len(body))
	out = append(out, disc[:]...)
	return append(out, body...), nil
}

// Decode checks the discriminator and deserializes the borsh body into v.
func Decode(data []byte, disc [DiscriminatorSize]byte, v interface{}) error {
	if len(data) < DiscriminatorSize || !bytes.Equal(data[:DiscriminatorSize], disc[:]) {
		return errs.ErrInvalidAccountData
	}
	if err := bin.UnmarshalBorsh(v, data[DiscriminatorSize:]); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidAccountData, err)
	}
	return nil
}

// HasDiscriminator reports whether data is tagged with disc.
func HasDiscriminator(data []byte, disc [DiscriminatorSize]byte) bool {
	return len(data) >= DiscriminatorSize && bytes.Equal(data[:DiscriminatorSize], disc[:])
}
