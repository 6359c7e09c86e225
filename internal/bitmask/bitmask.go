// -*- Mode: Go; indent-tabs-mode: t -*-

// Package bitmask provides a checked 64-bit membership mask, used to
// cross-reference LUKS2 digests against the keyslots and segments they
// cover without resorting to a raw, unchecked bit shift.
package bitmask

import (
	"github.com/willf/bitset"
	"golang.org/x/xerrors"
)

// MaxIndex is the largest index a Mask can hold.
const MaxIndex = 63

// Mask is a fixed 64-bit domain membership set. Unlike a bare uint64
// shifted by the caller, Set rejects indices outside [0, MaxIndex]
// instead of wrapping or panicking, and Test reports them as non-members.
type Mask struct {
	bits *bitset.BitSet
}

// New returns an empty Mask.
func New() *Mask {
	return &Mask{bits: bitset.New(MaxIndex + 1)}
}

// Set marks index as a member of the mask. It returns an error if index is
// out of range.
func (m *Mask) Set(index int) error {
	if index < 0 || index > MaxIndex {
		return xerrors.Errorf("index %d out of range", index)
	}
	m.bits.Set(uint(index))
	return nil
}

// Test reports whether index is a member of the mask. Out-of-range indices
// are simply not members.
func (m *Mask) Test(index int) bool {
	if index < 0 || index > MaxIndex {
		return false
	}
	return m.bits.Test(uint(index))
}

// Uint64 returns the mask as a raw 64-bit value, bit N set iff index N is a
// member.
func (m *Mask) Uint64() uint64 {
	var out uint64
	for i := 0; i <= MaxIndex; i++ {
		if m.bits.Test(uint(i)) {
			out |= 1 << uint(i)
		}
	}
	return out
}
