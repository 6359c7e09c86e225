// -*- Mode: Go; indent-tabs-mode: t -*-

/*
 * Copyright (C) 2024 Canonical Ltd
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 3 as
 * published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package luks2

import (
	"crypto"
	"crypto/rand"
	"encoding/binary"
)

// diffuse passes block through hash in digest-sized chunks, each chunk
// preceded by its big-endian chunk index, reassembling the output to the
// same length as the input. This is the anti-forensic splitter's
// diffusion step, reused from LUKS1.
func diffuse(hash crypto.Hash, block []byte) []byte {
	digestLen := hash.Size()
	out := make([]byte, 0, len(block))

	for k := 0; k*digestLen < len(block); k++ {
		start := k * digestLen
		end := start + digestLen
		if end > len(block) {
			end = len(block)
		}
		chunk := block[start:end]

		h := hash.New()
		var idx [4]byte
		binary.BigEndian.PutUint32(idx[:], uint32(k))
		h.Write(idx[:])
		h.Write(chunk)
		digest := h.Sum(nil)

		out = append(out, digest[:len(chunk)]...)
	}
	return out
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// afMerge reverses the anti-forensic split: src holds stripes*keySize
// bytes of split key material, and the result is the keySize-byte key
// that was originally split.
func afMerge(hash crypto.Hash, src []byte, keySize, stripes int) ([]byte, error) {
	if !hash.Available() {
		return nil, newError(NotFound, "AF hash not available")
	}
	if stripes <= 0 || keySize <= 0 {
		return nil, newError(BadArgument, "invalid AF parameters")
	}
	if stripes > (1<<31)/keySize {
		return nil, newError(BadArgument, "AF stripes*keySize overflow")
	}
	if len(src) != stripes*keySize {
		return nil, newError(BadArgument, "AF source has the wrong length")
	}

	d := make([]byte, keySize)
	for k := 0; k < stripes-1; k++ {
		chunk := src[k*keySize : (k+1)*keySize]
		xorInto(d, chunk)
		d = diffuse(hash, d)
	}

	out := make([]byte, keySize)
	copy(out, d)
	xorInto(out, src[(stripes-1)*keySize:])
	return out, nil
}

// AfSplit is the mathematical inverse of afMerge, used only by tests to
// build AF-split fixtures: it picks random stripes and adjusts the last
// one so that afMerge recovers key exactly.
func AfSplit(hash crypto.Hash, key []byte, stripes int) ([]byte, error) {
	keySize := len(key)
	src := make([]byte, stripes*keySize)
	if _, err := rand.Read(src[:(stripes-1)*keySize]); err != nil {
		return nil, err
	}

	d := make([]byte, keySize)
	for k := 0; k < stripes-1; k++ {
		chunk := src[k*keySize : (k+1)*keySize]
		xorInto(d, chunk)
		d = diffuse(hash, d)
	}

	last := src[(stripes-1)*keySize:]
	copy(last, d)
	xorInto(last, key)

	return src, nil
}
