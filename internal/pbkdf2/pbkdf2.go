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

package pbkdf2

import (
	"crypto"
	"errors"
	"math"

	"golang.org/x/crypto/pbkdf2"
)

// Params are the key derivation parameters for PBKDF2.
type Params struct {
	// Iterations are the number of iterations. This can't be
	// greater than math.MaxInt.
	Iterations uint

	// HashAlg is the digest algorithm to use. The algorithm
	// must be available
	HashAlg crypto.Hash
}

// Key derives a key of the desired length from the supplied passphrase and salt,
// using the supplied parameters.
//
// passphrase is taken as raw bytes rather than a string: a passphrase read
// from a key file may contain embedded NUL bytes, and those are passed to
// the KDF unmodified.
//
// This will return an error if the key length or number of iterations are greater
// than the maximum value of a signed integer, or the supplied digest algorithm is
// not available.
func Key(passphrase []byte, salt []byte, params *Params, keyLen uint) ([]byte, error) {
	switch {
	case params == nil:
		return nil, errors.New("nil params")
	case params.Iterations > math.MaxInt:
		return nil, errors.New("too many iterations")
	case !params.HashAlg.Available():
		return nil, errors.New("unavailable digest algorithm")
	case keyLen > math.MaxInt:
		return nil, errors.New("invalid key length")
	}
	return pbkdf2.Key(passphrase, salt, int(params.Iterations), int(keyLen), params.HashAlg.New), nil
}
