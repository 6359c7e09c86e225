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

// Descriptor is the downstream cryptodisk-framework state the core
// programs once a master key has been recovered and verified: the
// identity of the container plus the geometry of the payload segment it
// unlocked.
type Descriptor struct {
	Uuid          string
	ModName       string
	OffsetSectors uint64
	LogSectorSize uint
	TotalSectors  uint64

	// Encryption is the segment's cipher-mode string (e.g.
	// "aes-xts-plain64"), carried through for callers that need to
	// reprogram a downstream device outside the Device interface, such
	// as a dm-crypt mapping built after the unlock pipeline completes.
	Encryption string
}

// Device is the narrow interface the core consumes from the cryptodisk
// framework and its crypto primitives: program a cipher and key, then
// decrypt sectors in place. The core never touches a block cipher
// directly; it only ever goes through this interface.
type Device interface {
	// SetCipher configures the cipher (e.g. "aes") and mode-with-IV
	// string (e.g. "xts-plain64") that subsequent Decrypt calls use.
	SetCipher(cipherName, modeWithIV string) error

	// SetKey installs the symmetric key subsequent Decrypt calls use.
	SetKey(key []byte) error

	// Decrypt decrypts buf in place. startSector and logSectorSize
	// address buf's position within the configured cipher's sector
	// stream; buf's length must be a multiple of the sector size.
	Decrypt(buf []byte, startSector uint64, logSectorSize uint) error
}
