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
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/xts"
)

// SoftwareDevice is a Device that decrypts entirely in memory, with no
// dependency on kernel dm-crypt. It supports the two cipher-mode strings
// cryptsetup offers for LUKS2 containers: "aes-xts-plain64" (the LUKS2
// default) and "aes-cbc-essiv:sha256" (the LUKS1-era mode some containers
// still carry forward).
//
// cbc-essiv is assembled from stdlib primitives: crypto/cipher's CBC mode
// plus a hand-derived ESSIV key, because none of the retrieved packages
// provide an ESSIV implementation (x/crypto/xts only covers XTS).
type SoftwareDevice struct {
	cipherName string
	modeWithIV string

	xtsCipher *xts.Cipher

	dataBlock  cipher.Block
	essivBlock cipher.Block
}

var _ Device = (*SoftwareDevice)(nil)

// SetCipher implements Device.
func (d *SoftwareDevice) SetCipher(cipherName, modeWithIV string) error {
	if cipherName != "aes" {
		return fmt.Errorf("unsupported cipher %q", cipherName)
	}
	switch {
	case modeWithIV == "xts-plain64":
	case len(modeWithIV) > len("cbc-essiv:") && modeWithIV[:len("cbc-essiv:")] == "cbc-essiv:":
		if hashName := modeWithIV[len("cbc-essiv:"):]; hashName != "sha256" {
			return fmt.Errorf("unsupported ESSIV hash %q", hashName)
		}
	default:
		return fmt.Errorf("unsupported cipher mode %q", modeWithIV)
	}
	d.cipherName = cipherName
	d.modeWithIV = modeWithIV
	return nil
}

// SetKey implements Device.
func (d *SoftwareDevice) SetKey(key []byte) error {
	switch d.modeWithIV {
	case "xts-plain64":
		c, err := xts.NewCipher(aes.NewCipher, key)
		if err != nil {
			return fmt.Errorf("cannot construct XTS cipher: %w", err)
		}
		d.xtsCipher = c
		return nil
	case "cbc-essiv:sha256":
		dataBlock, err := aes.NewCipher(key)
		if err != nil {
			return fmt.Errorf("cannot construct data cipher: %w", err)
		}
		h := sha256.Sum256(key)
		essivBlock, err := aes.NewCipher(h[:])
		if err != nil {
			return fmt.Errorf("cannot construct ESSIV cipher: %w", err)
		}
		d.dataBlock = dataBlock
		d.essivBlock = essivBlock
		return nil
	default:
		return fmt.Errorf("SetKey called before a supported SetCipher")
	}
}

// essivIV derives the per-sector CBC initialization vector the ESSIV
// scheme uses: the sector number, little-endian in a cipher-block-sized
// buffer, encrypted under the hash-of-key ESSIV block.
func essivIV(block cipher.Block, sector uint64) []byte {
	plain := make([]byte, block.BlockSize())
	binary.LittleEndian.PutUint64(plain, sector)
	iv := make([]byte, block.BlockSize())
	block.Encrypt(iv, plain)
	return iv
}

// Decrypt implements Device.
func (d *SoftwareDevice) Decrypt(buf []byte, startSector uint64, logSectorSize uint) error {
	sectorSize := 1 << logSectorSize
	if len(buf)%sectorSize != 0 {
		return fmt.Errorf("buffer length %d is not a multiple of the sector size %d", len(buf), sectorSize)
	}

	switch d.modeWithIV {
	case "xts-plain64":
		if d.xtsCipher == nil {
			return fmt.Errorf("Decrypt called before SetKey")
		}
		for off := 0; off < len(buf); off += sectorSize {
			sector := startSector + uint64(off/sectorSize)
			block := buf[off : off+sectorSize]
			d.xtsCipher.Decrypt(block, block, sector)
		}
		return nil
	case "cbc-essiv:sha256":
		if d.dataBlock == nil || d.essivBlock == nil {
			return fmt.Errorf("Decrypt called before SetKey")
		}
		for off := 0; off < len(buf); off += sectorSize {
			sector := startSector + uint64(off/sectorSize)
			iv := essivIV(d.essivBlock, sector)
			mode := cipher.NewCBCDecrypter(d.dataBlock, iv)
			block := buf[off : off+sectorSize]
			mode.CryptBlocks(block, block)
		}
		return nil
	default:
		return fmt.Errorf("Decrypt called before SetCipher")
	}
}
