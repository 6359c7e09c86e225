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

// Package testutil provides fixture builders and gocheck checkers shared
// across this module's test suites.
package testutil

import (
	"bytes"
	"encoding/binary"
)

const (
	HeaderSize = 4096

	MagicPrimary   = "LUKS\xBA\xBE"
	MagicSecondary = "SKUL\xBA\xBE"
)

// HeaderCopy mirrors the fixed, on-disk layout of one LUKS2 header copy,
// for tests to build and corrupt at will.
type HeaderCopy struct {
	Magic     [6]byte
	Version   uint16
	HdrSize   uint64
	SeqId     uint64
	Uuid      string
	HdrOffset uint64
}

// Bytes serializes a full, 4096-byte, zero-padded header copy.
func (h HeaderCopy) Bytes() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, h.Magic)
	binary.Write(&buf, binary.BigEndian, h.Version)
	binary.Write(&buf, binary.BigEndian, h.HdrSize)
	binary.Write(&buf, binary.BigEndian, h.SeqId)

	var label [48]byte
	buf.Write(label[:])

	var csumAlg [32]byte
	buf.Write(csumAlg[:])

	var salt [64]byte
	buf.Write(salt[:])

	var uuid [40]byte
	copy(uuid[:], h.Uuid)
	buf.Write(uuid[:])

	var subsystem [48]byte
	buf.Write(subsystem[:])

	binary.Write(&buf, binary.BigEndian, h.HdrOffset)

	padding := make([]byte, HeaderSize-buf.Len())
	buf.Write(padding)

	return buf.Bytes()
}

// BuildContainer assembles a complete in-memory LUKS2 container from a
// primary header copy, a secondary header copy, and the JSON metadata
// text that follows the authoritative header copy. hdrSize is the value
// both headers should declare for HdrSize (and so the offset the
// secondary copy is written at, and the size of each header's JSON area).
func BuildContainer(primary, secondary HeaderCopy, hdrSize uint64, jsonText string) []byte {
	jsonArea := make([]byte, hdrSize-HeaderSize)
	copy(jsonArea, jsonText)
	// jsonArea is zero-initialized, so it's already NUL-terminated
	// (and NUL-padded) as long as jsonText fits.

	buf := make([]byte, 0, 2*hdrSize)
	buf = append(buf, primary.Bytes()...)
	buf = append(buf, jsonArea...)
	buf = append(buf, secondary.Bytes()...)
	buf = append(buf, jsonArea...)
	return buf
}
