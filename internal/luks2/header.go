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
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

var (
	magicPrimary   = [6]byte{'L', 'U', 'K', 'S', 0xBA, 0xBE}
	magicSecondary = [6]byte{'S', 'K', 'U', 'L', 0xBA, 0xBE}
)

const headerVersion = 2

// label, csumAlg, uuid and subsystem are fixed-width, NUL-padded text
// fields in the binary header.
type label [48]byte

func (l label) String() string {
	return strings.TrimRight(string(l[:]), "\x00")
}

type fixedString40 [40]byte

func (u fixedString40) String() string {
	return strings.TrimRight(string(u[:]), "\x00")
}

// binaryHdr is the fixed 4096-byte on-disk LUKS2 header, minus padding that
// is read but never inspected.
type binaryHdr struct {
	Magic     [6]byte
	Version   uint16
	HdrSize   uint64
	SeqId     uint64
	Label     label
	CsumAlg   [32]byte
	Salt      [64]byte
	Uuid      fixedString40
	Subsystem label
	HdrOffset uint64
	Padding   [184]byte
	Csum      [64]byte
	_         [7 * 512]byte
}

const binaryHdrSize = 4096

// Header is the selected (primary or secondary) LUKS2 header copy, the one
// piece of it that callers outside this package need: where the JSON
// metadata area starts and how big it is.
type Header struct {
	HdrSize   uint64
	HdrOffset uint64
	Uuid      string
	Primary   bool
}

// sourceReader abstracts a block device or a detached header file: both
// just need to support reading at an absolute byte offset.
type sourceReader interface {
	io.ReaderAt
}

func readHeaderCopy(r sourceReader, offset int64, expectMagic [6]byte) (*binaryHdr, error) {
	buf := make([]byte, binaryHdrSize)
	if _, err := r.ReadAt(buf, offset); err != nil {
		return nil, wrapError(Io, "cannot read header copy", err)
	}

	var hdr binaryHdr
	if err := binary.Read(bytes.NewReader(buf), binary.BigEndian, &hdr); err != nil {
		return nil, wrapError(Io, "cannot decode header copy", err)
	}

	if !bytes.Equal(hdr.Magic[:], expectMagic[:]) || hdr.Version != headerVersion {
		return nil, newError(BadSignature, "bad header signature")
	}
	return &hdr, nil
}

// ReadHeader reads the primary header copy at offset 0 and the secondary
// copy at offset primary.hdr_size, and picks the authoritative one by
// seqid, with ties resolved to the primary.
func ReadHeader(r sourceReader) (*Header, error) {
	primary, err := readHeaderCopy(r, 0, magicPrimary)
	if err != nil {
		return nil, xerrors.Errorf("cannot read primary header: %w", err)
	}

	secondary, err := readHeaderCopy(r, int64(primary.HdrSize), magicSecondary)
	if err != nil {
		return nil, xerrors.Errorf("cannot read secondary header: %w", err)
	}

	chosen, isPrimary := primary, true
	if secondary.SeqId > primary.SeqId {
		chosen, isPrimary = secondary, false
	}

	return &Header{
		HdrSize:   chosen.HdrSize,
		HdrOffset: chosen.HdrOffset,
		Uuid:      chosen.Uuid.String(),
		Primary:   isPrimary,
	}, nil
}
