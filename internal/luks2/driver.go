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
	"math/bits"
	"strconv"

	"golang.org/x/xerrors"
)

// SourceInfo describes the properties of the device the core is unlocking
// that the unlock driver needs but can't discover itself: its sector size
// and size, used to compute a "dynamic"-sized segment's sector count.
// TotalSectors is the device's size expressed in the device's own native
// sectors (each 1<<LogSectorSize bytes), not in bytes.
type SourceInfo struct {
	LogSectorSize uint
	TotalSectors  uint64
}

// ScanResult is what Scan returns for a LUKS2 container it recognizes.
type ScanResult struct {
	Uuid    string
	ModName string
}

// Scan implements the probe path (scan): it reads the header and reports
// the container's identity. UUID matching against a caller-supplied check
// UUID is the public package's job (it has the UUID-parsing library this
// package doesn't depend on); this just reports what's on disk. It never
// returns an error for a device that simply isn't LUKS2: the zero value
// and a nil error mean "no match", mirroring the source's "clear
// grub_errno and return NULL" behavior.
func Scan(source sourceReader) (*ScanResult, error) {
	header, err := ReadHeader(source)
	if err != nil {
		return nil, nil
	}

	return &ScanResult{Uuid: header.Uuid, ModName: "luks2"}, nil
}

// ReadMetadata reads the header and its JSON metadata from source,
// independent of any unlock attempt. This lets a caller list keyslots
// (priorities, KDF types) without driving the KDF.
func ReadMetadata(source sourceReader) (*Header, *Metadata, error) {
	header, err := ReadHeader(source)
	if err != nil {
		return nil, nil, xerrors.Errorf("cannot read header: %w", err)
	}

	jsonLen := header.HdrSize - binaryHdrSize
	buf := make([]byte, jsonLen)
	if _, err := source.ReadAt(buf, int64(header.HdrOffset)+binaryHdrSize); err != nil {
		return nil, nil, wrapError(Io, "cannot read JSON metadata area", err)
	}

	nul := bytes.IndexByte(buf, 0)
	if nul < 0 {
		return nil, nil, newError(BadArgument, "JSON metadata area is not NUL-terminated")
	}
	buf = buf[:nul]

	metadata, err := ParseMetadata(buf)
	if err != nil {
		return nil, nil, xerrors.Errorf("invalid LUKS2 JSON header: %w", err)
	}

	return header, metadata, nil
}

// log2Uint computes the base-2 logarithm of a power-of-two value.
func log2Uint(v uint64) uint {
	return uint(bits.Len64(v) - 1)
}

// segmentSectors computes offset_sectors, log_sector_size and
// total_sectors for segment, given the properties of the source device
// (needed only for a "dynamic"-sized segment).
func segmentSectors(segment *Segment, info SourceInfo) (offsetSectors uint64, logSectorSize uint, totalSectors uint64, err error) {
	if segment.SectorSize <= 0 || segment.SectorSize&(segment.SectorSize-1) != 0 {
		return 0, 0, 0, newError(BadArgument, "segment sector size is not a power of two")
	}

	offsetSectors = segment.Offset / uint64(segment.SectorSize)
	logSectorSize = log2Uint(uint64(segment.SectorSize))

	if segment.Size == "dynamic" {
		totalSectors = (info.TotalSectors >> (logSectorSize - info.LogSectorSize)) - offsetSectors
		return offsetSectors, logSectorSize, totalSectors, nil
	}

	size, err := strconv.ParseUint(segment.Size, 10, 64)
	if err != nil {
		return 0, 0, 0, wrapError(BadArgument, "invalid segment size", err)
	}
	totalSectors = size >> logSectorSize
	return offsetSectors, logSectorSize, totalSectors, nil
}

// RecoverKey implements the unlock driver (recover_key): it reads the
// header and metadata from headerSrc (which may be a detached header
// file, or equal to source if there is none), tries passphrase against
// every non-ignored keyslot in document order, and on success returns the
// descriptor to program and the recovered master key.
func RecoverKey(headerSrc sourceReader, dev Device, passphrase []byte, info SourceInfo) (*Descriptor, []byte, error) {
	header, metadata, err := ReadMetadata(headerSrc)
	if err != nil {
		return nil, nil, err
	}

	var masterKey []byte
	var openSegment *Segment

	for i := 0; i < len(metadata.Keyslots); i++ {
		keyslotID, keyslot, digest, segment, err := GetKeyslot(metadata, i)
		if err != nil {
			debugf("Failed to get keyslot %d", i)
			continue
		}

		if keyslot.Priority == 0 {
			debugf("Ignoring keyslot %d due to priority", i)
			continue
		}

		debugf("Trying keyslot %d", i)

		candidate, err := DecryptKey(keyslot, passphrase, dev, headerSrc)
		if err != nil {
			debugf("Decryption with keyslot %d failed", i)
			continue
		}

		if err := VerifyKey(digest, candidate); err != nil {
			debugf("Could not open keyslot %d", i)
			continue
		}

		debugf("Slot %d opened", keyslotID)
		masterKey = candidate
		openSegment = segment
		break
	}

	if masterKey == nil {
		return nil, nil, newError(AccessDenied, "Invalid passphrase")
	}

	cipherName, modeWithIV, err := splitCipher(openSegment.Encryption)
	if err != nil {
		return nil, nil, err
	}
	if err := dev.SetCipher(cipherName, modeWithIV); err != nil {
		return nil, nil, wrapError(BadArgument, "set cipher failed", err)
	}
	if err := dev.SetKey(masterKey); err != nil {
		return nil, nil, wrapError(BadArgument, "set key failed", err)
	}

	offsetSectors, logSectorSize, totalSectors, err := segmentSectors(openSegment, info)
	if err != nil {
		return nil, nil, err
	}

	descr := &Descriptor{
		Uuid:          header.Uuid,
		ModName:       "luks2",
		OffsetSectors: offsetSectors,
		LogSectorSize: logSectorSize,
		TotalSectors:  totalSectors,
		Encryption:    openSegment.Encryption,
	}
	return descr, masterKey, nil
}
