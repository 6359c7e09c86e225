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
	"fmt"
	"math/bits"
	"os"

	"golang.org/x/sys/unix"
)

// SourceInfoFromBlockDevice queries f's size and logical sector size via
// the same BLKGETSIZE64/BLKSSZGET ioctls cryptsetup itself uses, and
// returns the SourceInfo RecoverKey needs to size a "dynamic" segment.
func SourceInfoFromBlockDevice(f *os.File) (SourceInfo, error) {
	rawSizeBytes, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKGETSIZE64)
	if err != nil {
		return SourceInfo{}, fmt.Errorf("cannot query device size: %w", err)
	}
	sizeBytes := uint64(rawSizeBytes)

	sectorSize, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil {
		return SourceInfo{}, fmt.Errorf("cannot query sector size: %w", err)
	}
	if sectorSize <= 0 || sectorSize&(sectorSize-1) != 0 {
		return SourceInfo{}, fmt.Errorf("device reports non-power-of-two sector size %d", sectorSize)
	}

	logSectorSize := uint(bits.Len(uint(sectorSize)) - 1)
	return SourceInfo{
		LogSectorSize: logSectorSize,
		TotalSectors:  sizeBytes >> logSectorSize,
	}, nil
}
