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
	"context"
	"encoding/hex"
	"fmt"
	"os/exec"
	"strings"
)

// runDMCommand runs dmsetup with args, returning its combined output. It's
// a package-level var, in the same spirit as lock.go's dataDeviceFstat, so
// tests can substitute a fake without a real dmsetup binary on PATH.
var runDMCommand = func(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, "dmsetup", args...).CombinedOutput()
}

// ActivateDM maps the unlocked payload segment described by descr onto a
// real device-mapper block device at /dev/mapper/<mapperName>, by running
// "dmsetup create" with a crypt target table. The crypt target line is:
//
//	<start> <len> crypt <cipher> <key> <iv_offset> <device> <offset>
//
// sourcePath is the backing block device descr's segment was resolved
// against; masterKey is the key RecoverKey returned.
func ActivateDM(ctx context.Context, mapperName, sourcePath string, descr *Descriptor, masterKey []byte) error {
	cipherName, modeWithIV, err := splitCipherPublic(descr)
	if err != nil {
		return err
	}

	table := fmt.Sprintf("0 %d crypt %s-%s %s 0 %s %d",
		descr.TotalSectors<<(descr.LogSectorSize-9),
		cipherName, modeWithIV,
		hex.EncodeToString(masterKey),
		sourcePath, descr.OffsetSectors<<(descr.LogSectorSize-9))

	out, err := runDMCommand(ctx, "create", mapperName, "--table", table)
	if err != nil {
		return fmt.Errorf("cannot create dm device %s: %w (%s)", mapperName, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// DeactivateDM removes a device-mapper mapping created by ActivateDM.
func DeactivateDM(ctx context.Context, mapperName string) error {
	out, err := runDMCommand(ctx, "remove", mapperName)
	if err != nil {
		return fmt.Errorf("cannot remove dm device %s: %w (%s)", mapperName, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// splitCipherPublic reads the dash-joined cipher-mode string dm-crypt's
// table format wants straight off the descriptor.
func splitCipherPublic(descr *Descriptor) (cipherName, modeWithIV string, err error) {
	if descr.Encryption == "" {
		return "", "", fmt.Errorf("descriptor has no recorded encryption string")
	}
	i := strings.IndexByte(descr.Encryption, '-')
	if i < 0 {
		return "", "", fmt.Errorf("invalid encryption string %q", descr.Encryption)
	}
	return descr.Encryption[:i], descr.Encryption[i+1:], nil
}
