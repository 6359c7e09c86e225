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

import "fmt"

// UnlockOptions bundles the knobs an unlock attempt needs beyond the raw
// device and the passphrase itself: where to read the header from, which
// container to insist on, and whether boot-mode chainloading was requested
// (always refused, see CheckBoot).
type UnlockOptions struct {
	// DetachedHeaderPath, if non-empty, names a detached header file that
	// is read instead of the device for the header, the JSON metadata and
	// the encrypted keyslot areas; the device still holds the payload.
	DetachedHeaderPath string

	// CheckUUID, if non-empty, is compared case-insensitively against the
	// container's UUID; a mismatch makes Scan report "no match" rather
	// than an error.
	CheckUUID string

	// CheckBoot requests the "boot" keyslot variant used for full-disk
	// chainloading. This module doesn't support it; Validate rejects it.
	CheckBoot bool

	// KeyFile, if non-empty, names a file whose entire contents (including
	// any embedded NUL byte) are used verbatim as the passphrase, instead
	// of prompting the terminal.
	KeyFile string
}

// Validate rejects option combinations the unlock driver cannot honor.
func (o *UnlockOptions) Validate() error {
	if o.CheckBoot {
		return fmt.Errorf("boot-mode unlock is not supported")
	}
	return nil
}
