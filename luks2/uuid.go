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

	"github.com/google/uuid"
)

// UUIDEqual compares two LUKS2 container UUID strings case-insensitively,
// tolerating the hyphenated and bare-hex forms interchangeably: the
// on-disk fixed-length UUID field and a caller-typed --uuid flag aren't
// guaranteed to agree on hyphenation.
func UUIDEqual(a, b string) bool {
	ua, erra := uuid.Parse(a)
	ub, errb := uuid.Parse(b)
	if erra != nil || errb != nil {
		return false
	}
	return ua == ub
}

// FormatUUID parses and re-renders s in canonical hyphenated lower-case
// form, for the passphrase prompt and for Scan results.
func FormatUUID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID %q: %w", s, err)
	}
	return u.String(), nil
}
