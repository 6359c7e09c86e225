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
	"io"

	core "github.com/snapcore/luks2unlock/internal/luks2"
)

// KeyslotInfo describes one keyslot without driving its KDF: enough to
// list what credential types a container offers and which slots an
// unlock attempt would actually try (priority 0 slots are skipped by the
// unlock driver).
type KeyslotInfo struct {
	KeyslotID int
	KDFType   core.KDFType
	KeySize   int
	Priority  int
}

// ListKeyslots reads source's header and JSON metadata and returns one
// KeyslotInfo per keyslot in document order, without decrypting any of
// them. A keyslot this module can't parse (for example, a forward-
// compatible type newer than anything parse_keyslot understands) is
// omitted rather than aborting the listing, in the same tolerant spirit
// as the unlock driver's own per-slot loop.
func ListKeyslots(source io.ReaderAt) ([]KeyslotInfo, error) {
	_, metadata, err := core.ReadMetadata(source)
	if err != nil {
		return nil, err
	}

	var out []KeyslotInfo
	for i := range metadata.Keyslots {
		entry := metadata.Keyslots[i]
		keyslot, err := core.ParseKeyslot(entry.Raw)
		if err != nil {
			continue
		}
		out = append(out, KeyslotInfo{
			KeyslotID: entry.Index,
			KDFType:   keyslot.KDF.Type,
			KeySize:   keyslot.KeySize,
			Priority:  keyslot.Priority,
		})
	}
	return out, nil
}
