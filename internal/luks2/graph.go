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

import "golang.org/x/xerrors"

// GetKeyslot binds the i-th keyslot in m's document order to the digest
// that covers it and the segment that digest covers, and returns the
// keyslot's own decimal index (its object key, not its position), along
// with all three parsed records.
func GetKeyslot(m *Metadata, i int) (keyslotID int, keyslot *Keyslot, digest *Digest, segment *Segment, err error) {
	if i < 0 || i >= len(m.Keyslots) {
		return 0, nil, nil, nil, newError(BadArgument, "could not parse keyslot index")
	}

	entry := m.Keyslots[i]
	keyslotID = entry.Index
	keyslot, err = parseKeyslot(entry.Raw)
	if err != nil {
		return 0, nil, nil, nil, xerrors.Errorf("could not parse keyslot index %d: %w", i, err)
	}

	digest, err = findDigestForKeyslot(m, keyslotID)
	if err != nil {
		return 0, nil, nil, nil, err
	}

	segment, err = findSegmentForDigest(m, digest)
	if err != nil {
		return 0, nil, nil, nil, err
	}

	return keyslotID, keyslot, digest, segment, nil
}

func findDigestForKeyslot(m *Metadata, keyslotID int) (*Digest, error) {
	if len(m.Digests) == 0 {
		return nil, newError(BadArgument, "could not get digests")
	}
	for i, entry := range m.Digests {
		d, err := parseDigest(entry.Raw)
		if err != nil {
			return nil, xerrors.Errorf("could not parse digest index %d: %w", i, err)
		}
		mask, err := d.KeyslotsMask()
		if err != nil {
			return nil, err
		}
		if mask.Test(keyslotID) {
			return d, nil
		}
	}
	return nil, newError(NotFound, "no digest for keyslot")
}

func findSegmentForDigest(m *Metadata, digest *Digest) (*Segment, error) {
	if len(m.Segments) == 0 {
		return nil, newError(BadArgument, "could not get segments")
	}
	segmentsMask, err := digest.SegmentsMask()
	if err != nil {
		return nil, err
	}
	for i, entry := range m.Segments {
		if !segmentsMask.Test(entry.Index) {
			continue
		}
		s, err := parseSegment(entry.Raw)
		if err != nil {
			return nil, xerrors.Errorf("could not parse segment index %d: %w", i, err)
		}
		return s, nil
	}
	return nil, newError(NotFound, "no segment for digest")
}
