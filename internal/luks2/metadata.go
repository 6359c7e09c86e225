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
	"crypto"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/json"
	"strconv"

	"golang.org/x/xerrors"

	"github.com/snapcore/luks2unlock/internal/bitmask"
)

// KDFType is the on-disk kdf.type tag.
type KDFType string

const (
	KDFTypePBKDF2   KDFType = "pbkdf2"
	KDFTypeArgon2i  KDFType = "argon2i"
	KDFTypeArgon2id KDFType = "argon2id"
)

// Hash is the name of a digest algorithm as it appears in LUKS2 metadata.
type Hash string

const (
	HashSHA1   Hash = "sha1"
	HashSHA224 Hash = "sha224"
	HashSHA256 Hash = "sha256"
	HashSHA384 Hash = "sha384"
	HashSHA512 Hash = "sha512"
)

// GetHash resolves the named hash to a crypto.Hash. The zero value is
// returned, and Available() reports false, for an unrecognized name.
func (h Hash) GetHash() crypto.Hash {
	switch h {
	case HashSHA1:
		return crypto.SHA1
	case HashSHA224:
		return crypto.SHA224
	case HashSHA256:
		return crypto.SHA256
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	default:
		return 0
	}
}

// KeyslotType is the on-disk keyslot.type tag.
type KeyslotType string

const KeyslotTypeLUKS2 KeyslotType = "luks2"

// AFType is the on-disk af.type tag.
type AFType string

const AFTypeLUKS1 AFType = "luks1"

// AreaType is the on-disk area.type tag.
type AreaType string

const AreaTypeRaw AreaType = "raw"

// JsonNumber accepts a JSON numeric leaf encoded either as a bare number or
// as a quoted decimal string, the way cryptsetup's own metadata writer
// sometimes does for values that don't fit comfortably in IEEE754 doubles.
type JsonNumber string

func (n *JsonNumber) UnmarshalJSON(data []byte) error {
	*n = JsonNumber(bytes.Trim(data, `"`))
	return nil
}

func (n JsonNumber) Int() (int, error) {
	return strconv.Atoi(string(n))
}

func (n JsonNumber) Uint64() (uint64, error) {
	return strconv.ParseUint(string(n), 10, 64)
}

// Area describes where the AF-split, encrypted master key lives for a
// keyslot, and the cipher protecting it.
type Area struct {
	Type       AreaType
	Offset     uint64
	Size       uint64
	Encryption string
	KeySize    int
}

func (a *Area) UnmarshalJSON(data []byte) error {
	var d struct {
		Type       AreaType
		Offset     JsonNumber
		Size       JsonNumber
		Encryption string
		KeySize    JsonNumber `json:"key_size"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return wrapError(BadArgument, "missing or invalid key area", err)
	}
	if d.Type != AreaTypeRaw {
		return newError(BadArgument, "unsupported key area type: "+string(d.Type))
	}
	offset, err := d.Offset.Uint64()
	if err != nil {
		return wrapError(BadArgument, "missing key area information", err)
	}
	size, err := d.Size.Uint64()
	if err != nil {
		return wrapError(BadArgument, "missing key area information", err)
	}
	keySize, err := d.KeySize.Int()
	if err != nil {
		return wrapError(BadArgument, "missing key area information", err)
	}
	if d.Encryption == "" {
		return newError(BadArgument, "missing key area information")
	}
	*a = Area{Type: d.Type, Offset: offset, Size: size, Encryption: d.Encryption, KeySize: keySize}
	return nil
}

// Argon2Params are the kdf parameters for an argon2i/argon2id keyslot.
// Argon2 keyslots are parsed but never used to derive a key: DecryptKey
// refuses them at runtime.
type Argon2Params struct {
	Time   int
	Memory int
	Cpus   int
}

// PBKDF2Params are the kdf parameters for a pbkdf2 keyslot.
type PBKDF2Params struct {
	Hash       Hash
	Iterations int
}

// KDF is the tagged union over a keyslot's key derivation function.
type KDF struct {
	Type   KDFType
	Salt   []byte
	Argon2 *Argon2Params
	PBKDF2 *PBKDF2Params
}

func (k *KDF) UnmarshalJSON(data []byte) error {
	var d struct {
		Type KDFType
		Salt []byte
		Time JsonNumber
		// Argon2
		Memory JsonNumber
		Cpus   JsonNumber
		// PBKDF2
		Hash       Hash
		Iterations JsonNumber
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return wrapError(BadArgument, "missing or invalid KDF", err)
	}
	if len(d.Salt) == 0 {
		return newError(BadArgument, "missing or invalid KDF")
	}

	*k = KDF{Type: d.Type, Salt: d.Salt}

	switch d.Type {
	case KDFTypeArgon2i, KDFTypeArgon2id:
		t, err1 := d.Time.Int()
		m, err2 := d.Memory.Int()
		c, err3 := d.Cpus.Int()
		if err1 != nil || err2 != nil || err3 != nil {
			return newError(BadArgument, "missing Argon2i parameters")
		}
		k.Argon2 = &Argon2Params{Time: t, Memory: m, Cpus: c}
	case KDFTypePBKDF2:
		iterations, err := d.Iterations.Int()
		if err != nil || d.Hash == "" {
			return newError(BadArgument, "missing PBKDF2 parameters")
		}
		k.PBKDF2 = &PBKDF2Params{Hash: d.Hash, Iterations: iterations}
	default:
		return newError(BadArgument, "unsupported KDF type "+string(d.Type))
	}
	return nil
}

// AF are the anti-forensic splitter parameters for a keyslot.
type AF struct {
	Type    AFType
	Hash    Hash
	Stripes int
}

func (a *AF) UnmarshalJSON(data []byte) error {
	var d struct {
		Type    AFType
		Hash    Hash
		Stripes JsonNumber
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return wrapError(BadArgument, "missing or invalid area", err)
	}
	if d.Type != AFTypeLUKS1 {
		return newError(BadArgument, "unsupported AF type "+string(d.Type))
	}
	stripes, err := d.Stripes.Int()
	if err != nil || d.Hash == "" {
		return newError(BadArgument, "missing AF parameters")
	}
	*a = AF{Type: d.Type, Hash: d.Hash, Stripes: stripes}
	return nil
}

// Keyslot is a parsed credential envelope: a wrapped copy of the master
// key, protected by a user credential.
type Keyslot struct {
	Type     KeyslotType
	KeySize  int
	Priority int
	Area     Area
	KDF      KDF
	AF       AF
}

func (s *Keyslot) UnmarshalJSON(data []byte) error {
	var d struct {
		Type     KeyslotType
		KeySize  JsonNumber `json:"key_size"`
		Priority *JsonNumber
		Area     Area
		KDF      KDF
		AF       AF `json:"af"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return wrapError(BadArgument, "missing or invalid keyslot", err)
	}
	if d.Type != KeyslotTypeLUKS2 {
		return newError(BadArgument, "unsupported keyslot type "+string(d.Type))
	}
	keySize, err := d.KeySize.Int()
	if err != nil {
		return wrapError(BadArgument, "missing keyslot information", err)
	}

	priority := 1
	if d.Priority != nil {
		p, err := d.Priority.Int()
		if err != nil {
			return wrapError(BadArgument, "invalid keyslot priority", err)
		}
		priority = p
	}

	*s = Keyslot{
		Type:     d.Type,
		KeySize:  keySize,
		Priority: priority,
		Area:     d.Area,
		KDF:      d.KDF,
		AF:       d.AF,
	}
	return nil
}

// Segment is a contiguous region of payload that a single master key
// decrypts.
type Segment struct {
	Type       string
	Offset     uint64
	Size       string // decimal byte count, or the literal string "dynamic"
	Encryption string
	SectorSize int
}

func (s *Segment) UnmarshalJSON(data []byte) error {
	var d struct {
		Type       string
		Offset     JsonNumber
		Size       *string
		Encryption string
		SectorSize JsonNumber `json:"sector_size"`
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return wrapError(BadArgument, "invalid segment type", err)
	}
	if d.Type != "crypt" {
		return newError(BadArgument, "unsupported segment type "+d.Type)
	}
	if d.Size == nil {
		return newError(BadArgument, "missing segment parameters")
	}
	offset, err := d.Offset.Uint64()
	if err != nil {
		return wrapError(BadArgument, "missing segment parameters", err)
	}
	sectorSize, err := d.SectorSize.Int()
	if err != nil || d.Encryption == "" {
		return newError(BadArgument, "missing segment parameters")
	}
	*s = Segment{Type: d.Type, Offset: offset, Size: *d.Size, Encryption: d.Encryption, SectorSize: sectorSize}
	return nil
}

// Digest is a verification tag over a master key, bound to a subset of
// keyslots and segments.
type Digest struct {
	Type       string
	Keyslots   []int
	Segments   []int
	Salt       []byte
	Digest     []byte
	Hash       Hash
	Iterations int
}

func (d *Digest) UnmarshalJSON(data []byte) error {
	var t struct {
		Type       string
		Keyslots   []JsonNumber
		Segments   []JsonNumber
		Salt       []byte
		Digest     []byte
		Hash       Hash
		Iterations JsonNumber
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return wrapError(BadArgument, "invalid digest type", err)
	}
	if t.Type != "pbkdf2" {
		return newError(BadArgument, "unsupported digest type "+t.Type)
	}
	if len(t.Salt) == 0 || len(t.Digest) == 0 || t.Hash == "" {
		return newError(BadArgument, "missing digest parameters")
	}
	iterations, err := t.Iterations.Int()
	if err != nil {
		return wrapError(BadArgument, "missing digest parameters", err)
	}
	if len(t.Segments) == 0 {
		return newError(BadArgument, "digest references no segments")
	}
	if len(t.Keyslots) == 0 {
		return newError(BadArgument, "digest references no keyslots")
	}

	*d = Digest{Type: t.Type, Salt: t.Salt, Digest: t.Digest, Hash: t.Hash, Iterations: iterations}

	for _, v := range t.Segments {
		s, err := v.Int()
		if err != nil {
			return wrapError(BadArgument, "invalid segment", err)
		}
		d.Segments = append(d.Segments, s)
	}
	for _, v := range t.Keyslots {
		s, err := v.Int()
		if err != nil {
			return wrapError(BadArgument, "invalid keyslot", err)
		}
		d.Keyslots = append(d.Keyslots, s)
	}

	return nil
}

// KeyslotsMask folds d.Keyslots into a checked 64-bit membership mask,
// rejecting any index outside [0,63] with BadArgument.
func (d *Digest) KeyslotsMask() (*bitmask.Mask, error) {
	return foldMask(d.Keyslots)
}

// SegmentsMask folds d.Segments into a checked 64-bit membership mask.
func (d *Digest) SegmentsMask() (*bitmask.Mask, error) {
	return foldMask(d.Segments)
}

func foldMask(indices []int) (*bitmask.Mask, error) {
	m := bitmask.New()
	for _, i := range indices {
		if err := m.Set(i); err != nil {
			return nil, wrapError(BadArgument, "index out of range", err)
		}
	}
	return m, nil
}

// rawEntry is one member of an ordered JSON object ("0": {...}, "1": {...},
// ...), preserving the document's enumeration order and the decimal index
// each entry's key decodes to.
type rawEntry struct {
	Index int
	Raw   json.RawMessage
}

type orderedObject []rawEntry

func (o *orderedObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return xerrors.New("expected a JSON object")
	}

	var entries orderedObject
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return xerrors.New("expected a string object key")
		}
		index, err := strconv.Atoi(key)
		if err != nil {
			return wrapError(BadArgument, "invalid index "+key, err)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		entries = append(entries, rawEntry{Index: index, Raw: raw})
	}
	*o = entries
	return nil
}

// Metadata is the parsed top-level JSON metadata document: a set of
// keyslots, segments and digests in document order, not yet resolved into
// typed records (that's the graph resolver's job, matching the source's
// own lazy per-access parsing).
type Metadata struct {
	Keyslots orderedObject
	Segments orderedObject
	Digests  orderedObject
}

// ParseMetadata parses the JSON metadata blob that follows a LUKS2 header.
func ParseMetadata(data []byte) (*Metadata, error) {
	var d struct {
		Keyslots orderedObject
		Segments orderedObject
		Digests  orderedObject
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, wrapError(BadArgument, "invalid LUKS2 JSON header", err)
	}
	return &Metadata{Keyslots: d.Keyslots, Segments: d.Segments, Digests: d.Digests}, nil
}

// ParseKeyslot parses a single keyslot's JSON metadata entry.
func ParseKeyslot(raw json.RawMessage) (*Keyslot, error) {
	return parseKeyslot(raw)
}

func parseKeyslot(raw json.RawMessage) (*Keyslot, error) {
	var k Keyslot
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

func parseSegment(raw json.RawMessage) (*Segment, error) {
	var s Segment
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func parseDigest(raw json.RawMessage) (*Digest, error) {
	var d Digest
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
