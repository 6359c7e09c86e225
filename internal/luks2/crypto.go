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
	"crypto/subtle"
	"strings"

	"golang.org/x/xerrors"

	"github.com/snapcore/luks2unlock/internal/pbkdf2"
)

const sectorSizeArea = 512
const logSectorSizeArea = 9

// splitCipher splits a LUKS "CIPHER-MODE-IV" string into its cipher name
// and mode-with-IV parts at the first '-'. A cipher string with no '-' is
// rejected.
func splitCipher(encryption string) (cipherName, modeWithIV string, err error) {
	idx := strings.IndexByte(encryption, '-')
	if idx < 0 {
		return "", "", newError(BadArgument, "invalid encryption")
	}
	return encryption[:idx], encryption[idx+1:], nil
}

// DecryptKey implements the crypto pipeline (decrypt_key): derive the area
// key from passphrase, decrypt the keyslot's on-disk area with it, and
// anti-forensic merge the result into a candidate master key.
//
// src is read at k.Area.Offset for k.Area.Size bytes and must support
// ReadAt; dev is the downstream device that performs the area decryption,
// reused afterwards by the caller to decrypt payload sectors once the
// master key is confirmed.
func DecryptKey(k *Keyslot, passphrase []byte, dev Device, src sourceReader) ([]byte, error) {
	// k.KDF.Salt was already base64-decoded while unmarshalling the
	// JSON metadata: encoding/json decodes a base64 string directly
	// into a []byte target.
	salt := k.KDF.Salt
	if len(salt) == 0 {
		return nil, newError(BadArgument, "invalid keyslot salt")
	}

	var areaKey []byte
	var err error
	switch k.KDF.Type {
	case KDFTypeArgon2i, KDFTypeArgon2id:
		return nil, newError(BadArgument, "Argon2 not supported")
	case KDFTypePBKDF2:
		hash := k.KDF.PBKDF2.Hash.GetHash()
		if !hash.Available() {
			return nil, newError(NotFound, "couldn't load "+string(k.KDF.PBKDF2.Hash)+" hash")
		}
		areaKey, err = pbkdf2.Key(passphrase, salt, &pbkdf2.Params{
			Iterations: uint(k.KDF.PBKDF2.Iterations),
			HashAlg:    hash,
		}, uint(k.Area.KeySize))
		if err != nil {
			return nil, wrapError(BadArgument, "pbkdf2 failed", err)
		}
	default:
		return nil, newError(BadArgument, "unsupported KDF type")
	}

	cipherName, modeWithIV, err := splitCipher(k.Area.Encryption)
	if err != nil {
		return nil, err
	}
	if err := dev.SetCipher(cipherName, modeWithIV); err != nil {
		return nil, wrapError(BadArgument, "set cipher failed", err)
	}
	if err := dev.SetKey(areaKey); err != nil {
		return nil, wrapError(BadArgument, "set key failed", err)
	}

	if k.Area.Size%sectorSizeArea != 0 {
		return nil, newError(BadArgument, "key area size is not sector aligned")
	}
	splitKey := make([]byte, k.Area.Size)
	if _, err := src.ReadAt(splitKey, int64(k.Area.Offset)); err != nil {
		return nil, wrapError(Io, "read error", err)
	}

	// The encrypted key slots area always uses 512-byte sectors,
	// regardless of the encrypted data's own sector size.
	if err := dev.Decrypt(splitKey, 0, logSectorSizeArea); err != nil {
		return nil, wrapError(BadArgument, "decrypt failed", err)
	}

	afHash := k.AF.Hash.GetHash()
	if !afHash.Available() {
		return nil, newError(NotFound, "couldn't load "+string(k.AF.Hash)+" hash")
	}

	masterKey, err := afMerge(afHash, splitKey, k.KeySize, k.AF.Stripes)
	if err != nil {
		return nil, xerrors.Errorf("AF_merge failed: %w", err)
	}

	debugf("Candidate key recovered")
	return masterKey, nil
}

// VerifyKey implements verify_key: it checks a candidate master key
// against a digest's stored, salted PBKDF2 hash using a constant-time
// comparison.
func VerifyKey(d *Digest, candidate []byte) error {
	// d.Digest and d.Salt were already base64-decoded while
	// unmarshalling the JSON metadata.
	digest := d.Digest
	salt := d.Salt
	if len(digest) == 0 || len(salt) == 0 {
		return newError(BadArgument, "invalid digest")
	}

	hash := d.Hash.GetHash()
	if !hash.Available() {
		return newError(NotFound, "couldn't load "+string(d.Hash)+" hash")
	}

	expected, err := pbkdf2.Key(candidate, salt, &pbkdf2.Params{
		Iterations: uint(d.Iterations),
		HashAlg:    hash,
	}, uint(len(digest)))
	if err != nil {
		return wrapError(BadArgument, "pbkdf2 failed", err)
	}

	if subtle.ConstantTimeCompare(expected, digest) != 1 {
		return newError(AccessDenied, "mismatching digests")
	}
	return nil
}
