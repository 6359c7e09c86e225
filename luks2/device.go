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

// Package luks2 is the public API of this module: a LUKS2 unlock backend
// that can be registered with a cryptodisk-style framework, plus the
// downstream device implementations and passphrase handling an unlock
// attempt needs end to end. The unlock pipeline itself lives in
// internal/luks2; this package wires it to real block devices and real
// user input.
package luks2

import (
	core "github.com/snapcore/luks2unlock/internal/luks2"
)

// Device is the downstream decrypting block device the unlock pipeline
// programs: it's told the cipher and key recovered from a keyslot, and
// asked to decrypt sectors in place, first for the keyslot area itself
// and then, once a master key is confirmed, for the payload.
type Device = core.Device

// Descriptor is what a successful unlock hands back to the caller so it
// can drive its own downstream device: the container's UUID, the module
// name to register it under, and the payload segment's geometry.
type Descriptor = core.Descriptor

// SourceInfo carries the two things about the source device the core
// can't discover itself and needs to size a "dynamic" segment.
type SourceInfo = core.SourceInfo

// ScanResult is what a successful probe of a LUKS2 container returns.
type ScanResult = core.ScanResult

// Kind and Error are re-exported so callers can match on failure kind
// without reaching into internal/luks2 themselves.
type Kind = core.Kind
type Error = core.Error

const (
	BadSignature = core.BadSignature
	BadArgument  = core.BadArgument
	NotFound     = core.NotFound
	Io           = core.Io
	OutOfMemory  = core.OutOfMemory
	AccessDenied = core.AccessDenied
)

// KindOf reports the Kind of err if it, or something it wraps, carries one.
func KindOf(err error) (Kind, bool) {
	return core.KindOf(err)
}

// AcquireSharedLock acquires an advisory shared lock on the LUKS2 volume
// at path, following the same convention libcryptsetup uses so an unlock
// attempt here doesn't race a concurrent cryptsetup invocation against
// the same container. The returned release func must be called once the
// caller is done reading path.
func AcquireSharedLock(path string) (release func(), err error) {
	return core.AcquireSharedLock(path)
}
