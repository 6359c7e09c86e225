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
	"io"
	"sync"

	core "github.com/snapcore/luks2unlock/internal/luks2"
)

// Backend is a registered handler for LUKS2 containers: Scan probes a
// source for a LUKS2 container without driving any KDF, and RecoverKey
// runs the full unlock pipeline against it.
type Backend struct {
	// Name is the debug-channel and module name this backend reports
	// under.
	Name string
}

// NewBackend returns the single backend this package implements. There's
// only ever one concrete LUKS2 backend, but it's still a value rather than
// a package-level singleton so a caller can register it under a different
// Name, or hold several independently-unregisterable handles in tests.
func NewBackend() *Backend {
	return &Backend{Name: "luks2"}
}

// Scan implements the probe half of Backend: it reads the header at
// source and, if checkUUID is non-empty, matches it case-insensitively
// against what's on disk, tolerating either side being hyphenated or
// bare hex. Like the source's "clear grub_errno and return NULL"
// behavior, a mismatch or a non-LUKS2 source is reported as (nil, nil),
// not an error. The returned result's UUID is re-rendered in canonical
// hyphenated form, regardless of how it was spelled on disk.
func (b *Backend) Scan(source io.ReaderAt, checkUUID string) (*ScanResult, error) {
	result, err := core.Scan(source)
	if err != nil || result == nil {
		return nil, err
	}

	if checkUUID != "" && !UUIDEqual(checkUUID, result.Uuid) {
		return nil, nil
	}

	canonical, err := FormatUUID(result.Uuid)
	if err != nil {
		return nil, nil
	}
	result.Uuid = canonical
	return result, nil
}

// RecoverKey implements the unlock half of Backend: it walks the
// container's keyslots, tries passphrase against each one in document
// order (skipping priority 0 slots), and on success returns the payload
// segment's descriptor and the recovered master key.
// headerSrc is the device or detached header file the JSON metadata and
// keyslot areas are read from; dev is the downstream cryptodisk consumer
// that gets programmed with the recovered master key.
func (b *Backend) RecoverKey(headerSrc io.ReaderAt, dev Device, passphrase []byte, info SourceInfo) (*Descriptor, []byte, error) {
	return core.RecoverKey(headerSrc, dev, passphrase, info)
}

// ReadMetadata exposes the header+JSON decode independent of unlocking, so
// a caller can list keyslot priorities and KDF types without driving a KDF
// (see keyslot_info.go).
func (b *Backend) ReadMetadata(source io.ReaderAt) (*core.Header, *core.Metadata, error) {
	return core.ReadMetadata(source)
}

// registry is the process-wide set of registered backends, a
// mutex-protected map keyed by the name a cryptodisk framework would
// register backends under.
var registry = struct {
	mu       sync.Mutex
	backends map[string]*Backend
}{backends: make(map[string]*Backend)}

// Register adds b to the process-wide backend registry under name, failing
// if that name is already taken.
func Register(name string, b *Backend) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.backends[name]; exists {
		return fmt.Errorf("backend %q is already registered", name)
	}
	registry.backends[name] = b
	return nil
}

// Unregister removes the backend previously registered under name, if any.
func Unregister(name string) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.backends, name)
}

// Lookup returns the backend registered under name, if any.
func Lookup(name string) (*Backend, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	b, ok := registry.backends[name]
	return b, ok
}
