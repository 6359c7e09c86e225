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
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var dataDeviceFstat = unix.Fstat

var isBlockDevice = func(mode os.FileMode) bool {
	return mode&os.ModeDevice > 0 && mode&os.ModeCharDevice == 0
}

func cryptsetupLockDir() string {
	return filepath.Join(string(os.PathSeparator), "run", "cryptsetup")
}

// AcquireSharedLock acquires an advisory shared lock on the LUKS2 volume
// at path, which can be a block device, a regular file containing a LUKS2
// volume with an integral header, or a detached header file. There can be
// multiple parallel shared lock holders; this package never needs an
// exclusive lock because it never writes a LUKS2 header.
//
// This implements the same locking convention as libcryptsetup: a lock
// file named "L_<major>:<minor>" under /run/cryptsetup for block devices,
// or an flock directly on the opened file otherwise.
func AcquireSharedLock(path string) (release func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s for reading: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	if !isBlockDevice(fi.Mode()) {
		if err := unix.Flock(int(fdOf(f)), unix.LOCK_SH); err != nil {
			f.Close()
			return nil, fmt.Errorf("cannot lock %s: %w", path, err)
		}
		return func() { f.Close() }, nil
	}

	sc, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot obtain raw connection for %s: %w", path, err)
	}

	var st unix.Stat_t
	var statErr error
	if cErr := sc.Control(func(fd uintptr) {
		statErr = dataDeviceFstat(int(fd), &st)
	}); cErr != nil {
		f.Close()
		return nil, fmt.Errorf("cannot complete raw connection control call for %s: %w", path, cErr)
	}
	if statErr != nil {
		f.Close()
		return nil, fmt.Errorf("cannot fstat %s: %w", path, statErr)
	}
	f.Close()

	if err := os.MkdirAll(cryptsetupLockDir(), 0700); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(cryptsetupLockDir(), fmt.Sprintf("L_%d:%d", unix.Major(uint64(st.Rdev)), unix.Minor(uint64(st.Rdev))))
	lf, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file %s: %w", lockPath, err)
	}

	if err := unix.Flock(int(fdOf(lf)), unix.LOCK_SH); err != nil {
		lf.Close()
		return nil, fmt.Errorf("cannot lock %s: %w", lockPath, err)
	}

	return func() { lf.Close() }, nil
}

func fdOf(f *os.File) uintptr {
	return f.Fd()
}
