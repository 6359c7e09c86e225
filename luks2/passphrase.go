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

	"golang.org/x/term"
)

// maxPromptedPassphrase is the longest passphrase the terminal prompt will
// read; a key file has no such limit.
const maxPromptedPassphrase = 256

// FormatPrompt renders the terminal prompt:
// "Enter passphrase for <name>[,<partition>] (<uuid>): ". partition may be
// empty, in which case the comma is omitted.
func FormatPrompt(name, partition, uuid string) string {
	if partition == "" {
		return fmt.Sprintf("Enter passphrase for %s (%s): ", name, uuid)
	}
	return fmt.Sprintf("Enter passphrase for %s,%s (%s): ", name, partition, uuid)
}

// PromptPassphrase writes prompt to stderr and reads a passphrase from the
// terminal with echo disabled, via fd. It truncates at
// maxPromptedPassphrase bytes: what's typed is a string, not an arbitrary
// byte blob, so unlike ReadKeyFile there is no embedded-NUL case to
// preserve.
func PromptPassphrase(fd int, prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	passphrase, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("cannot read passphrase: %w", err)
	}
	if len(passphrase) > maxPromptedPassphrase {
		passphrase = passphrase[:maxPromptedPassphrase]
	}
	return passphrase, nil
}

// ReadKeyFile returns path's entire contents verbatim, including any
// embedded NUL byte, as the passphrase: a key file's byte string is used
// as-is, unlike a prompted passphrase's terminal-line length.
func ReadKeyFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read key file: %w", err)
	}
	return data, nil
}
