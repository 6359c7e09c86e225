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

// Command luks2unlock exercises the LUKS2 unlock pipeline end to end
// against a real block device or detached header file: list keyslots,
// or unlock and optionally activate the result as a device-mapper
// volume.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "luks2unlock",
	Short: "Unlock a LUKS2 container without the kernel's own cryptsetup",
	Long: `luks2unlock probes and unlocks LUKS2-formatted block devices using
this module's own header reader, metadata decoder and crypto pipeline,
rather than shelling out to cryptsetup.

Commands:
  list    Show keyslot priorities and KDF types without unlocking
  unlock  Recover the master key and optionally activate a dm-crypt mapping`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "luks2unlock: %v\n", err)
		os.Exit(1)
	}
}
