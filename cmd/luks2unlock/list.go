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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapcore/luks2unlock/luks2"
)

var listHeaderPath string

var listCmd = &cobra.Command{
	Use:   "list <device>",
	Short: "List keyslot priorities and KDF types without unlocking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(args[0])
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listHeaderPath, "header", "", "detached header file, if the header is not on device")
}

func runList(devicePath string) error {
	source := listHeaderPath
	if source == "" {
		source = devicePath
	}

	release, err := luks2.AcquireSharedLock(source)
	if err != nil {
		return fmt.Errorf("cannot lock %s: %w", source, err)
	}
	defer release()

	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", source, err)
	}
	defer f.Close()

	keyslots, err := luks2.ListKeyslots(f)
	if err != nil {
		return err
	}

	for _, k := range keyslots {
		fmt.Printf("slot %d: kdf=%s key_size=%d priority=%d\n", k.KeyslotID, k.KDFType, k.KeySize, k.Priority)
	}
	return nil
}
