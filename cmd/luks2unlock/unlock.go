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
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapcore/luks2unlock/luks2"
)

var (
	unlockHeaderPath string
	unlockKeyFile    string
	unlockCheckUUID  string
	unlockMapperName string
)

var unlockCmd = &cobra.Command{
	Use:   "unlock <device>",
	Short: "Recover the master key and optionally activate a dm-crypt mapping",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnlock(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(unlockCmd)
	unlockCmd.Flags().StringVar(&unlockHeaderPath, "header", "", "detached header file, if the header is not on device")
	unlockCmd.Flags().StringVar(&unlockKeyFile, "key-file", "", "read the passphrase from this file instead of prompting")
	unlockCmd.Flags().StringVar(&unlockCheckUUID, "uuid", "", "refuse to unlock unless the container's UUID matches")
	unlockCmd.Flags().StringVar(&unlockMapperName, "map", "", "activate the unlocked payload as /dev/mapper/<name>")
}

func runUnlock(ctx context.Context, devicePath string) error {
	opts := &luks2.UnlockOptions{
		DetachedHeaderPath: unlockHeaderPath,
		CheckUUID:          unlockCheckUUID,
		KeyFile:            unlockKeyFile,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	release, err := luks2.AcquireSharedLock(devicePath)
	if err != nil {
		return fmt.Errorf("cannot lock %s: %w", devicePath, err)
	}
	defer release()

	device, err := os.OpenFile(devicePath, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", devicePath, err)
	}
	defer device.Close()

	headerSrc := device
	if opts.DetachedHeaderPath != "" {
		releaseHdr, err := luks2.AcquireSharedLock(opts.DetachedHeaderPath)
		if err != nil {
			return fmt.Errorf("cannot lock %s: %w", opts.DetachedHeaderPath, err)
		}
		defer releaseHdr()

		headerSrc, err = os.Open(opts.DetachedHeaderPath)
		if err != nil {
			return fmt.Errorf("cannot open detached header %s: %w", opts.DetachedHeaderPath, err)
		}
		defer headerSrc.Close()
	}

	backend := luks2.NewBackend()

	scanned, err := backend.Scan(headerSrc, opts.CheckUUID)
	if err != nil {
		return err
	}
	if scanned == nil {
		return fmt.Errorf("%s is not a LUKS2 container, or its UUID doesn't match", devicePath)
	}

	passphrase, err := resolvePassphrase(opts, devicePath, scanned.Uuid)
	if err != nil {
		return err
	}

	info, err := luks2.SourceInfoFromBlockDevice(device)
	if err != nil {
		return fmt.Errorf("cannot determine device geometry: %w", err)
	}

	dev := &luks2.SoftwareDevice{}
	descr, masterKey, err := backend.RecoverKey(headerSrc, dev, passphrase, info)
	if err != nil {
		return err
	}

	uuid, err := luks2.FormatUUID(descr.Uuid)
	if err != nil {
		return fmt.Errorf("cannot format recovered UUID: %w", err)
	}
	fmt.Printf("unlocked %s (uuid %s)\n", devicePath, uuid)

	if unlockMapperName == "" {
		return nil
	}
	if err := luks2.ActivateDM(ctx, unlockMapperName, devicePath, descr, masterKey); err != nil {
		return fmt.Errorf("cannot activate mapping: %w", err)
	}
	fmt.Printf("activated /dev/mapper/%s\n", unlockMapperName)
	return nil
}

func resolvePassphrase(opts *luks2.UnlockOptions, devicePath, uuid string) ([]byte, error) {
	if opts.KeyFile != "" {
		return luks2.ReadKeyFile(opts.KeyFile)
	}
	prompt := luks2.FormatPrompt(devicePath, "", uuid)
	return luks2.PromptPassphrase(int(os.Stdin.Fd()), prompt)
}
