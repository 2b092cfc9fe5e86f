//
// Copyright (c) 2024-2026 BPIO Tools Contributors
// All rights reserved
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
package main

import (
	"github.com/juju/errors"

	"github.com/bpio-tools/bpflash/cli/bpio"
	"github.com/bpio-tools/bpflash/cli/flags"
	"github.com/bpio-tools/bpflash/cli/flash/spinor"
	"github.com/bpio-tools/bpflash/cli/ourutil"
)

// The bridge's link layer caps a single exchange, so read chunks are
// bounded accordingly.
const maxChunkSize = 4096

// validateFlags checks everything the engine expects its callers to have
// pre-validated.
func validateFlags() error {
	if *flags.ChunkSize < 1 || *flags.ChunkSize > maxChunkSize {
		return errors.Errorf("--chunk-size must be between 1 and %d", maxChunkSize)
	}
	if *flags.VerifyChunk < 1 || *flags.VerifyChunk > maxChunkSize {
		return errors.Errorf("--verify-chunk must be between 1 and %d", maxChunkSize)
	}
	if *flags.FlashSize < 0 {
		return errors.Errorf("--size must be positive")
	}
	if *flags.PageSize <= 0 {
		return errors.Errorf("--page-size must be positive")
	}
	if *flags.AddrWidth != 3 && *flags.AddrWidth != 4 {
		return errors.Errorf("--addr-width must be 3 or 4")
	}
	if *flags.SPISpeed == 0 {
		return errors.Errorf("--speed must be positive")
	}
	return nil
}

func transportConfig() spinor.ConfigOptions {
	return spinor.ConfigOptions{
		SpeedHz:        *flags.SPISpeed,
		ClockPolarity:  false,
		ClockPhase:     false,
		CSIdleHigh:     true,
		PowerEnabled:   !*flags.NoPower,
		PowerMV:        *flags.PowerMV,
		PowerMA:        *flags.PowerMA,
		PullupsEnabled: !*flags.NoPullups,
	}
}

func openClient() (*bpio.Client, error) {
	c, err := bpio.Open(*flags.Port, &bpio.Options{BaudRate: uint(*flags.BaudRate)})
	if err != nil {
		return nil, errors.Trace(err)
	}
	ourutil.Reportf("Connected to bridge on %s", *flags.Port)
	return c, nil
}

func loadChipDB() (*spinor.ChipDB, error) {
	db := spinor.NewChipDB()
	if *flags.ChipDB != "" {
		if err := db.LoadFile(*flags.ChipDB); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return db, nil
}

// resolveSize returns the flash capacity, auto-detecting from the JEDEC ID
// when --size is left at 0.
func resolveSize(c *bpio.Client, db *spinor.ChipDB) (int64, error) {
	if *flags.FlashSize > 0 {
		return *flags.FlashSize, nil
	}
	id, err := spinor.DetectChip(c, transportConfig())
	if err != nil {
		return 0, errors.Annotatef(err, "flash size is not specified and could not be detected")
	}
	if info := db.Lookup(id); info != nil {
		ourutil.Reportf("Detected %s (JEDEC ID %s), %d bytes", info.Name, id, info.Size)
		return info.Size, nil
	}
	if sz := id.Size(); sz > 0 {
		ourutil.Reportf("Detected unknown chip %s, capacity %d bytes", id, sz)
		return sz, nil
	}
	return 0, errors.Errorf("cannot determine capacity of chip %s, use --size", id)
}

func newSession(c *bpio.Client, totalSize int64) (*spinor.Session, error) {
	geom := spinor.Geometry{
		TotalSize: totalSize,
		PageSize:  *flags.PageSize,
		ReadChunk: *flags.ChunkSize,
		AddrWidth: *flags.AddrWidth,
	}
	opts := spinor.FlashOpts{
		Config:            transportConfig(),
		PollInterval:      *flags.PollInterval,
		ErasePollInterval: *flags.ErasePollInterval,
		EraseTimeout:      *flags.EraseTimeout,
		VerifyChunk:       *flags.VerifyChunk,
	}
	sess, err := spinor.NewSession(c, geom, opts)
	return sess, errors.Trace(err)
}
