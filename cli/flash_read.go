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
	"context"
	"io"
	"os"
	"time"

	"github.com/juju/errors"

	"github.com/bpio-tools/bpflash/cli/flags"
	"github.com/bpio-tools/bpflash/cli/flash/common"
	"github.com/bpio-tools/bpflash/cli/ourutil"
)

func flashRead(ctx context.Context) error {
	if err := validateFlags(); err != nil {
		return errors.Trace(err)
	}
	db, err := loadChipDB()
	if err != nil {
		return errors.Trace(err)
	}
	c, err := openClient()
	if err != nil {
		return errors.Trace(err)
	}
	defer c.Close()

	size, err := resolveSize(c, db)
	if err != nil {
		return errors.Trace(err)
	}
	sess, err := newSession(c, size)
	if err != nil {
		return errors.Trace(err)
	}

	out := *flags.Output
	var sink io.Writer = os.Stdout
	var f *os.File
	if out != "-" {
		f, err = os.Create(out)
		if err != nil {
			return errors.Annotatef(err, "failed to create %s", out)
		}
		defer f.Close()
		sink = f
	}

	ourutil.Reportf("Reading %s of flash to %s (chunk size %d)...",
		common.FmtSize(size), out, *flags.ChunkSize)
	start := time.Now()
	bar := common.NewBar("Reading")
	if err := sess.ReadAll(ctx, sink, bar.Update); err != nil {
		return errors.Trace(err)
	}
	if f != nil {
		if err := f.Close(); err != nil {
			return errors.Annotatef(err, "failed to write %s", out)
		}
	}
	seconds := time.Since(start).Seconds()
	ourutil.Reportf("Read %d bytes in %.1fs (%.1f KB/s)",
		size, seconds, float64(size)/1024/seconds)
	return nil
}
