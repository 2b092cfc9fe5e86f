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
	"time"

	"github.com/juju/errors"

	"github.com/bpio-tools/bpflash/cli/ourutil"
)

func flashErase(ctx context.Context) error {
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

	ourutil.Reportf("Erasing chip (this may take several minutes)...")
	start := time.Now()
	if err := sess.EraseChip(ctx); err != nil {
		return errors.Annotatef(err, "failed to erase chip")
	}
	ourutil.Reportf("Erase completed in %.1fs", time.Since(start).Seconds())
	ourutil.Reportf("All done!")
	return nil
}
