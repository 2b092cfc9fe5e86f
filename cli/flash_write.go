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

	"github.com/juju/errors"

	"github.com/bpio-tools/bpflash/cli/flags"
	"github.com/bpio-tools/bpflash/cli/flash/common"
	"github.com/bpio-tools/bpflash/cli/flash/spinor"
	"github.com/bpio-tools/bpflash/cli/ourutil"
)

func flashWrite(ctx context.Context) error {
	if err := validateFlags(); err != nil {
		return errors.Trace(err)
	}
	src, err := spinor.NewFileSource(*flags.Input)
	if err != nil {
		return errors.Annotatef(err, "failed to open %s", *flags.Input)
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

	ourutil.Reportf("Writing %s from %s to flash...",
		common.FmtSize(src.Size()), *flags.Input)
	if *flags.NoVerify {
		ourutil.Reportf("Warning: --no-verify is set, written data will not be checked")
	}
	popts := spinor.ProgramOptions{
		SkipErase:      *flags.NoErase,
		SkipVerify:     *flags.NoVerify,
		WriteProgress:  common.NewBar("Writing").Update,
		VerifyProgress: common.NewBar("Verifying").Update,
	}
	if err := sess.Program(ctx, src, popts); err != nil {
		return errors.Trace(err)
	}
	ourutil.Reportf("All done!")
	return nil
}
