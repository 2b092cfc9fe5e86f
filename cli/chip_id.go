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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/juju/errors"

	"github.com/bpio-tools/bpflash/cli/flash/common"
	"github.com/bpio-tools/bpflash/cli/flash/spinor"
)

func chipID(ctx context.Context) error {
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

	id, err := spinor.DetectChip(c, transportConfig())
	if err != nil {
		return errors.Trace(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "JEDEC ID:\t%s\n", id)
	fmt.Fprintf(w, "Manufacturer:\t0x%02x\n", id.Manufacturer)
	fmt.Fprintf(w, "Memory type:\t0x%02x\n", id.MemoryType)
	if sz := id.Size(); sz > 0 {
		fmt.Fprintf(w, "Capacity:\t%d (%s)\n", sz, common.FmtSize(sz))
	}
	if info := db.Lookup(id); info != nil {
		fmt.Fprintf(w, "Part:\t%s\n", info.Name)
		fmt.Fprintf(w, "Page size:\t%d\n", info.PageSize)
	} else {
		fmt.Fprintf(w, "Part:\tunknown\n")
	}
	return errors.Trace(w.Flush())
}
