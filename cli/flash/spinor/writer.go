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
package spinor

import (
	"context"
	"io"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

const writeProgressEvery = 64

// Write programs src into the device page by page, each page bracketed by
// a write enable and a busy-wait. A transport failure aborts the write
// with no retry; flash contents above the failure address are then
// indeterminate and the caller must surface that.
func (s *Session) Write(ctx context.Context, src Source, progress ProgressFunc) error {
	size := src.Size()
	if size > s.geom.TotalSize {
		return errors.Annotatef(ErrSizeExceeded,
			"source is %d bytes, flash capacity is %d", size, s.geom.TotalSize)
	}
	if err := s.Configure(); err != nil {
		return errors.Trace(err)
	}
	r, err := src.Open()
	if err != nil {
		return errors.Annotatef(err, "failed to open source")
	}
	defer r.Close()

	totalPages := int((size + int64(s.geom.PageSize) - 1) / int64(s.geom.PageSize))
	buf := make([]byte, s.geom.PageSize)
	var addr int64
	page := 0
	for addr < size {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		n, err := io.ReadFull(r, buf)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return errors.Annotatef(err, "failed to read source @ 0x%06x", addr)
		}
		if _, err := s.transfer(addr, writeEnableCmd(), 0); err != nil {
			return errors.Annotatef(err, "failed to enable write @ 0x%06x", addr)
		}
		cmd := pageProgramCmd(uint32(addr), s.geom.AddrWidth, buf[:n])
		if _, err := s.transfer(addr, cmd, 0); err != nil {
			return errors.Annotatef(err, "failed to program page @ 0x%06x", addr)
		}
		if err := s.waitReady(ctx, addr, s.opts.PollInterval, s.opts.WriteTimeout); err != nil {
			return errors.Annotatef(err, "failed to program page @ 0x%06x", addr)
		}
		addr += int64(n)
		page++
		glog.V(2).Infof("programmed %d @ 0x%06x", n, addr-int64(n))
		if progress != nil && (page == 1 || page%writeProgressEvery == 0 || page == totalPages) {
			progress(addr, size)
		}
	}
	return nil
}
