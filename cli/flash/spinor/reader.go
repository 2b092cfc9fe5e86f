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
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

// Progress is reported on the first chunk, every readProgressEvery-th
// chunk and the final chunk, to keep redraw overhead off the hot path.
const readProgressEvery = 256

// ReadAll streams the device's entire address space into sink in
// Geometry.ReadChunk-sized chunks. The last chunk may be partial.
func (s *Session) ReadAll(ctx context.Context, sink io.Writer, progress ProgressFunc) error {
	if err := s.Configure(); err != nil {
		return errors.Trace(err)
	}
	total := s.geom.TotalSize
	start := time.Now()
	var addr int64
	chunk := 0
	for addr < total {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		n := s.geom.ReadChunk
		if int64(n) > total-addr {
			n = int(total - addr)
		}
		data, err := s.transfer(addr, readCmd(uint32(addr), s.geom.AddrWidth), n)
		if err != nil {
			return errors.Annotatef(err, "failed to read %d @ 0x%06x", n, addr)
		}
		if _, err := sink.Write(data); err != nil {
			return errors.Annotatef(err, "failed to write %d bytes to sink", len(data))
		}
		addr += int64(len(data))
		chunk++
		if progress != nil && (chunk == 1 || chunk%readProgressEvery == 0 || addr == total) {
			progress(addr, total)
		}
	}
	seconds := time.Since(start).Seconds()
	glog.V(1).Infof("read %d bytes in %d chunks (%.2f KBit/sec)",
		addr, chunk, float64(addr)/seconds*8/1024)
	return nil
}
