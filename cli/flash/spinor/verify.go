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
	"bytes"
	"context"
	"io"

	"github.com/juju/errors"
)

// Progress is reported whenever verification crosses a 64 KiB boundary,
// and on the final chunk.
const verifyProgressBytes = 64 * 1024

// Verify re-reads the device in FlashOpts.VerifyChunk-sized chunks and
// compares byte for byte against a fresh pass over src, short-circuiting
// with a VerifyError at the first diverging chunk.
func (s *Session) Verify(ctx context.Context, src Source, progress ProgressFunc) error {
	if err := s.Configure(); err != nil {
		return errors.Trace(err)
	}
	r, err := src.Open()
	if err != nil {
		return errors.Annotatef(err, "failed to open source")
	}
	defer r.Close()

	size := src.Size()
	want := make([]byte, s.opts.VerifyChunk)
	var addr int64
	for addr < size {
		if err := ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		n, err := io.ReadFull(r, want)
		if err == io.EOF {
			break
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return errors.Annotatef(err, "failed to read source @ 0x%06x", addr)
		}
		got, err := s.transfer(addr, readCmd(uint32(addr), s.geom.AddrWidth), n)
		if err != nil {
			return errors.Annotatef(err, "failed to read back %d @ 0x%06x", n, addr)
		}
		if !bytes.Equal(got, want[:n]) {
			return errors.Annotatef(&VerifyError{Addr: addr},
				"device contents diverge from source")
		}
		prev := addr
		addr += int64(n)
		if progress != nil && (addr/verifyProgressBytes != prev/verifyProgressBytes || addr >= size) {
			progress(addr, size)
		}
	}
	return nil
}
