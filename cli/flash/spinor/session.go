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
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/bpio-tools/bpflash/cli/flash/common"
)

// Session drives one exclusively-owned transport against one chip.
// Geometry and transport are fixed for the session's lifetime. All
// operations are synchronous; nothing overlaps on the transport.
type Session struct {
	t          Transport
	geom       Geometry
	opts       FlashOpts
	configured bool
}

func NewSession(t Transport, geom Geometry, opts FlashOpts) (*Session, error) {
	if err := geom.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	opts.applyDefaults()
	return &Session{t: t, geom: geom, opts: opts}, nil
}

// Configure performs the one-time link setup. It is invoked lazily by the
// first operation; a refusal surfaces as ErrConfigurationFailed and no
// transfers are attempted.
func (s *Session) Configure() error {
	if s.configured {
		return nil
	}
	if err := s.t.Configure(s.opts.Config); err != nil {
		glog.Errorf("transport configure failed: %v", err)
		return errors.Annotatef(ErrConfigurationFailed, "%v", err)
	}
	glog.V(1).Infof("transport configured: %d Hz, psu %v (%d mV)",
		s.opts.Config.SpeedHz, s.opts.Config.PowerEnabled, s.opts.Config.PowerMV)
	s.configured = true
	return nil
}

// transfer issues one command and enforces the all-or-nothing response
// contract. addr is the flash address attributed to a failure.
func (s *Session) transfer(addr int64, cmd []byte, readCount int) ([]byte, error) {
	data, err := s.t.Transfer(cmd, readCount)
	if err != nil {
		return nil, errors.Annotatef(&TransportError{Addr: addr}, "%v", err)
	}
	if len(data) != readCount {
		return nil, errors.Annotatef(&TransportError{Addr: addr},
			"short response: got %d bytes, want %d", len(data), readCount)
	}
	return data, nil
}

// EraseChip erases the entire flash array and blocks until the device
// reports ready.
func (s *Session) EraseChip(ctx context.Context) error {
	if err := s.Configure(); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.transfer(0, writeEnableCmd(), 0); err != nil {
		return errors.Trace(err)
	}
	if _, err := s.transfer(0, chipEraseCmd(), 0); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.waitReady(ctx, 0, s.opts.ErasePollInterval, s.opts.EraseTimeout))
}

// ProgramOptions selects the optional stages of Program.
type ProgramOptions struct {
	SkipErase  bool
	SkipVerify bool

	WriteProgress  ProgressFunc
	VerifyProgress ProgressFunc
}

// Program runs the full pipeline: chip erase (unless skipped), paged write,
// verification (unless skipped). The first failing stage aborts the rest.
// The verify stage reopens src from the start; nothing may mutate the
// source between the write and verify passes.
func (s *Session) Program(ctx context.Context, src Source, popts ProgramOptions) error {
	if src.Size() > s.geom.TotalSize {
		return errors.Annotatef(ErrSizeExceeded,
			"source is %d bytes, flash capacity is %d", src.Size(), s.geom.TotalSize)
	}
	if err := s.Configure(); err != nil {
		return errors.Trace(err)
	}

	if !popts.SkipErase {
		common.Reportf("Erasing chip (this may take several minutes)...")
		start := time.Now()
		if err := s.EraseChip(ctx); err != nil {
			return errors.Annotatef(err, "failed to erase chip")
		}
		common.Reportf("Erase completed in %.1fs", time.Since(start).Seconds())
	}

	common.Reportf("Writing %d bytes...", src.Size())
	start := time.Now()
	if err := s.Write(ctx, src, popts.WriteProgress); err != nil {
		return errors.Annotatef(err, "failed to write")
	}
	seconds := time.Since(start).Seconds()
	common.Reportf("Wrote %d bytes in %.2f seconds (%.2f KBit/sec)",
		src.Size(), seconds, float64(src.Size())/seconds*8/1024)

	if popts.SkipVerify {
		common.Reportf("Verification skipped, data integrity is not confirmed")
		return nil
	}
	common.Reportf("Verifying...")
	if err := s.Verify(ctx, src, popts.VerifyProgress); err != nil {
		return errors.Trace(err)
	}
	common.Reportf("Verification completed successfully")
	return nil
}
