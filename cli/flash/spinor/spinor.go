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

// Package spinor implements a programming engine for SPI NOR flash chips
// driven through an opaque synchronous command/response transport.
// It covers the generic command set (read 0x03, page program 0x02,
// write enable 0x06, chip erase 0xC7, read status 0x05) and leaves all
// link-layer concerns to the transport.
package spinor

import (
	"time"

	"github.com/juju/errors"
)

// ConfigOptions describes the physical link setup requested from the
// transport: SPI clocking plus the bridge's power rail and pull-ups.
type ConfigOptions struct {
	SpeedHz        uint
	ClockPolarity  bool
	ClockPhase     bool
	CSIdleHigh     bool
	PowerEnabled   bool
	PowerMV        uint
	PowerMA        uint
	PullupsEnabled bool
}

// Transport is the command/response channel the engine drives.
// Transfer sends write and, if readCount > 0, returns exactly readCount
// response bytes. There are no partial reads: a short or failed response
// is a transport failure.
type Transport interface {
	Configure(opts ConfigOptions) error
	Transfer(write []byte, readCount int) ([]byte, error)
}

// Geometry describes the target chip. TotalSize does not have to be a
// multiple of PageSize or ReadChunk, the last page/chunk may be partial.
type Geometry struct {
	TotalSize int64
	PageSize  int
	ReadChunk int
	AddrWidth int
}

func (g *Geometry) Validate() error {
	if g.TotalSize <= 0 {
		return errors.Errorf("invalid flash size (%d)", g.TotalSize)
	}
	if g.PageSize <= 0 {
		return errors.Errorf("invalid page size (%d)", g.PageSize)
	}
	if g.ReadChunk <= 0 {
		return errors.Errorf("invalid read chunk size (%d)", g.ReadChunk)
	}
	if g.AddrWidth != 3 && g.AddrWidth != 4 {
		return errors.Errorf("invalid address width (%d), must be 3 or 4", g.AddrWidth)
	}
	return nil
}

// FlashOpts tunes the engine. Zero values select the defaults below.
type FlashOpts struct {
	Config ConfigOptions

	// PollInterval is the status poll interval after a page program.
	PollInterval time.Duration
	// ErasePollInterval is the status poll interval during chip erase.
	ErasePollInterval time.Duration

	// EraseTimeout and WriteTimeout bound the respective busy-waits and
	// produce ErrTimeout when exceeded. 0 waits indefinitely, which
	// mirrors hardware reality: a chip erase can take minutes.
	EraseTimeout time.Duration
	WriteTimeout time.Duration

	// VerifyChunk is the read size of the verification pass. It is
	// independent from Geometry.ReadChunk.
	VerifyChunk int
}

const (
	defaultPollInterval      = 1 * time.Millisecond
	defaultErasePollInterval = 500 * time.Millisecond
	defaultVerifyChunk       = 512
)

func (o *FlashOpts) applyDefaults() {
	if o.PollInterval == 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.ErasePollInterval == 0 {
		o.ErasePollInterval = defaultErasePollInterval
	}
	if o.VerifyChunk <= 0 {
		o.VerifyChunk = defaultVerifyChunk
	}
}

// ProgressFunc receives transfer progress. It is invoked at a throttled
// cadence on the hot path and must not block or alter control flow.
type ProgressFunc func(done, total int64)
