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

// Package bpio talks to a Bus Pirate style serial bridge exposing the
// binary SPI interface: a framed configure/transfer exchange where every
// request is answered with a status byte plus the requested read bytes.
package bpio

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/cesanta/go-serial/serial"
	"github.com/golang/glog"
	"github.com/juju/errors"

	"github.com/bpio-tools/bpflash/cli/flash/spinor"
)

const (
	frameConfigure = 0x01
	frameTransfer  = 0x02

	statusOK = 0x00

	// The bridge's link layer carries at most 64 KiB minus header per
	// direction in one exchange.
	maxTransferLen = 0xFFFF

	cfgFlagClockPolarity = 1 << 0
	cfgFlagClockPhase    = 1 << 1
	cfgFlagCSIdleHigh    = 1 << 2
	cfgFlagPowerEnabled  = 1 << 3
	cfgFlagPullups       = 1 << 4

	interCharacterTimeout = 200 * time.Millisecond
)

type Options struct {
	BaudRate uint // default 115200
}

// Client is a spinor.Transport over a serial port.
type Client struct {
	portName string
	conn     serial.Serial
}

var _ spinor.Transport = (*Client)(nil)

func Open(portName string, opts *Options) (*Client, error) {
	glog.Infof("Opening %s...", portName)
	oo := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              115200,
		DataBits:              8,
		ParityMode:            serial.PARITY_NONE,
		StopBits:              1,
		InterCharacterTimeout: uint(interCharacterTimeout / time.Millisecond),
		MinimumReadSize:       0,
	}
	if opts != nil && opts.BaudRate != 0 {
		oo.BaudRate = opts.BaudRate
	}
	s, err := serial.Open(oo)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to open %s", portName)
	}
	// Drop anything buffered from a previous session.
	s.Flush()
	return &Client{portName: portName, conn: s}, nil
}

func (c *Client) Close() error {
	glog.Infof("closing serial %s", c.portName)
	return c.conn.Close()
}

// Configure sends the link setup frame and waits for the bridge to accept it.
func (c *Client) Configure(cfg spinor.ConfigOptions) error {
	frame := encodeConfigFrame(cfg)
	glog.V(2).Infof("configure: % x", frame)
	if err := c.writeFull(frame); err != nil {
		return errors.Trace(err)
	}
	status := make([]byte, 1)
	if err := c.readFull(status); err != nil {
		return errors.Annotatef(err, "no response to configuration")
	}
	if status[0] != statusOK {
		return errors.Errorf("bridge rejected configuration (status 0x%02x)", status[0])
	}
	return nil
}

// Transfer performs one command/response exchange. The returned data is
// exactly readCount bytes or the exchange failed as a whole.
func (c *Client) Transfer(write []byte, readCount int) ([]byte, error) {
	if len(write) > maxTransferLen || readCount > maxTransferLen {
		return nil, errors.Errorf("transfer too large (%d out, %d in)", len(write), readCount)
	}
	hdr := encodeTransferHeader(len(write), readCount)
	if err := c.writeFull(append(hdr, write...)); err != nil {
		return nil, errors.Trace(err)
	}
	resp := make([]byte, 1+readCount)
	if err := c.readFull(resp); err != nil {
		return nil, errors.Trace(err)
	}
	if resp[0] != statusOK {
		return nil, errors.Errorf("bridge reported error (status 0x%02x)", resp[0])
	}
	return resp[1:], nil
}

func (c *Client) writeFull(data []byte) error {
	for written := 0; written < len(data); {
		n, err := c.conn.Write(data[written:])
		written += n
		if err != nil {
			return errors.Annotatef(err, "failed to write to %s", c.portName)
		}
	}
	return nil
}

// readFull reads exactly len(buf) bytes. The port returns io.EOF after the
// inter-character timeout, which here means the bridge stopped answering
// mid-response, so a short read is an error.
func (c *Client) readFull(buf []byte) error {
	for got := 0; got < len(buf); {
		n, err := c.conn.Read(buf[got:])
		got += n
		if err != nil {
			if errors.Cause(err) == io.EOF {
				return errors.Errorf("%s: timed out with %d of %d bytes read",
					c.portName, got, len(buf))
			}
			return errors.Annotatef(err, "failed to read from %s", c.portName)
		}
	}
	return nil
}

func encodeConfigFrame(cfg spinor.ConfigOptions) []byte {
	var flags byte
	if cfg.ClockPolarity {
		flags |= cfgFlagClockPolarity
	}
	if cfg.ClockPhase {
		flags |= cfgFlagClockPhase
	}
	if cfg.CSIdleHigh {
		flags |= cfgFlagCSIdleHigh
	}
	if cfg.PowerEnabled {
		flags |= cfgFlagPowerEnabled
	}
	if cfg.PullupsEnabled {
		flags |= cfgFlagPullups
	}
	frame := make([]byte, 10)
	frame[0] = frameConfigure
	binary.BigEndian.PutUint32(frame[1:5], uint32(cfg.SpeedHz))
	frame[5] = flags
	binary.BigEndian.PutUint16(frame[6:8], uint16(cfg.PowerMV))
	binary.BigEndian.PutUint16(frame[8:10], uint16(cfg.PowerMA))
	return frame
}

func encodeTransferHeader(writeLen, readLen int) []byte {
	hdr := make([]byte, 5)
	hdr[0] = frameTransfer
	binary.BigEndian.PutUint16(hdr[1:3], uint16(writeLen))
	binary.BigEndian.PutUint16(hdr[3:5], uint16(readLen))
	return hdr
}
