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
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport models a flash chip behind the command/response channel:
// it decodes the command set, keeps the array in memory, tracks the write
// enable latch and reports WIP for a configurable number of status polls
// after each program/erase.
type fakeTransport struct {
	mem          []byte
	jedec        [3]byte
	configErr    error
	configures   int
	transfers    int
	reads        int
	failOnRead   int // 1-based index of the read command that fails
	failOnStatus bool
	busyPolls    int
	busyPerOp    int // WIP polls scheduled after each program/erase
	writeEnabled bool
	ops          []string
}

func newFakeTransport(size int) *fakeTransport {
	f := &fakeTransport{mem: make([]byte, size), jedec: [3]byte{0xef, 0x40, 0x17}}
	for i := range f.mem {
		f.mem[i] = 0xff
	}
	return f
}

func (f *fakeTransport) Configure(opts ConfigOptions) error {
	f.configures++
	return f.configErr
}

func addr24(b []byte) int {
	return int(b[0])<<16 | int(b[1])<<8 | int(b[2])
}

func (f *fakeTransport) Transfer(w []byte, readCount int) ([]byte, error) {
	f.transfers++
	if len(w) == 0 {
		return nil, errors.New("empty command")
	}
	switch w[0] {
	case cmdRead:
		f.reads++
		if f.failOnRead > 0 && f.reads == f.failOnRead {
			return nil, errors.New("link dropped")
		}
		a := addr24(w[1:4])
		f.ops = append(f.ops, fmt.Sprintf("read@0x%x:%d", a, readCount))
		if a+readCount > len(f.mem) {
			return nil, errors.New("read beyond end of array")
		}
		out := make([]byte, readCount)
		copy(out, f.mem[a:a+readCount])
		return out, nil
	case cmdWriteEnable:
		f.writeEnabled = true
		f.ops = append(f.ops, "we")
		return nil, nil
	case cmdPageProgram:
		if !f.writeEnabled {
			return nil, errors.New("program without write enable")
		}
		f.writeEnabled = false
		a := addr24(w[1:4])
		data := w[4:]
		f.ops = append(f.ops, fmt.Sprintf("prog@0x%x:%d", a, len(data)))
		if a+len(data) > len(f.mem) {
			return nil, errors.New("program beyond end of array")
		}
		copy(f.mem[a:], data)
		f.busyPolls = f.busyPerOp
		return nil, nil
	case cmdChipErase:
		if !f.writeEnabled {
			return nil, errors.New("erase without write enable")
		}
		f.writeEnabled = false
		f.ops = append(f.ops, "erase")
		for i := range f.mem {
			f.mem[i] = 0xff
		}
		f.busyPolls = f.busyPerOp
		return nil, nil
	case cmdReadStatus:
		f.ops = append(f.ops, "status")
		if f.failOnStatus {
			return nil, errors.New("link dropped")
		}
		if f.busyPolls > 0 {
			f.busyPolls--
			return []byte{statusWIP}, nil
		}
		return []byte{0x00}, nil
	case cmdReadJEDECID:
		return f.jedec[:], nil
	}
	return nil, errors.Errorf("unexpected command 0x%02x", w[0])
}

func (f *fakeTransport) opsWithPrefix(prefix string) []string {
	var out []string
	for _, op := range f.ops {
		if strings.HasPrefix(op, prefix) {
			out = append(out, op)
		}
	}
	return out
}

func testGeometry(total int64) Geometry {
	return Geometry{TotalSize: total, PageSize: 256, ReadChunk: 512, AddrWidth: 3}
}

func newTestSession(t *testing.T, ft *fakeTransport, geom Geometry, opts FlashOpts) *Session {
	if opts.PollInterval == 0 {
		opts.PollInterval = 100 * time.Microsecond
	}
	if opts.ErasePollInterval == 0 {
		opts.ErasePollInterval = 100 * time.Microsecond
	}
	s, err := NewSession(ft, geom, opts)
	require.NoError(t, err)
	return s
}

func testPattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		if i%2 == 0 {
			b[i] = 0xaa
		} else {
			b[i] = 0xbb
		}
	}
	return b
}

func TestReadAllChunks(t *testing.T) {
	ft := newFakeTransport(4096)
	for i := range ft.mem {
		ft.mem[i] = byte(i % 251)
	}
	s := newTestSession(t, ft, testGeometry(4096), FlashOpts{})

	var buf bytes.Buffer
	require.NoError(t, s.ReadAll(context.Background(), &buf, nil))

	assert.Equal(t, ft.mem, buf.Bytes())
	var want []string
	for a := 0; a < 4096; a += 512 {
		want = append(want, fmt.Sprintf("read@0x%x:512", a))
	}
	assert.Equal(t, want, ft.ops)
}

func TestReadAllPartialLastChunk(t *testing.T) {
	ft := newFakeTransport(1000)
	s := newTestSession(t, ft, testGeometry(1000), FlashOpts{})

	var buf bytes.Buffer
	require.NoError(t, s.ReadAll(context.Background(), &buf, nil))

	assert.Equal(t, 1000, buf.Len())
	assert.Equal(t, []string{"read@0x0:512", "read@0x200:488"}, ft.ops)
}

func TestReadAllTransportError(t *testing.T) {
	ft := newFakeTransport(4096)
	ft.failOnRead = 2
	s := newTestSession(t, ft, testGeometry(4096), FlashOpts{})

	var buf bytes.Buffer
	err := s.ReadAll(context.Background(), &buf, nil)
	require.Error(t, err)
	te, ok := errors.Cause(err).(*TransportError)
	require.True(t, ok, "unexpected cause: %v", errors.Cause(err))
	assert.Equal(t, int64(512), te.Addr)
	// Exactly one successful chunk made it to the sink.
	assert.Equal(t, 512, buf.Len())
}

func TestWritePages(t *testing.T) {
	ft := newFakeTransport(1024)
	ft.busyPerOp = 2
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})
	src := testPattern(600)

	require.NoError(t, s.Write(context.Background(), NewBytesSource(src), nil))

	assert.Equal(t, []string{"prog@0x0:256", "prog@0x100:256", "prog@0x200:88"},
		ft.opsWithPrefix("prog@"))
	assert.Len(t, ft.opsWithPrefix("we"), 3)
	// 2 busy polls and one ready poll per page.
	assert.Len(t, ft.opsWithPrefix("status"), 9)
	assert.Equal(t, src, ft.mem[:600])
	assert.Equal(t, byte(0xff), ft.mem[600])

	require.NoError(t, s.Verify(context.Background(), NewBytesSource(src), nil))
}

func TestWriteSizeExceeded(t *testing.T) {
	ft := newFakeTransport(1024)
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})
	src := NewBytesSource(make([]byte, 2048))

	err := s.Write(context.Background(), src, nil)
	assert.Equal(t, ErrSizeExceeded, errors.Cause(err))
	assert.Equal(t, 0, ft.transfers)

	err = s.Program(context.Background(), src, ProgramOptions{})
	assert.Equal(t, ErrSizeExceeded, errors.Cause(err))
	assert.Equal(t, 0, ft.transfers)
}

func TestProgramPipeline(t *testing.T) {
	ft := newFakeTransport(1024)
	ft.busyPerOp = 1
	// Stale contents that the erase stage must wipe.
	for i := range ft.mem {
		ft.mem[i] = 0x5c
	}
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})
	src := testPattern(600)

	require.NoError(t, s.Program(context.Background(), NewBytesSource(src), ProgramOptions{}))

	assert.Equal(t, []string{"erase"}, ft.opsWithPrefix("erase"))
	assert.Equal(t, src, ft.mem[:600])
	assert.Equal(t, byte(0xff), ft.mem[1023])

	// Round trip: reading back yields what was written.
	var buf bytes.Buffer
	require.NoError(t, s.ReadAll(context.Background(), &buf, nil))
	assert.Equal(t, src, buf.Bytes()[:600])
}

func TestProgramSkipErase(t *testing.T) {
	ft := newFakeTransport(1024)
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})

	require.NoError(t, s.Program(context.Background(), NewBytesSource(testPattern(100)),
		ProgramOptions{SkipErase: true, SkipVerify: true}))

	assert.Empty(t, ft.opsWithPrefix("erase"))
	assert.Empty(t, ft.opsWithPrefix("read@"))
}

func TestVerifyMismatch(t *testing.T) {
	ft := newFakeTransport(1024)
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})
	src := testPattern(600)
	require.NoError(t, s.Write(context.Background(), NewBytesSource(src), nil))

	// Corruption at 300 is reported at the start of its 512-byte chunk.
	ft.mem[300] ^= 0x01
	err := s.Verify(context.Background(), NewBytesSource(src), nil)
	require.Error(t, err)
	ve, ok := errors.Cause(err).(*VerifyError)
	require.True(t, ok, "unexpected cause: %v", errors.Cause(err))
	assert.Equal(t, int64(0), ve.Addr)

	ft.mem[300] ^= 0x01
	ft.mem[599] ^= 0x80
	err = s.Verify(context.Background(), NewBytesSource(src), nil)
	require.Error(t, err)
	ve, ok = errors.Cause(err).(*VerifyError)
	require.True(t, ok)
	assert.Equal(t, int64(512), ve.Addr)

	ft.mem[599] ^= 0x80
	assert.NoError(t, s.Verify(context.Background(), NewBytesSource(src), nil))
}

func TestConfigureFailed(t *testing.T) {
	ft := newFakeTransport(1024)
	ft.configErr = errors.New("bridge unhappy")
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})
	src := NewBytesSource(testPattern(100))

	var buf bytes.Buffer
	for _, err := range []error{
		s.ReadAll(context.Background(), &buf, nil),
		s.EraseChip(context.Background()),
		s.Write(context.Background(), src, nil),
		s.Program(context.Background(), src, ProgramOptions{}),
	} {
		assert.Equal(t, ErrConfigurationFailed, errors.Cause(err))
	}
	assert.Equal(t, 0, ft.transfers)
}

func TestEraseChip(t *testing.T) {
	ft := newFakeTransport(1024)
	ft.busyPerOp = 3
	for i := range ft.mem {
		ft.mem[i] = 0x00
	}
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})

	require.NoError(t, s.EraseChip(context.Background()))

	assert.Equal(t, []string{"we", "erase", "status", "status", "status", "status"}, ft.ops)
	assert.Equal(t, byte(0xff), ft.mem[0])
}

func TestEraseTimeout(t *testing.T) {
	ft := newFakeTransport(1024)
	ft.busyPerOp = 1 << 30
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{
		ErasePollInterval: time.Millisecond,
		EraseTimeout:      5 * time.Millisecond,
	})

	err := s.EraseChip(context.Background())
	assert.Equal(t, ErrTimeout, errors.Cause(err))
}

func TestBusyWaitTransportError(t *testing.T) {
	ft := newFakeTransport(1024)
	ft.failOnStatus = true
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})

	err := s.Write(context.Background(), NewBytesSource(testPattern(300)), nil)
	require.Error(t, err)
	te, ok := errors.Cause(err).(*TransportError)
	require.True(t, ok, "unexpected cause: %v", errors.Cause(err))
	assert.Equal(t, int64(0), te.Addr)
}

func TestReadCancellation(t *testing.T) {
	ft := newFakeTransport(4096)
	s := newTestSession(t, ft, testGeometry(4096), FlashOpts{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := s.ReadAll(ctx, &buf, nil)
	assert.Equal(t, context.Canceled, errors.Cause(err))
}

func TestReadProgressThrottle(t *testing.T) {
	ft := newFakeTransport(4096)
	s := newTestSession(t, ft, testGeometry(4096), FlashOpts{})

	var calls []int64
	progress := func(done, total int64) {
		assert.Equal(t, int64(4096), total)
		calls = append(calls, done)
	}
	var buf bytes.Buffer
	require.NoError(t, s.ReadAll(context.Background(), &buf, progress))
	// 8 chunks: first and last only, the every-256th cadence never fires.
	assert.Equal(t, []int64{512, 4096}, calls)
}

func TestWriteProgressThrottle(t *testing.T) {
	ft := newFakeTransport(1024)
	s := newTestSession(t, ft, testGeometry(1024), FlashOpts{})

	var calls []int64
	progress := func(done, total int64) {
		assert.Equal(t, int64(600), total)
		calls = append(calls, done)
	}
	require.NoError(t, s.Write(context.Background(), NewBytesSource(testPattern(600)), progress))
	assert.Equal(t, []int64{256, 600}, calls)
}
