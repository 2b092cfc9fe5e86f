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
	"io"
	"io/ioutil"
	"os"

	"github.com/juju/errors"
)

// Source is a re-readable byte stream of known length. The engine opens
// it once for the write pass and once more for the verify pass, instead
// of seeking a partially-consumed stream.
type Source interface {
	Open() (io.ReadCloser, error)
	Size() int64
}

type fileSource struct {
	path string
	size int64
}

// NewFileSource creates a Source backed by a regular file. The size is
// captured at creation time.
func NewFileSource(path string) (Source, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &fileSource{path: path, size: st.Size()}, nil
}

func (f *fileSource) Open() (io.ReadCloser, error) {
	r, err := os.Open(f.path)
	return r, errors.Trace(err)
}

func (f *fileSource) Size() int64 {
	return f.size
}

type bytesSource struct {
	data []byte
}

// NewBytesSource creates an in-memory Source.
func NewBytesSource(data []byte) Source {
	return &bytesSource{data: data}
}

func (b *bytesSource) Open() (io.ReadCloser, error) {
	return ioutil.NopCloser(bytes.NewReader(b.data)), nil
}

func (b *bytesSource) Size() int64 {
	return int64(len(b.data))
}
