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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandBytes(t *testing.T) {
	assert.Equal(t, []byte{0x03, 0x01, 0x02, 0x03}, readCmd(0x010203, 3))
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00, 0x00}, readCmd(0, 4))
	assert.Equal(t, []byte{0x03, 0x01, 0x02, 0x03, 0x04}, readCmd(0x01020304, 4))
	assert.Equal(t, []byte{0x06}, writeEnableCmd())
	assert.Equal(t, []byte{0xc7}, chipEraseCmd())
	assert.Equal(t, []byte{0x05}, readStatusCmd())
	assert.Equal(t, []byte{0x9f}, readJEDECIDCmd())
}

func TestPageProgramCmd(t *testing.T) {
	cmd := pageProgramCmd(0x000100, 3, []byte{0xaa, 0xbb})
	assert.Equal(t, []byte{0x02, 0x00, 0x01, 0x00, 0xaa, 0xbb}, cmd)

	// Empty payload is legal at this layer, callers never produce it.
	assert.Equal(t, []byte{0x02, 0x12, 0x34, 0x56}, pageProgramCmd(0x123456, 3, nil))
}

func TestGeometryValidate(t *testing.T) {
	g := Geometry{TotalSize: 1024, PageSize: 256, ReadChunk: 512, AddrWidth: 3}
	assert.NoError(t, g.Validate())

	for _, bad := range []Geometry{
		{TotalSize: 0, PageSize: 256, ReadChunk: 512, AddrWidth: 3},
		{TotalSize: 1024, PageSize: 0, ReadChunk: 512, AddrWidth: 3},
		{TotalSize: 1024, PageSize: 256, ReadChunk: 0, AddrWidth: 3},
		{TotalSize: 1024, PageSize: 256, ReadChunk: 512, AddrWidth: 2},
	} {
		assert.Error(t, bad.Validate(), "%+v", bad)
	}
}
