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
package bpio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bpio-tools/bpflash/cli/flash/spinor"
)

func TestEncodeConfigFrame(t *testing.T) {
	frame := encodeConfigFrame(spinor.ConfigOptions{
		SpeedHz:        12000000,
		CSIdleHigh:     true,
		PowerEnabled:   true,
		PowerMV:        3300,
		PullupsEnabled: true,
	})
	assert.Equal(t, []byte{
		0x01,                   // frame type
		0x00, 0xb7, 0x1b, 0x00, // 12 MHz
		0x1c,       // CS idle high, power, pullups
		0x0c, 0xe4, // 3300 mV
		0x00, 0x00, // current limit off
	}, frame)

	frame = encodeConfigFrame(spinor.ConfigOptions{
		SpeedHz:       1000000,
		ClockPolarity: true,
		ClockPhase:    true,
	})
	assert.Equal(t, []byte{0x01, 0x00, 0x0f, 0x42, 0x40, 0x03, 0x00, 0x00, 0x00, 0x00}, frame)
}

func TestEncodeTransferHeader(t *testing.T) {
	assert.Equal(t, []byte{0x02, 0x00, 0x04, 0x02, 0x00}, encodeTransferHeader(4, 512))
	assert.Equal(t, []byte{0x02, 0x00, 0x01, 0x00, 0x00}, encodeTransferHeader(1, 0))
	assert.Equal(t, []byte{0x02, 0xff, 0xff, 0xff, 0xff},
		encodeTransferHeader(maxTransferLen, maxTransferLen))
}

func TestTransferLengthCap(t *testing.T) {
	c := &Client{portName: "test"}
	_, err := c.Transfer(make([]byte, maxTransferLen+1), 0)
	assert.Error(t, err)
	_, err = c.Transfer([]byte{0x03}, maxTransferLen+1)
	assert.Error(t, err)
}
