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

// Generic SPI NOR command set, common to Winbond/Macronix/Micron/GigaDevice
// and friends.
const (
	cmdPageProgram = 0x02
	cmdRead        = 0x03
	cmdReadStatus  = 0x05
	cmdWriteEnable = 0x06
	cmdReadJEDECID = 0x9F
	cmdChipErase   = 0xC7

	// WIP bit of the status register: set while a program or erase is
	// in progress.
	statusWIP = 0x01
)

// appendAddr appends addr big-endian, width bytes wide.
// Callers guarantee that addr fits in width bytes.
func appendAddr(b []byte, addr uint32, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		b = append(b, byte(addr>>(8*uint(i))))
	}
	return b
}

func readCmd(addr uint32, width int) []byte {
	return appendAddr([]byte{cmdRead}, addr, width)
}

// pageProgramCmd builds a page program command. data must not cross a page
// boundary, callers guarantee this.
func pageProgramCmd(addr uint32, width int, data []byte) []byte {
	b := make([]byte, 0, 1+width+len(data))
	b = append(b, cmdPageProgram)
	b = appendAddr(b, addr, width)
	return append(b, data...)
}

func writeEnableCmd() []byte { return []byte{cmdWriteEnable} }
func chipEraseCmd() []byte   { return []byte{cmdChipErase} }
func readStatusCmd() []byte  { return []byte{cmdReadStatus} }
func readJEDECIDCmd() []byte { return []byte{cmdReadJEDECID} }
