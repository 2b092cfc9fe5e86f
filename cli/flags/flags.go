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
package flags

import (
	"time"

	flag "github.com/spf13/pflag"
)

var (
	Port = flag.StringP("port", "p", "", "Serial port of the bridge (e.g. COM3, /dev/ttyUSB0)")

	BaudRate = flag.Int("baud-rate", 115200, "Serial port speed")
	Input    = flag.StringP("input", "i", "", "Input file to write to flash")
	Output   = flag.StringP("output", "o", "", "Output file for flash contents. '-' writes to stdout.")

	FlashSize = flag.Int64("size", 0, "Flash capacity in bytes. 0 - auto-detect from the JEDEC ID.")
	PageSize  = flag.Int("page-size", 256, "Flash page size for program operations")
	AddrWidth = flag.Int("addr-width", 3, "Address width in bytes, 3 (24-bit) or 4")

	ChunkSize   = flag.Int("chunk-size", 512, "Read chunk size in bytes, 1 to 4096")
	VerifyChunk = flag.Int("verify-chunk", 512, "Verification chunk size in bytes, 1 to 4096")

	SPISpeed = flag.Uint("speed", 12000000, "SPI clock speed, Hz")

	NoErase  = flag.Bool("no-erase", false, "Skip chip erase before writing (faster but retains old data)")
	NoVerify = flag.Bool("no-verify", false, "Skip verification after writing (faster)")

	PollInterval      = flag.Duration("poll-interval", time.Millisecond, "Status poll interval while a page program is in progress")
	ErasePollInterval = flag.Duration("erase-poll-interval", 500*time.Millisecond, "Status poll interval while a chip erase is in progress")
	EraseTimeout      = flag.Duration("erase-timeout", 0, "Give up on chip erase after this long. 0 - wait indefinitely.")

	ChipDB = flag.String("chip-db", "", "YAML file with additional flash chip definitions")

	PowerMV   = flag.Uint("psu-mv", 3300, "On-board supply voltage, mV")
	PowerMA   = flag.Uint("psu-ma", 0, "On-board supply current limit, mA. 0 - no limit.")
	NoPower   = flag.Bool("no-psu", false, "Do not enable the on-board supply")
	NoPullups = flag.Bool("no-pullups", false, "Do not enable the on-board pull-up resistors")
)
