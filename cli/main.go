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

// bpflash reads, erases, programs and verifies SPI NOR flash chips
// through a Bus Pirate style serial bridge.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/golang/glog"
	flag "github.com/spf13/pflag"

	"github.com/bpio-tools/bpflash/cli/ourutil"
	"github.com/bpio-tools/bpflash/version"
)

type handler func(ctx context.Context) error

type command struct {
	name     string
	handler  handler
	short    string
	required []string
	optional []string
}

var commands = []command{
	{"read", flashRead, "Read flash contents to a file",
		[]string{"port", "output"},
		[]string{"size", "speed", "chunk-size", "addr-width", "baud-rate", "chip-db", "psu-mv", "no-psu", "no-pullups"}},
	{"write", flashWrite, "Write a file to flash, with chip erase and verification",
		[]string{"port", "input"},
		[]string{"size", "speed", "no-erase", "no-verify", "page-size", "addr-width", "verify-chunk", "poll-interval", "erase-timeout", "baud-rate", "chip-db", "psu-mv", "no-psu", "no-pullups"}},
	{"erase", flashErase, "Erase the entire flash chip",
		[]string{"port"},
		[]string{"size", "speed", "erase-timeout", "erase-poll-interval", "baud-rate", "psu-mv", "no-psu"}},
	{"chipid", chipID, "Read and decode the flash chip's JEDEC ID",
		[]string{"port"},
		[]string{"speed", "chip-db", "baud-rate", "psu-mv", "no-psu", "no-pullups"}},
	{"version", showVersion, "Show version and exit", nil, nil},
}

func showVersion(ctx context.Context) error {
	ourutil.Reportf("bpflash %s", version.GetVersion())
	return nil
}

func run() error {
	initFlags()
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := checkFlags(c.required); err != nil {
			return err
		}
		return c.handler(context.Background())
	}
	usage()
	return fmt.Errorf("unknown command %q", args[0])
}

func main() {
	defer glog.Flush()
	if err := run(); err != nil {
		glog.Infof("Error: %+v", err)
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
