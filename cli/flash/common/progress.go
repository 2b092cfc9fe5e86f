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
package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const barWidth = 50

// Bar renders a single-line terminal progress bar with elapsed time, ETA
// and throughput. Update matches the engine's progress callback signature
// and has no effect on control flow. The clock starts on the first Update,
// so one Bar per pipeline stage measures that stage only.
type Bar struct {
	label string
	out   io.Writer
	start time.Time
}

func NewBar(label string) *Bar {
	return &Bar{label: label, out: os.Stderr}
}

func (b *Bar) Update(done, total int64) {
	if total <= 0 {
		return
	}
	if b.start.IsZero() {
		b.start = time.Now()
	}
	frac := float64(done) / float64(total)
	filled := int(frac * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	elapsed := time.Since(b.start)
	var eta time.Duration
	if done > 0 {
		eta = time.Duration(float64(elapsed) * (float64(total)/float64(done) - 1))
	}
	var speed float64
	if s := elapsed.Seconds(); s > 0 {
		speed = float64(done) / 1024 / s
	}
	fmt.Fprintf(b.out, "\r%s [%s] %5.1f%% (%s/%s) %s elapsed, ETA %s (%.1f KB/s)",
		b.label, bar, frac*100, FmtSize(done), FmtSize(total),
		fmtClock(elapsed), fmtClock(eta), speed)
	if done >= total {
		fmt.Fprintf(b.out, "\n")
	}
}

// FmtSize renders a byte count with a binary unit suffix.
func FmtSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}

// fmtClock renders a duration as mm:ss.
func fmtClock(d time.Duration) string {
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
