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
	"context"
	"time"

	"github.com/golang/glog"
	"github.com/juju/errors"
)

// waitReady polls the status register until the WIP bit clears.
// addr is attributed to transport failures. max bounds the wait and
// produces ErrTimeout when exceeded; 0 polls indefinitely.
func (s *Session) waitReady(ctx context.Context, addr int64, poll, max time.Duration) error {
	start := time.Now()
	for {
		status, err := s.transfer(addr, readStatusCmd(), 1)
		if err != nil {
			return errors.Trace(err)
		}
		if status[0]&statusWIP == 0 {
			return nil
		}
		if max > 0 && time.Since(start) >= max {
			return errors.Annotatef(ErrTimeout, "device busy for more than %s", max)
		}
		glog.V(3).Infof("device busy (status 0x%02x), %s elapsed", status[0], time.Since(start))
		select {
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		case <-time.After(poll):
		}
	}
}
