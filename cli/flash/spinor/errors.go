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
	"fmt"

	"github.com/juju/errors"
)

var (
	// ErrConfigurationFailed is returned when the transport refuses the
	// requested link setup. No transfers are attempted after it.
	ErrConfigurationFailed = errors.New("failed to configure transport")

	// ErrSizeExceeded is returned when the source is larger than the
	// flash capacity. It is checked before any transfer is issued.
	ErrSizeExceeded = errors.New("source exceeds flash capacity")

	// ErrTimeout is returned when a bounded busy-wait expires.
	ErrTimeout = errors.New("timed out waiting for device to become ready")
)

// TransportError reports a failed or short transfer. Addr is the flash
// address the enclosing operation was at. The operation is aborted, there
// are no retries; for writes, flash contents above Addr are indeterminate.
type TransportError struct {
	Addr int64
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure at 0x%06x", e.Addr)
}

// VerifyError reports the first divergence between the source and the
// device contents. Addr is the start of the verification chunk containing
// the mismatch.
type VerifyError struct {
	Addr int64
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verification mismatch at 0x%06x", e.Addr)
}
