/*
 *
 * Copyright 2025 The share-mem Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package sharemem

import (
	"runtime"
	"time"
)

const (
	// spinYieldLimit is the number of attempts that only yield the processor
	// before the loop starts sleeping between retries.
	spinYieldLimit = 64

	// spinSleepHint bounds CPU usage once the fast spin phase is exhausted.
	// Kept in the low microseconds: backpressure here trades CPU for latency.
	spinSleepHint = 5 * time.Microsecond
)

// spinWait is the bounded busy-wait policy behind the blocking Send and
// Receive. The first spinYieldLimit pauses only call runtime.Gosched; after
// that each pause sleeps spinSleepHint. The caller re-checks its condition
// and its context between pauses, so the wait is always interruptible.
type spinWait struct {
	attempts uint
}

func (s *spinWait) pause() {
	s.attempts++
	if s.attempts <= spinYieldLimit {
		runtime.Gosched()
		return
	}
	time.Sleep(spinSleepHint)
}
