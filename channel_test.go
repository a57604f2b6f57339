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
	"bytes"
	"errors"
	"fmt"
	"testing"
	"unsafe"
)

// testMemory is an in-process stand-in for a mapped region. Allocated through
// a uint64 slice so the base is 8-byte aligned like a real mapping.
type testMemory struct {
	buf []byte
}

func (m testMemory) Bytes() []byte { return m.buf }

func newTestMemory(tb testing.TB, size int) testMemory {
	tb.Helper()
	words := make([]uint64, (size+7)/8)
	return testMemory{buf: unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)[:size]}
}

// regionFor sizes a test memory for the given geometry.
func regionFor(tb testing.TB, slots, slotSize uint32) testMemory {
	tb.Helper()
	return newTestMemory(tb, HeaderSize+int(slots)*int(slotSize))
}

func TestChannelRoundTrip(t *testing.T) {
	mem := regionFor(t, 8, 64)
	ch, err := Create(mem, 8, 64)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := []byte("hello world")
	if err := ch.TrySend(want); err != nil {
		t.Fatalf("TrySend failed: %v", err)
	}

	got, err := ch.TryReceive()
	if err != nil {
		t.Fatalf("TryReceive failed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("payload mismatch: expected %q, got %q", want, got)
	}
}

func TestChannelFIFOOrder(t *testing.T) {
	const n = 1000
	mem := regionFor(t, 8, 64)
	ch, err := Create(mem, 8, 64)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	next := 0
	for sent := 0; sent < n; {
		if err := ch.TrySend(fmt.Appendf(nil, "tag-%d", sent)); err == nil {
			sent++
			continue
		} else if !errors.Is(err, ErrFull) {
			t.Fatalf("TrySend failed: %v", err)
		}
		// Ring full: drain a few and keep going.
		for {
			got, err := ch.TryReceive()
			if errors.Is(err, ErrEmpty) {
				break
			}
			if err != nil {
				t.Fatalf("TryReceive failed: %v", err)
			}
			if want := fmt.Sprintf("tag-%d", next); string(got) != want {
				t.Fatalf("out of order: expected %q, got %q", want, got)
			}
			next++
		}
	}
	for next < n {
		got, err := ch.TryReceive()
		if err != nil {
			t.Fatalf("TryReceive failed: %v", err)
		}
		if want := fmt.Sprintf("tag-%d", next); string(got) != want {
			t.Fatalf("out of order: expected %q, got %q", want, got)
		}
		next++
	}
}

func TestTrySendFull(t *testing.T) {
	mem := regionFor(t, 4, 16)
	ch, err := Create(mem, 4, 16)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := ch.TrySend([]byte{byte(i)}); err != nil {
			t.Fatalf("TrySend %d failed: %v", i, err)
		}
	}

	before := ch.State()
	if err := ch.TrySend([]byte("x")); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	after := ch.State()

	if before.WriteCursor != after.WriteCursor || before.ReadCursor != after.ReadCursor {
		t.Fatalf("cursors mutated by failed send: before %+v, after %+v", before, after)
	}
}

func TestTryReceiveEmpty(t *testing.T) {
	mem := regionFor(t, 4, 16)
	ch, err := Create(mem, 4, 16)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	before := ch.State()
	if _, err := ch.TryReceive(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	after := ch.State()

	if before.WriteCursor != after.WriteCursor || before.ReadCursor != after.ReadCursor {
		t.Fatalf("cursors mutated by failed receive: before %+v, after %+v", before, after)
	}
}

func TestCreateGeometryValidation(t *testing.T) {
	mem := regionFor(t, 4, 16)

	if _, err := Create(mem, 0, 16); !errors.Is(err, ErrCapacity) {
		t.Fatalf("zero slots: expected ErrCapacity, got %v", err)
	}
	if _, err := Create(mem, 4, 4); !errors.Is(err, ErrCapacity) {
		t.Fatalf("slot below length-prefix minimum: expected ErrCapacity, got %v", err)
	}
	if _, err := Create(mem, 1000, 16); !errors.Is(err, ErrCapacity) {
		t.Fatalf("oversized geometry: expected ErrCapacity, got %v", err)
	}
	if _, err := Create(newTestMemory(t, 16), 1, 8); !errors.Is(err, ErrCapacity) {
		t.Fatalf("region smaller than header: expected ErrCapacity, got %v", err)
	}
}

func TestCreateAlreadyInitialized(t *testing.T) {
	mem := regionFor(t, 4, 16)
	if _, err := Create(mem, 4, 16); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := Create(mem, 4, 16); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}

	// AttachExisting with matching geometry succeeds.
	if _, err := Create(mem, 4, 16, WithAttachExisting()); err != nil {
		t.Fatalf("Create with AttachExisting failed: %v", err)
	}

	// AttachExisting with different geometry is refused.
	if _, err := Create(mem, 8, 16, WithAttachExisting()); !errors.Is(err, ErrCapacity) {
		t.Fatalf("geometry mismatch: expected ErrCapacity, got %v", err)
	}
}

func TestOpenNotInitialized(t *testing.T) {
	mem := regionFor(t, 4, 16)
	if _, err := Open(mem); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestOpenPreservesInFlight(t *testing.T) {
	mem := regionFor(t, 4, 16)
	producer, err := Create(mem, 4, 16)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	sent := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, p := range sent {
		if err := producer.TrySend(p); err != nil {
			t.Fatalf("TrySend failed: %v", err)
		}
	}

	// A second handle (consumer side) attaches without resetting cursors.
	consumer, err := Open(mem)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := consumer.State().Used; got != uint64(len(sent)) {
		t.Fatalf("expected %d in-flight messages after Open, got %d", len(sent), got)
	}

	for _, want := range sent {
		got, err := consumer.TryReceive()
		if err != nil {
			t.Fatalf("TryReceive failed: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("payload mismatch after reopen: expected %q, got %q", want, got)
		}
	}
}

func TestChannelClosed(t *testing.T) {
	mem := regionFor(t, 4, 16)
	ch, err := Create(mem, 4, 16)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := ch.TrySend([]byte("x")); !errors.Is(err, ErrClosed) {
		t.Fatalf("TrySend after Close: expected ErrClosed, got %v", err)
	}
	if _, err := ch.TryReceive(); !errors.Is(err, ErrClosed) {
		t.Fatalf("TryReceive after Close: expected ErrClosed, got %v", err)
	}
}

func TestCloseLeavesMessagesForLateReader(t *testing.T) {
	mem := regionFor(t, 4, 16)
	producer, err := Create(mem, 4, 16)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := producer.TrySend([]byte("straggler")); err != nil {
		t.Fatalf("TrySend failed: %v", err)
	}
	if err := producer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	late, err := Open(mem)
	if err != nil {
		t.Fatalf("Open after Close failed: %v", err)
	}
	got, err := late.TryReceive()
	if err != nil {
		t.Fatalf("TryReceive failed: %v", err)
	}
	if string(got) != "straggler" {
		t.Fatalf("expected %q, got %q", "straggler", got)
	}
}

func TestCursorWrapAround(t *testing.T) {
	// Push enough traffic through a tiny ring that cursors lap the slot
	// count many times over; indices must keep resolving correctly.
	mem := regionFor(t, 2, 16)
	ch, err := Create(mem, 2, 16)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 100; i++ {
		want := fmt.Appendf(nil, "wrap-%d", i)
		if err := ch.TrySend(want); err != nil {
			t.Fatalf("TrySend %d failed: %v", i, err)
		}
		got, err := ch.TryReceive()
		if err != nil {
			t.Fatalf("TryReceive %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("iteration %d: expected %q, got %q", i, want, got)
		}
	}
	if st := ch.State(); st.WriteCursor != 100 || st.ReadCursor != 100 {
		t.Fatalf("cursors should be monotonic, got %+v", st)
	}
}
