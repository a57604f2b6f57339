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
	"context"
	"errors"
	"fmt"
	"unsafe"
)

// Memory is the view of a shared region the channel operates on. The channel
// consumes only the bytes; how they were obtained (shm.Region, mmap, a plain
// slice shared between goroutines) is the caller's concern.
type Memory interface {
	Bytes() []byte
}

// Channel is a lightweight handle onto an SPSC message channel living inside
// shared memory. All mutable channel state (the two cursors) resides in the
// mapped header, never in the handle, so handles may be duplicated freely
// without forking the cursor state — the invariant that makes the protocol
// work across processes.
//
// Exactly one producer context may call TrySend/Send and exactly one consumer
// context may call TryReceive/Receive at any time. The protocol is not safe
// for concurrent producers or concurrent consumers.
type Channel struct {
	mem      []byte
	framing  Framing
	capacity uint64 // slots
	slotSize uint64
}

// Create initializes a new channel in the region and returns a handle to it.
//
// The region must hold at least HeaderSize + capacitySlots*slotSize bytes and
// start 8-byte aligned (mapped regions always are). If the region already
// carries a valid header, Create fails with ErrAlreadyInitialized unless
// WithAttachExisting was given, in which case it attaches without resetting
// cursors and verifies the geometry matches.
func Create(mem Memory, capacitySlots, slotSize uint32, opts ...Option) (*Channel, error) {
	o := buildOptions(opts)

	buf := mem.Bytes()
	if err := checkRegion(buf); err != nil {
		return nil, err
	}
	if capacitySlots < 1 {
		return nil, fmt.Errorf("%w: capacity_slots must be at least 1", ErrCapacity)
	}
	if slotSize < o.framing.minSlotSize() {
		return nil, fmt.Errorf("%w: slot_size %d below minimum %d for %s framing",
			ErrCapacity, slotSize, o.framing.minSlotSize(), o.framing)
	}
	need := uint64(HeaderSize) + uint64(capacitySlots)*uint64(slotSize)
	if need > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: need %d bytes, region has %d", ErrCapacity, need, len(buf))
	}

	hdr := headerAt(buf)
	if hdr.Magic() == headerMagic {
		if !o.attachExisting {
			return nil, ErrAlreadyInitialized
		}
		ch, err := Open(mem, opts...)
		if err != nil {
			return nil, err
		}
		if ch.capacity != uint64(capacitySlots) || ch.slotSize != uint64(slotSize) {
			return nil, fmt.Errorf("%w: existing geometry %d x %d does not match requested %d x %d",
				ErrCapacity, ch.capacity, ch.slotSize, capacitySlots, slotSize)
		}
		return ch, nil
	}

	hdr.SetWriteCursor(0)
	hdr.SetReadCursor(0)
	hdr.SetCapacitySlots(capacitySlots)
	hdr.SetSlotSize(slotSize)
	hdr.SetVersion(headerVersion)
	// Magic last: a concurrent Open only trusts the header once this lands.
	hdr.SetMagic(headerMagic)

	return &Channel{
		mem:      buf,
		framing:  o.framing,
		capacity: uint64(capacitySlots),
		slotSize: uint64(slotSize),
	}, nil
}

// Open attaches to an already-initialized channel in the region without
// resetting cursors; in-flight, unread messages survive. It fails with
// ErrNotInitialized if no valid header is present.
func Open(mem Memory, opts ...Option) (*Channel, error) {
	o := buildOptions(opts)

	buf := mem.Bytes()
	if err := checkRegion(buf); err != nil {
		return nil, err
	}

	hdr := headerAt(buf)
	if hdr.Magic() != headerMagic {
		return nil, fmt.Errorf("%w: bad magic %#x", ErrNotInitialized, hdr.Magic())
	}
	if v := hdr.Version(); v != headerVersion {
		return nil, fmt.Errorf("%w: unsupported header version %d", ErrNotInitialized, v)
	}

	capacitySlots := hdr.CapacitySlots()
	slotSize := hdr.SlotSize()
	if capacitySlots < 1 || slotSize < o.framing.minSlotSize() {
		return nil, fmt.Errorf("%w: recorded geometry %d x %d is invalid", ErrCorrupt, capacitySlots, slotSize)
	}
	need := uint64(HeaderSize) + uint64(capacitySlots)*uint64(slotSize)
	if need > uint64(len(buf)) {
		return nil, fmt.Errorf("%w: header claims %d bytes, region has %d", ErrCapacity, need, len(buf))
	}

	return &Channel{
		mem:      buf,
		framing:  o.framing,
		capacity: uint64(capacitySlots),
		slotSize: uint64(slotSize),
	}, nil
}

// checkRegion validates the base alignment and minimum size of the mapped
// bytes. The cursors are accessed with 64-bit atomics, so the base must be
// 8-byte aligned; OS page mappings always satisfy this.
func checkRegion(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: region smaller than header (%d < %d)", ErrCapacity, len(buf), HeaderSize)
	}
	if uintptr(unsafe.Pointer(&buf[0]))%8 != 0 {
		return fmt.Errorf("%w: region base not 8-byte aligned", ErrCapacity)
	}
	return nil
}

func (c *Channel) header() *channelHeader {
	return headerAt(c.mem)
}

// slot returns the in-region bytes of the slot at the given index.
func (c *Channel) slot(idx uint64) []byte {
	off := uint64(HeaderSize) + idx*c.slotSize
	return c.mem[off : off+c.slotSize]
}

// Framing returns the framing policy of this handle.
func (c *Channel) Framing() Framing {
	return c.framing
}

// CapacitySlots returns the number of slots.
func (c *Channel) CapacitySlots() uint32 {
	return uint32(c.capacity)
}

// SlotSize returns the slot size in bytes.
func (c *Channel) SlotSize() uint32 {
	return uint32(c.slotSize)
}

// TrySend frames the payload into the next free slot without blocking.
//
// It returns ErrTooLarge if the payload does not fit the framing policy,
// ErrFull if every slot is claimed. Neither case mutates a cursor. On success
// the payload is copied into the slot and then published by advancing the
// write cursor, so a consumer that observes the new cursor also observes the
// fully written bytes.
func (c *Channel) TrySend(payload []byte) error {
	if c.mem == nil {
		return ErrClosed
	}
	if err := c.framing.checkPayload(len(payload), c.slotSize); err != nil {
		return err
	}

	hdr := c.header()
	w := hdr.WriteCursor() // only this producer writes it
	r := hdr.ReadCursor()
	if w-r == c.capacity {
		return ErrFull
	}

	c.framing.encodeSlot(c.slot(w%c.capacity), payload)
	hdr.SetWriteCursor(w + 1) // publish after the copy
	return nil
}

// TryReceive copies the oldest unread message out of the ring without
// blocking.
//
// It returns ErrEmpty when no message is ready, without mutating a cursor.
// For length-prefixed framing an out-of-range length yields ErrCorrupt and
// the slot is not released: the channel instance should be abandoned. On
// success the slot is released only after the copy-out completes.
func (c *Channel) TryReceive() ([]byte, error) {
	if c.mem == nil {
		return nil, ErrClosed
	}

	hdr := c.header()
	r := hdr.ReadCursor() // only this consumer writes it
	w := hdr.WriteCursor()
	if r == w {
		return nil, ErrEmpty
	}

	payload, err := c.framing.decodeSlot(c.slot(r % c.capacity))
	if err != nil {
		return nil, err
	}
	hdr.SetReadCursor(r + 1) // release after the copy-out
	return payload, nil
}

// Send blocks until the payload is accepted, the context is cancelled, or its
// deadline passes. Backpressure is a bounded spin/yield/sleep loop, never a
// kernel wait. Non-transient errors (ErrTooLarge, ErrClosed) return
// immediately; cancellation returns ctx.Err().
func (c *Channel) Send(ctx context.Context, payload []byte) error {
	var wait spinWait
	for {
		err := c.TrySend(payload)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		wait.pause()
	}
}

// Receive blocks until a message arrives, the context is cancelled, or its
// deadline passes, using the same bounded spin policy as Send.
func (c *Channel) Receive(ctx context.Context) ([]byte, error) {
	var wait spinWait
	for {
		payload, err := c.TryReceive()
		if err == nil {
			return payload, nil
		}
		if !errors.Is(err, ErrEmpty) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		wait.pause()
	}
}

// Close drops this handle's view of the channel. No protocol action is taken:
// cursors are left as-is so a late reader can still drain remaining messages.
// Subsequent operations on this handle return ErrClosed. Close must not be
// called concurrently with Send or Receive on the same handle.
func (c *Channel) Close() error {
	c.mem = nil
	return nil
}

// State is a snapshot of the channel counters for diagnostics.
type State struct {
	CapacitySlots uint32
	SlotSize      uint32
	WriteCursor   uint64
	ReadCursor    uint64
	Used          uint64
	Free          uint64
}

// State returns a consistent-enough snapshot of the channel state. Each field
// is read atomically; the pair may be torn across a concurrent operation,
// which is acceptable for diagnostics.
func (c *Channel) State() State {
	if c.mem == nil {
		return State{}
	}
	hdr := c.header()
	w := hdr.WriteCursor()
	r := hdr.ReadCursor()
	return State{
		CapacitySlots: uint32(c.capacity),
		SlotSize:      uint32(c.slotSize),
		WriteCursor:   w,
		ReadCursor:    r,
		Used:          w - r,
		Free:          c.capacity - (w - r),
	}
}
