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
	"sync/atomic"
	"unsafe"
)

const (
	// headerMagic identifies an initialized channel header. The bytes read
	// "SRB1" in memory on a little-endian host.
	headerMagic = uint32(0x31425253)

	// headerVersion is the current header layout version.
	headerVersion = uint32(1)

	// HeaderSize is the fixed size of the channel header at the start of the
	// region. The data area begins immediately after it.
	HeaderSize = 192

	// cacheLineSize separates the two cursors so producer and consumer do not
	// contend on the same line.
	cacheLineSize = 64
)

// channelHeader is the wire layout of the channel header, overlaid in place on
// the first HeaderSize bytes of the shared region. Layout (little-endian):
//
//	0x00 magic          uint32
//	0x04 version        uint32
//	0x08 capacity_slots uint32
//	0x0C slot_size      uint32
//	0x40 write_cursor   uint64   (own cache line)
//	0x80 read_cursor    uint64   (own cache line)
//	0xC0 data area
//
// Both cursors are monotonic counts of slots claimed (write) and released
// (read); they never decrease and wrap only at the width of uint64.
type channelHeader struct {
	magic         uint32
	version       uint32
	capacitySlots uint32
	slotSize      uint32
	_             [cacheLineSize - 16]byte
	writeCursor   uint64
	_             [cacheLineSize - 8]byte
	readCursor    uint64
	_             [cacheLineSize - 8]byte
}

// headerAt overlays a channelHeader on the start of the mapped bytes.
func headerAt(mem []byte) *channelHeader {
	return (*channelHeader)(unsafe.Pointer(&mem[0]))
}

// Magic returns the magic word. Written last during initialization, so a
// non-matching value means the header is not (yet) valid.
func (h *channelHeader) Magic() uint32 {
	return atomic.LoadUint32(&h.magic)
}

// SetMagic publishes the magic word.
func (h *channelHeader) SetMagic(magic uint32) {
	atomic.StoreUint32(&h.magic, magic)
}

// Version returns the header layout version.
func (h *channelHeader) Version() uint32 {
	return atomic.LoadUint32(&h.version)
}

// SetVersion sets the header layout version.
func (h *channelHeader) SetVersion(version uint32) {
	atomic.StoreUint32(&h.version, version)
}

// CapacitySlots returns the number of fixed-size slots.
func (h *channelHeader) CapacitySlots() uint32 {
	return atomic.LoadUint32(&h.capacitySlots)
}

// SetCapacitySlots sets the number of fixed-size slots. Called once at
// creation, immutable thereafter.
func (h *channelHeader) SetCapacitySlots(n uint32) {
	atomic.StoreUint32(&h.capacitySlots, n)
}

// SlotSize returns the slot size in bytes.
func (h *channelHeader) SlotSize() uint32 {
	return atomic.LoadUint32(&h.slotSize)
}

// SetSlotSize sets the slot size in bytes. Called once at creation, immutable
// thereafter.
func (h *channelHeader) SetSlotSize(n uint32) {
	atomic.StoreUint32(&h.slotSize, n)
}

// WriteCursor returns the producer cursor. A load here pairs with the
// producer's publishing store: a consumer that observes a new value also
// observes the slot bytes written before it.
func (h *channelHeader) WriteCursor() uint64 {
	return atomic.LoadUint64(&h.writeCursor)
}

// SetWriteCursor publishes the producer cursor. The payload copy must be
// complete (in program order) before this store.
func (h *channelHeader) SetWriteCursor(c uint64) {
	atomic.StoreUint64(&h.writeCursor, c)
}

// ReadCursor returns the consumer cursor.
func (h *channelHeader) ReadCursor() uint64 {
	return atomic.LoadUint64(&h.readCursor)
}

// SetReadCursor releases slots back to the producer. The copy-out must be
// complete before this store.
func (h *channelHeader) SetReadCursor(c uint64) {
	atomic.StoreUint64(&h.readCursor, c)
}

// Used returns the number of claimed, unreleased slots.
func (h *channelHeader) Used() uint64 {
	return h.WriteCursor() - h.ReadCursor()
}
