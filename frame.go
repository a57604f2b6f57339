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
	"encoding/binary"
	"fmt"
)

// Framing selects how a variable-length message is encoded inside a
// fixed-size slot. Producer and consumer must use the same policy; a mismatch
// surfaces as ErrCorrupt on the consumer.
type Framing uint8

const (
	// FramingLengthPrefixed stores a 4-byte little-endian payload length in
	// the first bytes of the slot, followed by up to slot_size-4 payload
	// bytes. This is the default.
	FramingLengthPrefixed Framing = iota

	// FramingFixed treats the whole slot as the message. Payloads must be
	// exactly slot_size bytes; shorter or longer payloads are rejected with
	// ErrTooLarge. Nothing is zero-padded.
	FramingFixed
)

// lengthPrefixSize is the size of the length word under
// FramingLengthPrefixed.
const lengthPrefixSize = 4

// String implements fmt.Stringer.
func (f Framing) String() string {
	switch f {
	case FramingLengthPrefixed:
		return "length-prefixed"
	case FramingFixed:
		return "fixed"
	default:
		return fmt.Sprintf("Framing(%d)", uint8(f))
	}
}

// ParseFraming maps a configuration string to a Framing policy.
func ParseFraming(s string) (Framing, error) {
	switch s {
	case "length-prefixed", "":
		return FramingLengthPrefixed, nil
	case "fixed":
		return FramingFixed, nil
	default:
		return 0, fmt.Errorf("sharemem: unknown framing policy %q", s)
	}
}

// minSlotSize returns the smallest usable slot size under the policy.
func (f Framing) minSlotSize() uint32 {
	if f == FramingLengthPrefixed {
		return lengthPrefixSize + 1
	}
	return 1
}

// checkPayload validates a payload length against the slot geometry.
func (f Framing) checkPayload(n int, slotSize uint64) error {
	switch f {
	case FramingFixed:
		if uint64(n) != slotSize {
			return fmt.Errorf("%w: fixed framing requires exactly %d bytes, got %d", ErrTooLarge, slotSize, n)
		}
	default:
		if uint64(n) > slotSize-lengthPrefixSize {
			return fmt.Errorf("%w: %d bytes exceeds slot payload capacity %d", ErrTooLarge, n, slotSize-lengthPrefixSize)
		}
	}
	return nil
}

// encodeSlot frames the payload into the slot. The payload must already have
// passed checkPayload.
func (f Framing) encodeSlot(slot, payload []byte) {
	if f == FramingFixed {
		copy(slot, payload)
		return
	}
	binary.LittleEndian.PutUint32(slot[:lengthPrefixSize], uint32(len(payload)))
	copy(slot[lengthPrefixSize:], payload)
}

// decodeSlot copies the framed payload out of the slot. For length-prefixed
// framing the length field is validated before any payload byte is touched;
// an out-of-range length must never be trusted, since following it would read
// past the slot boundary.
func (f Framing) decodeSlot(slot []byte) ([]byte, error) {
	if f == FramingFixed {
		out := make([]byte, len(slot))
		copy(out, slot)
		return out, nil
	}
	length := binary.LittleEndian.Uint32(slot[:lengthPrefixSize])
	if uint64(length) > uint64(len(slot)-lengthPrefixSize) {
		return nil, fmt.Errorf("%w: length %d exceeds slot payload capacity %d", ErrCorrupt, length, len(slot)-lengthPrefixSize)
	}
	out := make([]byte, length)
	copy(out, slot[lengthPrefixSize:lengthPrefixSize+int(length)])
	return out, nil
}
