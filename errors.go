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

import "errors"

var (
	// ErrCapacity indicates the region is too small for the requested channel
	// geometry, or the geometry itself is invalid.
	ErrCapacity = errors.New("sharemem: region too small for channel geometry")

	// ErrAlreadyInitialized is returned by Create when the region already
	// holds a valid channel header and AttachExisting was not requested.
	ErrAlreadyInitialized = errors.New("sharemem: region already initialized")

	// ErrNotInitialized is returned by Open when the region does not hold a
	// valid channel header.
	ErrNotInitialized = errors.New("sharemem: region not initialized")

	// ErrTooLarge indicates the payload does not fit the slot under the
	// channel's framing policy.
	ErrTooLarge = errors.New("sharemem: payload does not fit slot")

	// ErrFull is returned by TrySend when every slot is claimed. Transient;
	// Send absorbs it by retrying.
	ErrFull = errors.New("sharemem: channel full")

	// ErrEmpty is returned by TryReceive when no slot is ready. Transient;
	// Receive absorbs it by retrying.
	ErrEmpty = errors.New("sharemem: channel empty")

	// ErrCorrupt indicates a slot carried an out-of-range length field. This
	// is fatal for the channel instance: it means memory corruption or a
	// framing-policy mismatch between producer and consumer.
	ErrCorrupt = errors.New("sharemem: slot framing corrupt")

	// ErrClosed is returned by operations on a closed channel handle.
	ErrClosed = errors.New("sharemem: channel closed")
)
