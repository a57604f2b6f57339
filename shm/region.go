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

// Package shm acquires named, OS-backed shared memory regions.
//
// A region is a contiguous fixed-size block of bytes reachable under a
// process-wide name: on POSIX-like systems a file under /dev/shm (with a
// TempDir fallback) that is truncated and memory-mapped; on Windows a
// pagefile-backed named file mapping. Acquire creates the region if absent
// and opens it if present, so re-acquiring a name yields the same bytes.
//
// Lifecycle is explicit: Release unmaps only the local view, Destroy removes
// the name from the OS namespace. Exactly one owner should call Destroy,
// after every participant has released; destroying while another participant
// is still mapped is a caller error the OS does not protect against.
package shm

import "errors"

// ErrBadSize is returned by Acquire for a non-positive region size.
var ErrBadSize = errors.New("shm: region size must be positive")

// Region is a local view of a named shared memory block.
type Region struct {
	name   string
	data   []byte
	handle regionHandle
}

// Bytes returns the mapped bytes, or nil after Release.
func (r *Region) Bytes() []byte {
	return r.data
}

// Size returns the mapped size in bytes.
func (r *Region) Size() int {
	return len(r.data)
}

// Name returns the name the region was acquired under.
func (r *Region) Name() string {
	return r.name
}
