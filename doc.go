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

// Package sharemem implements a fixed-capacity single-producer/single-consumer
// message channel over a block of shared memory.
//
// The channel state (geometry and both cursors) lives entirely inside the
// shared bytes, so a producer and a consumer in separate processes mapping the
// same named region synchronize correctly: all coordination happens through
// atomic loads and stores of the two cursors, with no locks or kernel
// primitives on the hot path. Messages of variable length are framed inside
// fixed-size slots, either as whole-slot payloads or with a 4-byte
// little-endian length prefix.
//
// The backing memory is obtained separately; the shm subpackage provides a
// named, OS-backed region provider, but any 8-byte-aligned byte slice shared
// between the two participants works.
package sharemem
