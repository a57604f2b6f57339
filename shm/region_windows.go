//go:build windows

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

package shm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

type regionHandle struct {
	mapping windows.Handle
	addr    uintptr
}

// Acquire creates or opens a pagefile-backed named file mapping and maps a
// view of size bytes. CreateFileMapping opens the existing object when the
// name is already in use, so re-acquiring a name yields the same bytes.
func Acquire(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}

	namePtr, err := windows.UTF16PtrFromString(`Local\sharemem-` + name)
	if err != nil {
		return nil, fmt.Errorf("shm: region name %q: %w", name, err)
	}

	mapping, err := windows.CreateFileMapping(
		windows.InvalidHandle, // pagefile-backed
		nil,
		windows.PAGE_READWRITE,
		uint32(uint64(size)>>32),
		uint32(size),
		namePtr,
	)
	if err != nil {
		return nil, fmt.Errorf("shm: create file mapping for %s: %w", name, err)
	}

	addr, err := windows.MapViewOfFile(
		mapping,
		windows.FILE_MAP_READ|windows.FILE_MAP_WRITE,
		0, 0,
		uintptr(size),
	)
	if err != nil {
		windows.CloseHandle(mapping)
		return nil, fmt.Errorf("shm: map view of %s: %w", name, err)
	}

	return &Region{
		name:   name,
		data:   unsafe.Slice((*byte)(unsafe.Pointer(addr)), size),
		handle: regionHandle{mapping: mapping, addr: addr},
	}, nil
}

// Release unmaps the local view and closes the mapping handle. Idempotent.
func (r *Region) Release() error {
	if r.data == nil {
		return nil
	}
	err := windows.UnmapViewOfFile(r.handle.addr)
	r.data = nil
	if cerr := windows.CloseHandle(r.handle.mapping); err == nil {
		err = cerr
	}
	r.handle = regionHandle{}
	if err != nil {
		return fmt.Errorf("shm: release region %s: %w", r.name, err)
	}
	return nil
}

// Destroy is a no-op on Windows: named file mappings are reference-counted by
// the kernel and the name disappears when the last handle closes.
func Destroy(name string) error {
	return nil
}
