//go:build unix

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
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

type regionHandle struct {
	file *os.File
}

// Acquire creates or opens the named region and maps size bytes of it.
//
// The backing object is a file under /dev/shm when available (the standard
// POSIX shared-memory namespace on Linux), falling back to the temporary
// directory. An existing smaller file is grown to size; an existing larger
// one keeps its length, and only the first size bytes are mapped.
func Acquire(name string, size int) (*Region, error) {
	if size <= 0 {
		return nil, ErrBadSize
	}

	path := regionPath(name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: open region %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shm: stat region %s: %w", path, err)
	}
	if info.Size() < int64(size) {
		if err := unix.Ftruncate(int(file.Fd()), int64(size)); err != nil {
			file.Close()
			return nil, fmt.Errorf("shm: resize region %s to %d bytes: %w", path, size, err)
		}
	}

	data, err := unix.Mmap(int(file.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("shm: mmap region %s: %w", path, err)
	}

	return &Region{
		name:   name,
		data:   data,
		handle: regionHandle{file: file},
	}, nil
}

// Release unmaps the local view and closes the backing descriptor. The name
// stays in the OS namespace until Destroy. Idempotent.
func (r *Region) Release() error {
	if r.data == nil {
		return nil
	}
	err := unix.Munmap(r.data)
	r.data = nil
	if cerr := r.handle.file.Close(); err == nil {
		err = cerr
	}
	r.handle.file = nil
	if err != nil {
		return fmt.Errorf("shm: release region %s: %w", r.name, err)
	}
	return nil
}

// Destroy removes the name from the OS namespace so no future Acquire can
// resurrect the old bytes. Participants still holding a mapped view keep
// their mapping; destroying under them is a caller error. Destroying a name
// that does not exist is not an error.
func Destroy(name string) error {
	err := os.Remove(regionPath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shm: destroy region %s: %w", name, err)
	}
	return nil
}

// regionPath maps a region name to its backing file path.
func regionPath(name string) string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return filepath.Join("/dev/shm", "sharemem-"+name)
	}
	return filepath.Join(os.TempDir(), "sharemem-"+name)
}
