//go:build unix

package arena

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func allocateMemory(capacity int, mmap bool) ([]byte, func([]byte) error, bool, error) {
	if !mmap {
		return heapMemory(capacity), nil, false, nil
	}

	buf, err := unix.Mmap(-1, 0, capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, false, fmt.Errorf("arena: mmap %d bytes: %w", capacity, err)
	}

	return buf, unix.Munmap, true, nil
}
