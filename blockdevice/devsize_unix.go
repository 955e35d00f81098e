//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd

package blockdevice

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// getDeviceSize returns the size of a file or block device in bytes (Unix variants)
func getDeviceSize(_ string, f *os.File) (int64, error) {
	// Regular files, and Linux block devices, report their size when
	// seeking to the end.
	size, err := f.Seek(0, io.SeekEnd)
	if err == nil && size > 0 {
		_, _ = f.Seek(0, io.SeekStart)
		return size, nil
	}

	// For block devices on macOS/BSD, use DKIOCGETBLOCKCOUNT + DKIOCGETBLOCKSIZE
	const (
		DKIOCGETBLOCKSIZE  = 0x40046418 // _IOR('d', 24, uint32)
		DKIOCGETBLOCKCOUNT = 0x40086419 // _IOR('d', 25, uint64)
	)

	var blockSize uint32
	var blockCount uint64

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), DKIOCGETBLOCKSIZE, uintptr(unsafe.Pointer(&blockSize))); errno != 0 {
		// Try Linux BLKGETSIZE64
		const BLKGETSIZE64 = 0x80081272
		var sizeBytes uint64
		if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), BLKGETSIZE64, uintptr(unsafe.Pointer(&sizeBytes))); errno != 0 {
			if err == nil {
				// Seeking worked and reported an empty file.
				return 0, nil
			}
			return 0, fmt.Errorf("cannot determine device size: %w", errno)
		}
		return int64(sizeBytes), nil
	}

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), DKIOCGETBLOCKCOUNT, uintptr(unsafe.Pointer(&blockCount))); errno != 0 {
		return 0, fmt.Errorf("cannot get block count: %w", errno)
	}

	return int64(blockSize) * int64(blockCount), nil
}
