//go:build windows

package blockdevice

import (
	"fmt"
	"io"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

const IOCTL_DISK_GET_LENGTH_INFO = 0x7405C

// getDeviceSize asks the storage stack for the length of raw disks and
// volumes, which report no size when seeking. Regular files are sized
// by seeking to the end.
func getDeviceSize(path string, f *os.File) (int64, error) {
	if IsRawDevicePath(path) {
		var length int64
		var bytesReturned uint32
		if err := windows.DeviceIoControl(
			windows.Handle(f.Fd()),
			IOCTL_DISK_GET_LENGTH_INFO,
			nil, 0,
			(*byte)(unsafe.Pointer(&length)), uint32(unsafe.Sizeof(length)),
			&bytesReturned,
			nil,
		); err != nil {
			return 0, fmt.Errorf("cannot determine device size: %w", err)
		}
		return length, nil
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	_, _ = f.Seek(0, io.SeekStart)
	return size, nil
}
